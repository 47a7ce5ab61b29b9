package tui

import tea "github.com/charmbracelet/bubbletea"

// Run subscribes a model to ctrl and blocks until the user quits.
func Run(cfg Config, ctrl Controller, conv Converter) error {
	m := NewModel(cfg, ctrl, conv)
	unsubscribe := ctrl.Subscribe(m.Listener())
	defer unsubscribe()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/danmuck/remotectl/internal/session"
)

// Controller is the session surface the terminal client drives.
type Controller interface {
	Run() (string, error)
	Stop() (string, error)
	QueryStatus() (string, error)
	Load(profilePath string) (string, error)
	Subscribe(l session.Listener) func()
}

type Converter interface {
	Convert(dataFile string) error
}

type Config struct {
	SystemDir  string
	ProfileDir string
	DataDir    string
	Location   *time.Location
}

type promptKind int

const (
	promptNone promptKind = iota
	promptLoad
	promptConvert
)

const (
	statusReady        = "Ready"
	statusCleared      = "Log cleared"
	statusNoSystemPath = "System file path not set"
	helpLine           = "l load  r run  s stop  t status  c convert  x clear  q quit"
)

type theme struct {
	header    lipgloss.Style
	panel     lipgloss.Style
	help      lipgloss.Style
	status    lipgloss.Style
	statusErr lipgloss.Style
	prompt    lipgloss.Style
}

func newTheme() theme {
	blue := lipgloss.Color("#7aa2f7")
	pink := lipgloss.Color("#f7768e")
	muted := lipgloss.Color("#565f89")
	return theme{
		header: lipgloss.NewStyle().Bold(true).Foreground(blue),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted),
		help:      lipgloss.NewStyle().Foreground(muted),
		status:    lipgloss.NewStyle().Foreground(blue).Bold(true),
		statusErr: lipgloss.NewStyle().Foreground(pink).Bold(true),
		prompt:    lipgloss.NewStyle().Foreground(blue),
	}
}

type Model struct {
	cfg     Config
	ctrl    Controller
	conv    Converter
	inbound chan tea.Msg

	transcript *Transcript
	log        viewport.Model
	input      textinput.Model
	prompt     promptKind

	status    string
	statusErr bool
	width     int
	height    int
	theme     theme
}

func NewModel(cfg Config, ctrl Controller, conv Converter) Model {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 1024

	log := viewport.New(0, 0)
	log.MouseWheelEnabled = true

	return Model{
		cfg:        cfg,
		ctrl:       ctrl,
		conv:       conv,
		inbound:    make(chan tea.Msg, inboundBuffer),
		transcript: &Transcript{},
		log:        log,
		input:      input,
		status:     statusReady,
		theme:      newTheme(),
	}
}

// Listener returns the session listener feeding this model.
func (m Model) Listener() session.Listener {
	return listener{out: m.inbound}
}

func (m Model) Init() tea.Cmd {
	return waitMsg(m.inbound)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case sentMsg:
		m.transcript.AppendSent(msg.ev.At.In(m.cfg.Location), msg.ev.Command)
		m.setStatus("Sent command: "+msg.ev.Command, false)
		m.refresh()
		return m, waitMsg(m.inbound)

	case resultMsg:
		m.transcript.AppendResponse(msg.res.At.In(m.cfg.Location), msg.res.Text)
		m.refresh()
		return m, waitMsg(m.inbound)

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.log, cmd = m.log.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.send(m.ctrl.Run)
	case "s":
		m.send(m.ctrl.Stop)
	case "t":
		m.send(m.ctrl.QueryStatus)
	case "l":
		return m.openPrompt(promptLoad, m.cfg.ProfileDir)
	case "c":
		return m.openPrompt(promptConvert, m.cfg.DataDir)
	case "x":
		m.transcript.Clear()
		m.refresh()
		m.setStatus(statusCleared, false)
	default:
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) openPrompt(kind promptKind, initial string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(m.cfg.SystemDir) == "" {
		m.setStatus(statusNoSystemPath, true)
		return m, nil
	}
	m.prompt = kind
	m.input.SetValue(initial)
	m.input.CursorEnd()
	m.resize()
	return m, m.input.Focus()
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		kind := m.prompt
		path := strings.TrimSpace(m.input.Value())
		m.closePrompt()
		m.submit(kind, path)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Reset()
	m.input.Blur()
	m.resize()
}

func (m *Model) submit(kind promptKind, path string) {
	if path == "" {
		return
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		m.setStatus("File not found: "+path, true)
		return
	}
	switch kind {
	case promptLoad:
		m.send(func() (string, error) { return m.ctrl.Load(path) })
	case promptConvert:
		if m.conv == nil {
			m.setStatus("Conversion error: converter unavailable", true)
			return
		}
		if err := m.conv.Convert(path); err != nil {
			m.setStatus(fmt.Sprintf("Conversion error: %v", err), true)
			return
		}
		m.setStatus("Converted: "+filepath.Base(path), false)
	}
}

// send reports failures only; success status arrives with the sent event.
func (m *Model) send(fn func() (string, error)) {
	if _, err := fn(); err != nil {
		m.setStatus(fmt.Sprintf("Send command error: %v", err), true)
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) refresh() {
	m.log.SetContent(m.transcript.String())
	m.log.GotoBottom()
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	reserved := 5
	if m.prompt != promptNone {
		reserved++
	}
	m.log.Width = max(m.width-2, 1)
	m.log.Height = max(m.height-reserved, 1)
	m.input.Width = max(m.width-4, 1)
	m.refresh()
}

func (m Model) promptLabel() string {
	switch m.prompt {
	case promptLoad:
		return "Select profile:"
	case promptConvert:
		return "Select data file:"
	default:
		return ""
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.header.Render("remotectl"))
	b.WriteString("  ")
	b.WriteString(m.theme.help.Render(helpLine))
	b.WriteString("\n")
	b.WriteString(m.theme.panel.Render(m.log.View()))
	b.WriteString("\n")
	if m.prompt != promptNone {
		b.WriteString(m.theme.prompt.Render(m.promptLabel()))
		b.WriteString(" ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	style := m.theme.status
	if m.statusErr {
		style = m.theme.statusErr
	}
	b.WriteString(style.Render(m.status))
	return b.String()
}

// Status is the current status bar text.
func (m Model) Status() string {
	return m.status
}

// Transcript is the current log contents.
func (m Model) Transcript() string {
	return m.transcript.String()
}

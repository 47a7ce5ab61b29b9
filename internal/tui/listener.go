package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	logs "github.com/danmuck/remotectl/internal/logging"
	"github.com/danmuck/remotectl/internal/session"
)

const inboundBuffer = 64

type sentMsg struct {
	ev session.CommandSent
}

type resultMsg struct {
	res session.Result
}

// listener forwards controller events into the program without blocking the poller.
type listener struct {
	out chan<- tea.Msg
}

func (l listener) OnCommandSent(ev session.CommandSent) {
	l.push(sentMsg{ev: ev})
}

func (l listener) OnResult(res session.Result) {
	l.push(resultMsg{res: res})
}

func (l listener) push(msg tea.Msg) {
	select {
	case l.out <- msg:
	default:
		logs.Warnf("tui.listener.push dropped msg=%T", msg)
	}
}

func waitMsg(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

package session

import (
	"time"

	logs "github.com/danmuck/remotectl/internal/logging"
	"github.com/danmuck/remotectl/internal/protocol/watch"
)

// CommandSent is emitted as soon as a command reaches the control file.
type CommandSent struct {
	ID      string
	Command string
	At      time.Time
}

// Result is emitted once when a send resolves. Text carries the response or the failure reason.
type Result struct {
	ID      string
	Command string
	Outcome watch.OutcomeKind
	Text    string
	Err     error
	Polls   int
	Retries int
	At      time.Time
	Latency time.Duration
}

func (r Result) Failed() bool {
	return r.Outcome != watch.OutcomeResponse
}

// Listener receives controller events. Callbacks must not block; they run on the polling goroutine.
type Listener interface {
	OnCommandSent(CommandSent)
	OnResult(Result)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are ignored.
type ListenerFuncs struct {
	Sent   func(CommandSent)
	Result func(Result)
}

func (f ListenerFuncs) OnCommandSent(ev CommandSent) {
	if f.Sent != nil {
		f.Sent(ev)
	}
}

func (f ListenerFuncs) OnResult(res Result) {
	if f.Result != nil {
		f.Result(res)
	}
}

// ResultChannel is a Listener that forwards results to a buffered channel, dropping when full.
type ResultChannel struct {
	ch chan Result
}

func NewResultChannel(buffer int) *ResultChannel {
	if buffer <= 0 {
		buffer = 1
	}
	return &ResultChannel{ch: make(chan Result, buffer)}
}

func (r *ResultChannel) C() <-chan Result {
	return r.ch
}

func (r *ResultChannel) OnCommandSent(CommandSent) {}

func (r *ResultChannel) OnResult(res Result) {
	select {
	case r.ch <- res:
	default:
		logs.Warnf("session.ResultChannel.OnResult dropped id=%s outcome=%s", res.ID, res.Outcome)
	}
}

type EventKind string

const (
	EventCommandSent EventKind = "command_sent"
	EventResult      EventKind = "result"
)

// Event is one history entry, shaped for JSON.
type Event struct {
	Kind    EventKind         `json:"kind"`
	ID      string            `json:"id"`
	Command string            `json:"command"`
	Outcome watch.OutcomeKind `json:"outcome,omitempty"`
	Text    string            `json:"text,omitempty"`
	Error   string            `json:"error,omitempty"`
	Retries int               `json:"retries,omitempty"`
	At      time.Time         `json:"at"`
}

func sentEvent(ev CommandSent) Event {
	return Event{Kind: EventCommandSent, ID: ev.ID, Command: ev.Command, At: ev.At}
}

func resultEvent(res Result) Event {
	out := Event{
		Kind:    EventResult,
		ID:      res.ID,
		Command: res.Command,
		Outcome: res.Outcome,
		Text:    res.Text,
		Retries: res.Retries,
		At:      res.At,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

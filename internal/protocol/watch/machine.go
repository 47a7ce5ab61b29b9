package watch

import (
	"context"
	"fmt"
	"sync"

	"github.com/danmuck/remotectl/internal/clock"
	logs "github.com/danmuck/remotectl/internal/logging"
	"github.com/danmuck/remotectl/internal/protocol/channel"
)

// CommandWriter is the control side of the host exchange.
type CommandWriter interface {
	Send(payload string) error
}

// ResponseSource is the response side of the host exchange.
type ResponseSource interface {
	TimestampOf() channel.Timestamp
	ReadText() (string, error)
}

// Hooks observe machine transitions. They run outside the machine lock and may call back into it.
type Hooks struct {
	Resent   func(state WatchState, err error)
	Resolved func(outcome Outcome)
}

type Option func(*Machine)

func WithClock(c clock.Clock) Option {
	return func(m *Machine) {
		if c != nil {
			m.clock = c
		}
	}
}

func WithHooks(h Hooks) Option {
	return func(m *Machine) {
		m.hooks = h
	}
}

// Machine drives one command at a time from send to resolution.
type Machine struct {
	cfg      Config
	clock    clock.Clock
	control  CommandWriter
	response ResponseSource
	hooks    Hooks

	mu     sync.Mutex
	active *activeWatch
	seq    uint64
	last   *Outcome
}

// activeWatch pairs a WatchState with its cancellation token and pending poll.
type activeWatch struct {
	state  WatchState
	ctx    context.Context
	cancel context.CancelFunc
	timer  *clock.Timer
}

func NewMachine(cfg Config, control CommandWriter, response ResponseSource, opts ...Option) (*Machine, error) {
	if control == nil || response == nil {
		return nil, ErrNilChannel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Machine{
		cfg:      cfg,
		clock:    clock.Real(),
		control:  control,
		response: response,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Machine) Config() Config {
	return m.cfg
}

// Start supersedes any in-flight command, captures the baseline, writes cmd and begins polling.
// A write failure leaves the machine idle.
func (m *Machine) Start(cmd Command) (WatchState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.cancelLocked(); ok {
		logs.Infof(
			"watch.Machine.Start superseded seq=%d id=%s command=%q polls=%d retries=%d",
			prev.Seq, prev.Command.ID, prev.Command.Payload, prev.TotalPolls, prev.RetryCount,
		)
	}

	baseline := m.response.TimestampOf()
	if err := m.control.Send(cmd.Payload); err != nil {
		logs.Errf("watch.Machine.Start write failed id=%s command=%q err=%v", cmd.ID, cmd.Payload, err)
		return WatchState{}, err
	}

	m.seq++
	now := m.clock.Now()
	ctx, cancel := context.WithCancel(context.Background())
	w := &activeWatch{
		state: WatchState{
			Seq:        m.seq,
			Command:    cmd,
			Baseline:   baseline,
			Running:    true,
			SentAt:     now,
			LastSendAt: now,
		},
		ctx:    ctx,
		cancel: cancel,
	}
	m.active = w
	m.scheduleLocked(w)

	logs.Infof(
		"watch.Machine.Start sent seq=%d id=%s command=%q baseline=%s",
		w.state.Seq, cmd.ID, cmd.Payload, baseline,
	)
	return w.state, nil
}

// Cancel discards the in-flight command without reporting an outcome.
func (m *Machine) Cancel() (WatchState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.cancelLocked()
	if ok {
		logs.Infof("watch.Machine.Cancel seq=%d id=%s err=%v", state.Seq, state.Command.ID, ErrCancelled)
	}
	return state, ok
}

// Snapshot reports the current phase and, while awaiting, a copy of the watch state.
func (m *Machine) Snapshot() (State, WatchState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return StateIdle, WatchState{}
	}
	return StateAwaiting, m.active.state
}

// LastOutcome returns the most recent resolution, if any.
func (m *Machine) LastOutcome() (Outcome, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return Outcome{}, false
	}
	return *m.last, true
}

func (m *Machine) cancelLocked() (WatchState, bool) {
	w := m.active
	if w == nil {
		return WatchState{}, false
	}
	w.cancel()
	w.timer.Stop()
	w.state.Running = false
	m.active = nil
	return w.state, true
}

func (m *Machine) scheduleLocked(w *activeWatch) {
	w.timer = m.clock.AfterFunc(m.cfg.PollInterval, func() {
		m.tick(w)
	})
}

// resendResult carries a resend out of the lock to the Resent hook.
type resendResult struct {
	state WatchState
	err   error
}

func (m *Machine) tick(w *activeWatch) {
	var (
		outcome *Outcome
		resent  *resendResult
	)
	func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		defer func() {
			if r := recover(); r != nil {
				if m.active != w {
					return
				}
				o := m.resolveLocked(w, OutcomeFault, "", fmt.Errorf("%w: %v", ErrPollFault, r), channel.Absent)
				outcome = &o
				resent = nil
			}
		}()
		outcome, resent = m.stepLocked(w)
	}()

	if resent != nil {
		if resent.err != nil {
			logs.Warnf(
				"watch.Machine.tick resend failed seq=%d id=%s attempt=%d err=%v",
				resent.state.Seq, resent.state.Command.ID, resent.state.RetryCount, resent.err,
			)
		} else {
			logs.Warnf(
				"watch.Machine.tick resend seq=%d id=%s command=%q attempt=%d",
				resent.state.Seq, resent.state.Command.ID, resent.state.Command.Payload, resent.state.RetryCount,
			)
		}
		if m.hooks.Resent != nil {
			m.hooks.Resent(resent.state, resent.err)
		}
	}
	if outcome != nil {
		logs.Infof(
			"watch.Machine.tick resolved seq=%d id=%s outcome=%s polls=%d retries=%d latency=%s",
			outcome.Seq, outcome.Command.ID, outcome.Kind, outcome.Polls, outcome.Retries, outcome.Latency(),
		)
		if m.hooks.Resolved != nil {
			m.hooks.Resolved(*outcome)
		}
	}
}

// stepLocked runs one poll. A tick queued before cancellation observes the cancelled token and returns.
func (m *Machine) stepLocked(w *activeWatch) (*Outcome, *resendResult) {
	if w.ctx.Err() != nil || m.active != w {
		return nil, nil
	}

	w.state.PollCount++
	w.state.TotalPolls++
	t := m.response.TimestampOf()
	if t != w.state.Baseline && !t.IsAbsent() {
		text, err := m.response.ReadText()
		if err != nil {
			o := m.resolveLocked(w, OutcomeReadError, fmt.Sprintf("Error reading response: %v", err), err, t)
			return &o, nil
		}
		o := m.resolveLocked(w, OutcomeResponse, text, nil, t)
		return &o, nil
	}

	if w.state.PollCount >= m.cfg.TimeoutPolls {
		if w.state.RetryCount >= m.cfg.MaxRetries {
			o := m.resolveLocked(w, OutcomeNoHostResponse, NoHostResponseText, ErrHostTimeout, channel.Absent)
			return &o, nil
		}
		err := m.control.Send(w.state.Command.Payload)
		w.state.RetryCount++
		w.state.PollCount = 0
		w.state.LastSendAt = m.clock.Now()
		m.scheduleLocked(w)
		return nil, &resendResult{state: w.state, err: err}
	}

	m.scheduleLocked(w)
	return nil, nil
}

func (m *Machine) resolveLocked(w *activeWatch, kind OutcomeKind, text string, err error, response channel.Timestamp) Outcome {
	w.cancel()
	w.timer.Stop()
	w.state.Running = false
	m.active = nil
	o := Outcome{
		Seq:        w.state.Seq,
		Command:    w.state.Command,
		Kind:       kind,
		Text:       text,
		Err:        err,
		Response:   response,
		Polls:      w.state.TotalPolls,
		Retries:    w.state.RetryCount,
		SentAt:     w.state.SentAt,
		ResolvedAt: m.clock.Now(),
	}
	m.last = &o
	return o
}

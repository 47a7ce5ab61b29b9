package session

import (
	"errors"
	"sync"
	"time"

	"github.com/danmuck/remotectl/internal/clock"
	logs "github.com/danmuck/remotectl/internal/logging"
	"github.com/danmuck/remotectl/internal/observability"
	"github.com/danmuck/remotectl/internal/protocol/watch"
	"github.com/google/uuid"
)

var (
	ErrEmptyCommand = errors.New("session: empty command")
	ErrClosed       = errors.New("session: controller closed")
)

const defaultHistoryLimit = 200

// Config defines controller behavior on top of the watch policy.
type Config struct {
	Watch        watch.Config
	HistoryLimit int
}

func DefaultConfig() Config {
	return Config{
		Watch:        watch.DefaultConfig(),
		HistoryLimit: defaultHistoryLimit,
	}
}

type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) {
		if c != nil {
			ctrl.clock = c
		}
	}
}

// WithListener subscribes l before the first command can be sent.
func WithListener(l Listener) Option {
	return func(ctrl *Controller) {
		if l != nil {
			ctrl.nextSubID++
			ctrl.listeners = append(ctrl.listeners, subscription{id: ctrl.nextSubID, l: l})
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(ctrl *Controller) {
		if fn != nil {
			ctrl.newID = fn
		}
	}
}

// Snapshot is the controller status shape served to outer surfaces.
type Snapshot struct {
	State        watch.State       `json:"state"`
	ID           string            `json:"id,omitempty"`
	Command      string            `json:"command,omitempty"`
	PollCount    int               `json:"poll_count"`
	RetryCount   int               `json:"retry_count"`
	Baseline     string            `json:"baseline,omitempty"`
	SentAt       time.Time         `json:"sent_at,omitempty"`
	LastID       string            `json:"last_id,omitempty"`
	LastOutcome  watch.OutcomeKind `json:"last_outcome,omitempty"`
	PollInterval string            `json:"poll_interval"`
	GiveUpAfter  string            `json:"give_up_after"`
}

type subscription struct {
	id uint64
	l  Listener
}

// Controller is the single entry point for sending host commands.
type Controller struct {
	machine *watch.Machine
	clock   clock.Clock
	newID   func() string

	listenerMu sync.RWMutex
	listeners  []subscription
	nextSubID  uint64

	mu           sync.Mutex
	history      []Event
	historyLimit int
	closed       bool
}

func New(cfg Config, control watch.CommandWriter, response watch.ResponseSource, opts ...Option) (*Controller, error) {
	c := &Controller{
		clock:        clock.Real(),
		newID:        uuid.NewString,
		historyLimit: cfg.HistoryLimit,
	}
	if c.historyLimit <= 0 {
		c.historyLimit = defaultHistoryLimit
	}
	for _, opt := range opts {
		opt(c)
	}
	machine, err := watch.NewMachine(
		cfg.Watch.WithDefaults(),
		control,
		response,
		watch.WithClock(c.clock),
		watch.WithHooks(watch.Hooks{
			Resent:   c.onResent,
			Resolved: c.onResolved,
		}),
	)
	if err != nil {
		return nil, err
	}
	c.machine = machine
	return c, nil
}

// Subscribe adds l and returns a func that removes it.
func (c *Controller) Subscribe(l Listener) func() {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	next := make([]subscription, 0, len(c.listeners)+1)
	next = append(next, c.listeners...)
	next = append(next, subscription{id: id, l: l})
	c.listeners = next
	return func() {
		c.listenerMu.Lock()
		defer c.listenerMu.Unlock()
		out := make([]subscription, 0, len(c.listeners))
		for _, sub := range c.listeners {
			if sub.id != id {
				out = append(out, sub)
			}
		}
		c.listeners = out
	}
}

// SendCommand replaces any in-flight command with cmd and returns the send id. The result arrives
// through listeners. A control write failure is returned and no watch is started.
func (c *Controller) SendCommand(cmd string) (string, error) {
	if cmd == "" {
		return "", ErrEmptyCommand
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return "", ErrClosed
	}

	id := c.newID()
	state, err := c.machine.Start(watch.Command{ID: id, Payload: cmd})
	if err != nil {
		observability.RecordSendFailure()
		return "", err
	}
	observability.RecordCommandSent()

	ev := CommandSent{ID: id, Command: cmd, At: state.SentAt}
	c.record(sentEvent(ev))
	for _, sub := range c.snapshotListeners() {
		sub.l.OnCommandSent(ev)
	}
	return id, nil
}

// Cancel drops the in-flight command. No result is emitted for it.
func (c *Controller) Cancel() bool {
	_, ok := c.machine.Cancel()
	return ok
}

// Close cancels the in-flight command and rejects later sends.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.machine.Cancel()
}

func (c *Controller) Status() Snapshot {
	phase, state := c.machine.Snapshot()
	cfg := c.machine.Config()
	out := Snapshot{
		State:        phase,
		PollInterval: cfg.PollInterval.String(),
		GiveUpAfter:  cfg.GiveUpAfter().String(),
	}
	if phase == watch.StateAwaiting {
		out.ID = state.Command.ID
		out.Command = state.Command.Payload
		out.PollCount = state.PollCount
		out.RetryCount = state.RetryCount
		out.Baseline = state.Baseline.String()
		out.SentAt = state.SentAt
	}
	if last, ok := c.machine.LastOutcome(); ok {
		out.LastID = last.Command.ID
		out.LastOutcome = last.Kind
	}
	return out
}

// RecentEvents returns up to limit history entries, oldest first. A non-positive limit returns all.
func (c *Controller) RecentEvents(limit int) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := 0
	if limit > 0 && len(c.history) > limit {
		start = len(c.history) - limit
	}
	out := make([]Event, len(c.history)-start)
	copy(out, c.history[start:])
	return out
}

func (c *Controller) onResent(state watch.WatchState, err error) {
	observability.RecordResend(err == nil)
}

func (c *Controller) onResolved(o watch.Outcome) {
	res := Result{
		ID:      o.Command.ID,
		Command: o.Command.Payload,
		Outcome: o.Kind,
		Text:    o.Text,
		Err:     o.Err,
		Polls:   o.Polls,
		Retries: o.Retries,
		At:      o.ResolvedAt,
		Latency: o.Latency(),
	}
	observability.RecordResult(string(o.Kind), res.Latency)
	if res.Failed() {
		logs.Warnf("session.Controller.onResolved failure id=%s command=%q outcome=%s text=%q", res.ID, res.Command, res.Outcome, res.Text)
	}
	c.record(resultEvent(res))
	for _, sub := range c.snapshotListeners() {
		sub.l.OnResult(res)
	}
}

func (c *Controller) record(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, ev)
	if over := len(c.history) - c.historyLimit; over > 0 {
		c.history = append([]Event(nil), c.history[over:]...)
	}
}

func (c *Controller) snapshotListeners() []subscription {
	c.listenerMu.RLock()
	defer c.listenerMu.RUnlock()
	return c.listeners
}

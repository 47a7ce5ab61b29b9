package watch

import (
	"time"

	"github.com/danmuck/remotectl/internal/protocol/channel"
)

// NoHostResponseText is the result text reported when the retry budget runs out.
const NoHostResponseText = "No Host Response"

// State is the machine-level phase.
type State string

const (
	StateIdle     State = "idle"
	StateAwaiting State = "awaiting"
)

// Command is one opaque payload plus its correlation id. Only Payload reaches the control file.
type Command struct {
	ID      string
	Payload string
}

// WatchState is the bookkeeping for the single in-flight command.
type WatchState struct {
	Seq        uint64
	Command    Command
	Baseline   channel.Timestamp
	PollCount  int
	TotalPolls int
	RetryCount int
	Running    bool
	SentAt     time.Time
	LastSendAt time.Time
}

type OutcomeKind string

const (
	OutcomeResponse       OutcomeKind = "response"
	OutcomeNoHostResponse OutcomeKind = "no_host_response"
	OutcomeReadError      OutcomeKind = "read_error"
	OutcomeFault          OutcomeKind = "fault"
)

// Outcome is the terminal result of one watch.
type Outcome struct {
	Seq        uint64
	Command    Command
	Kind       OutcomeKind
	Text       string
	Err        error
	Response   channel.Timestamp
	Polls      int
	Retries    int
	SentAt     time.Time
	ResolvedAt time.Time
}

func (o Outcome) Failed() bool {
	return o.Kind != OutcomeResponse
}

func (o Outcome) Latency() time.Duration {
	if o.SentAt.IsZero() || o.ResolvedAt.Before(o.SentAt) {
		return 0
	}
	return o.ResolvedAt.Sub(o.SentAt)
}

package tui

import (
	"fmt"
	"strings"
	"time"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	separatorWidth  = 50
)

// Transcript is the scrolling log of sent commands and host responses.
type Transcript struct {
	b strings.Builder
}

func (t *Transcript) AppendSent(at time.Time, command string) {
	if t.b.Len() > 0 {
		t.b.WriteString("\n")
	}
	fmt.Fprintf(&t.b, "[%s] Sent: %s\n", at.Format(timestampLayout), command)
}

func (t *Transcript) AppendResponse(at time.Time, text string) {
	if t.b.Len() > 0 {
		t.b.WriteString("\n" + strings.Repeat("-", separatorWidth) + "\n")
	}
	fmt.Fprintf(&t.b, "[%s] Response:\n%s\n", at.Format(timestampLayout), text)
}

func (t *Transcript) Clear() {
	t.b.Reset()
}

func (t *Transcript) String() string {
	return t.b.String()
}

package telephony

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	defaultMaxCalls      = 1000
	defaultTranscriptTTL = 2 * time.Hour
	maxExchangesPerCall  = 200
)

// Exchange is one user utterance and the assistant's spoken reply.
type Exchange struct {
	User      string
	Bot       string
	Timestamp time.Time
}

type transcript struct {
	exchanges []Exchange
	updatedAt time.Time
}

// TranscriptBuffer keeps in-flight call transcripts keyed by call SID until
// the call-completed webhook flushes them. Calls that never complete are
// evicted after a TTL so abandoned calls cannot grow the buffer forever.
type TranscriptBuffer struct {
	mu       sync.Mutex
	calls    map[string]*transcript
	maxCalls int
	ttl      time.Duration
	now      func() time.Time
}

// NewTranscriptBuffer creates a buffer with the default limits.
func NewTranscriptBuffer() *TranscriptBuffer {
	return NewTranscriptBufferWith(defaultMaxCalls, defaultTranscriptTTL)
}

// NewTranscriptBufferWith creates a buffer with explicit limits.
func NewTranscriptBufferWith(maxCalls int, ttl time.Duration) *TranscriptBuffer {
	if maxCalls <= 0 {
		maxCalls = defaultMaxCalls
	}
	if ttl <= 0 {
		ttl = defaultTranscriptTTL
	}
	return &TranscriptBuffer{
		calls:    make(map[string]*transcript),
		maxCalls: maxCalls,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Append records one exchange for the call.
func (b *TranscriptBuffer) Append(callSID, user, bot string) {
	if callSID == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictExpiredLocked()

	t, ok := b.calls[callSID]
	if !ok {
		if len(b.calls) >= b.maxCalls {
			b.evictOldestLocked()
		}
		t = &transcript{}
		b.calls[callSID] = t
	}
	if len(t.exchanges) < maxExchangesPerCall {
		t.exchanges = append(t.exchanges, Exchange{User: user, Bot: bot, Timestamp: b.now()})
	}
	t.updatedAt = b.now()
}

// Flush removes and returns the transcript for the call.
func (b *TranscriptBuffer) Flush(callSID string) ([]Exchange, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.calls[callSID]
	if !ok {
		return nil, false
	}
	delete(b.calls, callSID)
	return t.exchanges, true
}

// Len reports how many calls currently hold transcripts.
func (b *TranscriptBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *TranscriptBuffer) evictExpiredLocked() {
	cutoff := b.now().Add(-b.ttl)
	for sid, t := range b.calls {
		if t.updatedAt.Before(cutoff) {
			delete(b.calls, sid)
		}
	}
}

func (b *TranscriptBuffer) evictOldestLocked() {
	var oldestSID string
	var oldestAt time.Time
	first := true
	for sid, t := range b.calls {
		if first || t.updatedAt.Before(oldestAt) {
			oldestSID = sid
			oldestAt = t.updatedAt
			first = false
		}
	}
	if !first {
		delete(b.calls, oldestSID)
	}
}

// summarize renders a transcript into the plain-text block appended to the
// call log spreadsheet.
func summarize(exchanges []Exchange) string {
	var sb strings.Builder
	sb.WriteString("Call Summary:\n")
	for _, e := range exchanges {
		fmt.Fprintf(&sb, "User: %s\n", e.User)
		fmt.Fprintf(&sb, "Bot: %s\n", e.Bot)
		fmt.Fprintf(&sb, "Time: %s\n\n", e.Timestamp.Format(time.RFC3339))
	}
	return sb.String()
}

// Package coretest has test doubles for core interfaces.
package coretest

import (
	"sync"

	json "github.com/goccy/go-json"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
)

// Recorder is an in-memory SignalConnection that keeps every frame it
// accepts. Capacity > 0 makes it report backpressure once that many frames
// are held; Fail makes every send fail with that error.
type Recorder struct {
	mu       sync.Mutex
	frames   []core.Frame
	closed   bool
	Capacity int
	Fail     error
}

func (r *Recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrConnClosed
	}
	if r.Fail != nil {
		return r.Fail
	}
	if r.Capacity > 0 && len(r.frames) >= r.Capacity {
		return domain.ErrBackpressure
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Reset forgets recorded frames.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}

// Events decodes every recorded frame as a JSON object.
func (r *Recorder) Events() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]map[string]any, 0, len(r.frames))
	for _, f := range r.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			m = map[string]any{"type": "<undecodable>"}
		}
		out = append(out, m)
	}
	return out
}

// Types lists the type field of each recorded event, in order.
func (r *Recorder) Types() []string {
	evs := r.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i], _ = e["type"].(string)
	}
	return out
}

// Last returns the most recent event of type typ.
func (r *Recorder) Last(typ string) (map[string]any, bool) {
	evs := r.Events()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i]["type"] == typ {
			return evs[i], true
		}
	}
	return nil, false
}

// Count reports how many events of type typ were recorded.
func (r *Recorder) Count(typ string) int {
	n := 0
	for _, t := range r.Types() {
		if t == typ {
			n++
		}
	}
	return n
}

// Member is a bare MemberSession for registry and dispatcher tests.
type Member struct {
	SID  core.SessionID
	User domain.Identity
	Conn core.SignalConnection
}

func (m *Member) ID() core.SessionID                { return m.SID }
func (m *Member) Identity() (domain.Identity, bool) { return m.User, m.User.UserID != "" }
func (m *Member) Signal() core.SignalConnection     { return m.Conn }

// NewMember returns a member backed by a fresh Recorder.
func NewMember(sid string) (*Member, *Recorder) {
	rec := &Recorder{}
	return &Member{SID: core.SessionID(sid), User: domain.Identity{UserID: domain.UserID("u-" + sid), Username: sid}, Conn: rec}, rec
}

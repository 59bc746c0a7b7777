package app

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"github.com/rs/zerolog/log"
)

// room is the member set of one poll. dead is set under mu when the room is
// pruned; a joiner that finds a dead room looks it up again.
type room struct {
	mu      sync.RWMutex
	members map[core.SessionID]core.MemberSession
	dead    bool
}

// sessionEntry tracks which room a bound session is in.
type sessionEntry struct {
	mu      sync.Mutex
	session core.MemberSession
	poll    domain.PollID
	gone    bool
}

// Registry maps polls to the sessions subscribed to them. It is the single
// source of truth for who receives a poll's next broadcast.
//
// There is no lock spanning all polls: rooms and sessions live in sync.Maps
// and each carries its own mutex. Lock order is session entry, then room.
type Registry struct {
	rooms    sync.Map // domain.PollID -> *room
	sessions sync.Map // core.SessionID -> *sessionEntry

	roomCount    atomic.Int64
	sessionCount atomic.Int64
	memberCount  atomic.Int64
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Bind registers a live session. Binding an already bound id replaces the
// transport endpoint, in its room as well, and keeps the membership.
func (r *Registry) Bind(sess core.MemberSession) {
	for {
		prev, loaded := r.sessions.LoadOrStore(sess.ID(), &sessionEntry{session: sess})
		if !loaded {
			r.sessionCount.Add(1)
			log.Debug().Str("module", "app.registry").Str("sid", string(sess.ID())).Msg("bound session")
			return
		}
		pe := prev.(*sessionEntry)
		pe.mu.Lock()
		if pe.gone {
			pe.mu.Unlock()
			continue
		}
		pe.session = sess
		if pe.poll != "" {
			r.replaceMember(pe.poll, sess)
		}
		pe.mu.Unlock()
		log.Debug().Str("module", "app.registry").Str("sid", string(sess.ID())).Msg("rebound session")
		return
	}
}

// Unbind removes the session from its room and forgets it. It returns the
// poll the session was in, if any.
func (r *Registry) Unbind(sid core.SessionID) (domain.PollID, bool) {
	v, ok := r.sessions.LoadAndDelete(sid)
	if !ok {
		return "", false
	}
	r.sessionCount.Add(-1)
	e := v.(*sessionEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gone = true
	prev := e.poll
	if prev != "" {
		r.removeMember(prev, sid)
		e.poll = ""
	}
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
	return prev, prev != ""
}

func (r *Registry) Session(sid core.SessionID) (core.MemberSession, bool) {
	v, ok := r.sessions.Load(sid)
	if !ok {
		return nil, false
	}
	e := v.(*sessionEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, true
}

// Join subscribes sid to poll, leaving any other room first. It returns the
// room the session left, if it was a different one, and whether membership
// changed at all. Joining the current room again changes nothing.
func (r *Registry) Join(sid core.SessionID, poll domain.PollID) (prev domain.PollID, joined bool, err error) {
	v, ok := r.sessions.Load(sid)
	if !ok {
		return "", false, domain.ErrSessionClosed
	}
	e := v.(*sessionEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return "", false, domain.ErrSessionClosed
	}

	prev = e.poll
	if prev == poll {
		return "", false, nil
	}
	if prev != "" {
		r.removeMember(prev, sid)
	}
	r.addMember(poll, sid, e.session)
	e.poll = poll
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("poll", string(poll)).Str("from", string(prev)).Msg("joined room")
	return prev, true, nil
}

// Leave unsubscribes sid from poll. It is a no-op when sid is in another room.
func (r *Registry) Leave(sid core.SessionID, poll domain.PollID) bool {
	v, ok := r.sessions.Load(sid)
	if !ok {
		return false
	}
	e := v.(*sessionEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.poll != poll || poll == "" {
		return false
	}
	r.removeMember(poll, sid)
	e.poll = ""
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("poll", string(poll)).Msg("left room")
	return true
}

// LeaveAll unsubscribes sid from whatever room it is in.
func (r *Registry) LeaveAll(sid core.SessionID) (domain.PollID, bool) {
	v, ok := r.sessions.Load(sid)
	if !ok {
		return "", false
	}
	e := v.(*sessionEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.poll
	if prev == "" {
		return "", false
	}
	r.removeMember(prev, sid)
	e.poll = ""
	return prev, true
}

// RoomOf reports the poll sid is subscribed to.
func (r *Registry) RoomOf(sid core.SessionID) (domain.PollID, bool) {
	v, ok := r.sessions.Load(sid)
	if !ok {
		return "", false
	}
	e := v.(*sessionEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.poll, e.poll != ""
}

// MembersOf returns a snapshot of the sessions subscribed to poll.
func (r *Registry) MembersOf(poll domain.PollID) []core.MemberSession {
	v, ok := r.rooms.Load(poll)
	if !ok {
		return nil
	}
	rm := v.(*room)
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make([]core.MemberSession, 0, len(rm.members))
	for _, ms := range rm.members {
		out = append(out, ms)
	}
	return out
}

func (r *Registry) MemberCount(poll domain.PollID) int {
	v, ok := r.rooms.Load(poll)
	if !ok {
		return 0
	}
	rm := v.(*room)
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.members)
}

type RoomInfo struct {
	PollID      domain.PollID `json:"pollId"`
	MemberCount int           `json:"memberCount"`
}

// Rooms lists live rooms, largest first.
func (r *Registry) Rooms() []RoomInfo {
	var out []RoomInfo
	r.rooms.Range(func(k, v any) bool {
		rm := v.(*room)
		rm.mu.RLock()
		n := len(rm.members)
		dead := rm.dead
		rm.mu.RUnlock()
		if !dead && n > 0 {
			out = append(out, RoomInfo{PollID: k.(domain.PollID), MemberCount: n})
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].MemberCount != out[j].MemberCount {
			return out[i].MemberCount > out[j].MemberCount
		}
		return out[i].PollID < out[j].PollID
	})
	return out
}

// Stats is the liveness signal exposed to health checks.
type Stats struct {
	Rooms       int64 `json:"rooms"`
	Connections int64 `json:"connections"`
	Members     int64 `json:"members"`
}

func (r *Registry) Stats() Stats {
	return Stats{
		Rooms:       r.roomCount.Load(),
		Connections: r.sessionCount.Load(),
		Members:     r.memberCount.Load(),
	}
}

// Sessions returns every bound session, for shutdown.
func (r *Registry) Sessions() []core.MemberSession {
	var out []core.MemberSession
	r.sessions.Range(func(_, v any) bool {
		e := v.(*sessionEntry)
		e.mu.Lock()
		out = append(out, e.session)
		e.mu.Unlock()
		return true
	})
	return out
}

func (r *Registry) addMember(poll domain.PollID, sid core.SessionID, ms core.MemberSession) {
	for {
		v, loaded := r.rooms.LoadOrStore(poll, &room{members: make(map[core.SessionID]core.MemberSession)})
		if !loaded {
			r.roomCount.Add(1)
		}
		rm := v.(*room)
		rm.mu.Lock()
		if rm.dead {
			rm.mu.Unlock()
			continue
		}
		if _, exists := rm.members[sid]; !exists {
			r.memberCount.Add(1)
		}
		rm.members[sid] = ms
		rm.mu.Unlock()
		return
	}
}

func (r *Registry) replaceMember(poll domain.PollID, ms core.MemberSession) {
	v, ok := r.rooms.Load(poll)
	if !ok {
		return
	}
	rm := v.(*room)
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, exists := rm.members[ms.ID()]; exists {
		rm.members[ms.ID()] = ms
	}
}

// removeMember prunes the room when its last member leaves.
func (r *Registry) removeMember(poll domain.PollID, sid core.SessionID) {
	v, ok := r.rooms.Load(poll)
	if !ok {
		return
	}
	rm := v.(*room)
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, exists := rm.members[sid]; !exists {
		return
	}
	delete(rm.members, sid)
	r.memberCount.Add(-1)
	if len(rm.members) == 0 {
		rm.dead = true
		r.rooms.CompareAndDelete(poll, rm)
		r.roomCount.Add(-1)
		log.Debug().Str("module", "app.registry").Str("poll", string(poll)).Msg("pruned empty room")
	}
}

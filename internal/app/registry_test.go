package app

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/livepoll/internal/core/coretest"
	"github.com/dkeye/livepoll/internal/domain"
)

func TestRegistryRoomSwitch(t *testing.T) {
	r := NewRegistry()
	m, _ := coretest.NewMember("s1")
	r.Bind(m)

	if prev, joined, err := r.Join("s1", "poll-7"); err != nil || prev != "" || !joined {
		t.Fatalf("join 7: prev=%q joined=%v err=%v", prev, joined, err)
	}
	prev, joined, err := r.Join("s1", "poll-9")
	if err != nil || !joined {
		t.Fatalf("join 9: joined=%v err=%v", joined, err)
	}
	if prev != "poll-7" {
		t.Fatalf("expected to leave poll-7, got %q", prev)
	}
	if n := len(r.MembersOf("poll-7")); n != 0 {
		t.Fatalf("expected poll-7 to be empty, got %d members", n)
	}
	if n := r.MemberCount("poll-9"); n != 1 {
		t.Fatalf("expected 1 member in poll-9, got %d", n)
	}
	if poll, ok := r.RoomOf("s1"); !ok || poll != "poll-9" {
		t.Fatalf("expected room poll-9, got %q", poll)
	}
	if s := r.Stats(); s.Rooms != 1 || s.Members != 1 || s.Connections != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestRegistryJoinSameRoomIsNoop(t *testing.T) {
	r := NewRegistry()
	m, _ := coretest.NewMember("s1")
	r.Bind(m)
	_, _, _ = r.Join("s1", "p1")
	if prev, joined, err := r.Join("s1", "p1"); err != nil || prev != "" || joined {
		t.Fatalf("expected no-op rejoin, got prev=%q joined=%v err=%v", prev, joined, err)
	}
	if n := r.MemberCount("p1"); n != 1 {
		t.Fatalf("expected 1 member, got %d", n)
	}
}

func TestRegistryPrunesEmptyRooms(t *testing.T) {
	r := NewRegistry()
	a, _ := coretest.NewMember("a")
	b, _ := coretest.NewMember("b")
	r.Bind(a)
	r.Bind(b)
	_, _, _ = r.Join("a", "p1")
	_, _, _ = r.Join("b", "p1")

	if !r.Leave("a", "p1") {
		t.Fatal("expected a to leave p1")
	}
	if r.Leave("a", "p1") {
		t.Fatal("expected second leave to be a no-op")
	}
	if len(r.Rooms()) != 1 {
		t.Fatalf("expected room to survive with one member, got %v", r.Rooms())
	}
	if poll, ok := r.Unbind("b"); !ok || poll != "p1" {
		t.Fatalf("expected unbind to report p1, got %q", poll)
	}
	if len(r.Rooms()) != 0 {
		t.Fatalf("expected empty room to be pruned, got %v", r.Rooms())
	}
	if s := r.Stats(); s.Rooms != 0 || s.Members != 0 || s.Connections != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestRegistryUnboundSession(t *testing.T) {
	r := NewRegistry()
	if _, _, err := r.Join("ghost", "p1"); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected session_closed, got %v", err)
	}
	m, _ := coretest.NewMember("s1")
	r.Bind(m)
	r.Unbind("s1")
	if _, _, err := r.Join("s1", "p1"); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected session_closed after unbind, got %v", err)
	}
}

func TestRegistryRebindReplacesRoomEndpoint(t *testing.T) {
	r := NewRegistry()
	old, _ := coretest.NewMember("s1")
	r.Bind(old)
	_, _, _ = r.Join("s1", "p1")

	fresh, _ := coretest.NewMember("s1")
	r.Bind(fresh)

	members := r.MembersOf("p1")
	if len(members) != 1 || members[0] != fresh {
		t.Fatalf("expected the room to hold the new endpoint, got %v", members)
	}
	if got, _ := r.Session("s1"); got != fresh {
		t.Fatal("expected the session lookup to return the new endpoint")
	}
	if poll, ok := r.RoomOf("s1"); !ok || poll != "p1" {
		t.Fatalf("expected membership to survive rebind, got %q", poll)
	}
	if s := r.Stats(); s.Connections != 1 || s.Members != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestRegistryRoomsOrderedBySize(t *testing.T) {
	r := NewRegistry()
	for i, poll := range []domain.PollID{"small", "big", "big", "big", "mid", "mid"} {
		m, _ := coretest.NewMember(fmt.Sprintf("s%d", i))
		r.Bind(m)
		_, _, _ = r.Join(m.SID, poll)
	}
	rooms := r.Rooms()
	want := []domain.PollID{"big", "mid", "small"}
	if len(rooms) != len(want) {
		t.Fatalf("expected %d rooms, got %v", len(want), rooms)
	}
	for i, p := range want {
		if rooms[i].PollID != p {
			t.Fatalf("room %d: expected %s, got %s", i, p, rooms[i].PollID)
		}
	}
}

func TestRegistryConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()
	polls := []domain.PollID{"p1", "p2", "p3"}
	const sessions = 40
	const rounds = 50

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		m, _ := coretest.NewMember(fmt.Sprintf("s%d", i))
		r.Bind(m)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				poll := polls[(i+j)%len(polls)]
				if _, _, err := r.Join(m.SID, poll); err != nil {
					t.Errorf("join: %v", err)
					return
				}
				if j%3 == 0 {
					r.Leave(m.SID, poll)
				}
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for _, p := range polls {
		total += r.MemberCount(p)
	}
	in := 0
	for i := 0; i < sessions; i++ {
		if _, ok := r.RoomOf(domainSID(i)); ok {
			in++
		}
	}
	if total != in {
		t.Fatalf("rooms hold %d members but %d sessions report a room", total, in)
	}
	if s := r.Stats(); int(s.Members) != total {
		t.Fatalf("member counter %d drifted from %d", s.Members, total)
	}

	for i := 0; i < sessions; i++ {
		r.Unbind(domainSID(i))
	}
	if s := r.Stats(); s.Rooms != 0 || s.Members != 0 || s.Connections != 0 {
		t.Fatalf("expected empty registry, got %+v", s)
	}
}

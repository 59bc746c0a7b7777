package app

import (
	"testing"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/core/coretest"
	"github.com/dkeye/livepoll/internal/domain"
)

func tallyFor(poll domain.PollID) domain.Tally {
	return domain.Tally{
		PollID:         poll,
		Options:        []domain.OptionCount{{ID: "o1", Text: "one", Count: 1}},
		TotalVotes:     1,
		CallerOptionID: "o1",
	}
}

func TestDispatcherRoomIsolation(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r, SimplePolicy{})

	a, recA := coretest.NewMember("a")
	b, recB := coretest.NewMember("b")
	c, recC := coretest.NewMember("c")
	for _, m := range []*coretest.Member{a, b, c} {
		r.Bind(m)
	}
	_, _, _ = r.Join("a", "p1")
	_, _, _ = r.Join("b", "p1")
	_, _, _ = r.Join("c", "p2")

	res := d.BroadcastTally(tallyFor("p1"))
	if res.SentTo != 2 || len(res.Dropped) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if recA.Count(core.EventTally) != 1 || recB.Count(core.EventTally) != 1 {
		t.Fatal("expected both p1 members to get the tally")
	}
	if recC.Count(core.EventTally) != 0 {
		t.Fatal("expected p2 member to get nothing")
	}
	ev, _ := recA.Last(core.EventTally)
	if _, leaked := ev["callerVoteOptionId"]; leaked {
		t.Fatal("expected broadcast tally to omit the caller's choice")
	}
	if ev["pollId"] != "p1" || ev["totalVotes"] != float64(1) {
		t.Fatalf("unexpected tally event %v", ev)
	}
}

func TestDispatcherSkipsFailingMember(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r, SimplePolicy{})

	ok1, rec1 := coretest.NewMember("ok1")
	bad, recBad := coretest.NewMember("bad")
	ok2, rec2 := coretest.NewMember("ok2")
	recBad.Fail = domain.ErrConnClosed
	for _, m := range []*coretest.Member{ok1, bad, ok2} {
		r.Bind(m)
		_, _, _ = r.Join(m.SID, "p1")
	}

	res := d.BroadcastTally(tallyFor("p1"))
	if res.SentTo != 2 || len(res.Dropped) != 1 || res.Dropped[0].ID() != "bad" {
		t.Fatalf("unexpected result %+v", res)
	}
	if rec1.Count(core.EventTally) != 1 || rec2.Count(core.EventTally) != 1 {
		t.Fatal("expected healthy members to be served")
	}
	if recBad.Closed() {
		t.Fatal("expected closed connections to be left to their own teardown")
	}
}

func TestDispatcherKicksSlowMember(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r, SimplePolicy{})

	slow, rec := coretest.NewMember("slow")
	rec.Capacity = 1
	r.Bind(slow)
	_, _, _ = r.Join("slow", "p1")

	d.BroadcastTally(tallyFor("p1"))
	if rec.Closed() {
		t.Fatal("expected first frame to fit")
	}
	res := d.BroadcastTally(tallyFor("p1"))
	if len(res.Dropped) != 1 {
		t.Fatalf("expected slow member to be dropped, got %+v", res)
	}
	if !rec.Closed() {
		t.Fatal("expected slow member to be kicked")
	}
}

func TestDispatcherPresenceSkipsSender(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r, nil)

	a, recA := coretest.NewMember("a")
	b, recB := coretest.NewMember("b")
	r.Bind(a)
	r.Bind(b)
	_, _, _ = r.Join("a", "p1")
	_, _, _ = r.Join("b", "p1")

	d.Presence(core.EventMemberJoined, "p1", "a", a.User)
	if recA.Count(core.EventMemberJoined) != 0 {
		t.Fatal("expected sender to be skipped")
	}
	ev, ok := recB.Last(core.EventMemberJoined)
	if !ok || ev["userId"] != string(a.User.UserID) {
		t.Fatalf("expected b to see a join, got %v", ev)
	}
}

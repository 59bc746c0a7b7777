package app

import (
	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"github.com/rs/zerolog/log"
)

// PublishResult reports delivery stats of one fan-out.
type PublishResult struct {
	SentTo  int
	Dropped []core.MemberSession
}

// Dispatcher pushes events to the members of a poll room. Delivery is best
// effort and at most once per member per call; a failing member never blocks
// the others.
type Dispatcher struct {
	rooms  *Registry
	policy Policy
}

func NewDispatcher(rooms *Registry, policy Policy) *Dispatcher {
	return &Dispatcher{rooms: rooms, policy: policy}
}

// BroadcastTally sends the shared snapshot to every member of the poll's room.
func (d *Dispatcher) BroadcastTally(t domain.Tally) PublishResult {
	frame, err := core.Encode(core.NewTallyEvent(t.Public()))
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Str("poll", string(t.PollID)).Msg("encode tally")
		return PublishResult{}
	}
	return d.publish(t.PollID, "", frame)
}

// Presence tells the other members of poll that id joined or left.
func (d *Dispatcher) Presence(typ string, poll domain.PollID, except core.SessionID, id domain.Identity) PublishResult {
	frame, err := core.Encode(core.NewPresenceEvent(typ, poll, id))
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Msg("encode presence")
		return PublishResult{}
	}
	return d.publish(poll, except, frame)
}

// Send delivers one event to one session.
func (d *Dispatcher) Send(ms core.MemberSession, v any) error {
	frame, err := core.Encode(v)
	if err != nil {
		return err
	}
	if err := ms.Signal().TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.dispatcher").Str("sid", string(ms.ID())).Msg("reply dropped")
		return err
	}
	return nil
}

func (d *Dispatcher) publish(poll domain.PollID, except core.SessionID, frame core.Frame) PublishResult {
	res := PublishResult{}
	for _, m := range d.rooms.MembersOf(poll) {
		if m.ID() == except {
			continue
		}
		if err := m.Signal().TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.dispatcher").Str("poll", string(poll)).Str("sid", string(m.ID())).Msg("send failed, skipping member")
			res.Dropped = append(res.Dropped, m)
			d.onDropped(poll, m, err)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "app.dispatcher").Str("poll", string(poll)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (d *Dispatcher) onDropped(poll domain.PollID, m core.MemberSession, err error) {
	if d.policy == nil {
		return
	}
	switch d.policy.OnBackPressure(poll, m, err) {
	case KickMember:
		log.Info().Str("module", "app.dispatcher").Str("poll", string(poll)).Str("sid", string(m.ID())).Msg("kicking slow member")
		m.Signal().Close()
	case NoAction:
	}
}

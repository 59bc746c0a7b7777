package core

import "github.com/dkeye/livepoll/internal/domain"

// BuildTally turns raw per-option counts into a snapshot. Options keep the
// poll's defined order whatever the counts are; counts for unknown options
// are ignored so the total never drifts from the listed rows.
func BuildTally(p *domain.Poll, counts map[domain.OptionID]int, caller domain.OptionID) domain.Tally {
	opts := make([]domain.Option, len(p.Options))
	copy(opts, p.Options)
	domain.SortOptions(opts)

	t := domain.Tally{
		PollID:         p.ID,
		Options:        make([]domain.OptionCount, 0, len(opts)),
		CallerOptionID: caller,
	}
	for _, o := range opts {
		n := counts[o.ID]
		t.Options = append(t.Options, domain.OptionCount{
			ID:    o.ID,
			Text:  o.Text,
			Order: o.Order,
			Count: n,
		})
		t.TotalVotes += n
	}
	return t
}

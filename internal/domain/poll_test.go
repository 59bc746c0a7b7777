package domain

import (
	"errors"
	"strings"
	"testing"
)

func intp(v int) *int { return &v }

func TestNewPollOrders(t *testing.T) {
	p, err := NewPoll("u1", "  Lunch?  ", []OptionDraft{
		{Text: "Pizza", Order: intp(2)},
		{Text: "Sushi", Order: intp(0)},
		{Text: "Tacos", Order: intp(1)},
	}, true)
	if err != nil {
		t.Fatalf("new poll: %v", err)
	}
	if p.Question != "Lunch?" {
		t.Fatalf("expected trimmed question, got %q", p.Question)
	}
	want := []string{"Sushi", "Tacos", "Pizza"}
	for i, text := range want {
		if p.Options[i].Text != text {
			t.Fatalf("option %d: expected %s, got %s", i, text, p.Options[i].Text)
		}
		if p.Options[i].PollID != p.ID {
			t.Fatalf("option %d not attached to poll", i)
		}
	}
	if _, ok := p.Option(p.Options[1].ID); !ok {
		t.Fatal("expected to find option by id")
	}
	if _, ok := p.Option("missing"); ok {
		t.Fatal("expected missing option lookup to fail")
	}
}

func TestNewPollPositionalOrder(t *testing.T) {
	p, err := NewPoll("u1", "Q", []OptionDraft{{Text: "a"}, {Text: "b"}}, false)
	if err != nil {
		t.Fatalf("new poll: %v", err)
	}
	if p.Options[0].Order != 0 || p.Options[1].Order != 1 {
		t.Fatalf("expected positional orders 0,1, got %d,%d", p.Options[0].Order, p.Options[1].Order)
	}
}

func TestNewPollRejects(t *testing.T) {
	many := make([]OptionDraft, MaxPollOptions+1)
	for i := range many {
		many[i] = OptionDraft{Text: "x"}
	}
	cases := []struct {
		name     string
		question string
		drafts   []OptionDraft
	}{
		{"empty question", "   ", []OptionDraft{{Text: "a"}, {Text: "b"}}},
		{"long question", strings.Repeat("q", MaxQuestionLen+1), []OptionDraft{{Text: "a"}, {Text: "b"}}},
		{"one option", "Q", []OptionDraft{{Text: "a"}}},
		{"too many options", "Q", many},
		{"blank option", "Q", []OptionDraft{{Text: "a"}, {Text: " "}}},
		{"long option", "Q", []OptionDraft{{Text: "a"}, {Text: strings.Repeat("o", MaxOptionTextLen+1)}}},
		{"duplicate order", "Q", []OptionDraft{{Text: "a", Order: intp(1)}, {Text: "b", Order: intp(1)}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPoll("u1", tc.question, tc.drafts, true)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected bad_payload, got %v", err)
			}
		})
	}
}

func TestLengthLimitsCountCharacters(t *testing.T) {
	question := strings.Repeat("投", MaxQuestionLen)
	option := strings.Repeat("票", MaxOptionTextLen)
	if _, err := NewPoll("u1", question, []OptionDraft{{Text: option}, {Text: "b"}}, true); err != nil {
		t.Fatalf("expected multibyte text at the limit to pass, got %v", err)
	}
	if err := ValidateQuestion(question + "投"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected one character over the limit to fail, got %v", err)
	}
	if err := ValidateUsername(strings.Repeat("ü", MaxUsernameLen)); err != nil {
		t.Fatalf("expected %d-character username to pass, got %v", MaxUsernameLen, err)
	}
}

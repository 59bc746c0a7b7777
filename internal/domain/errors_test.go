package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("cast: %w", ErrRateLimited)
	if KindOf(wrapped) != KindPolicy {
		t.Fatalf("expected policy kind, got %s", KindOf(wrapped))
	}
	if CodeOf(wrapped) != "rate_limited" {
		t.Fatalf("expected rate_limited, got %s", CodeOf(wrapped))
	}

	plain := errors.New("disk on fire")
	if KindOf(plain) != KindInternal || CodeOf(plain) != "internal" {
		t.Fatalf("expected internal classification, got %s/%s", KindOf(plain), CodeOf(plain))
	}
	if MessageOf(plain) != "internal error" {
		t.Fatalf("expected internal text to be hidden, got %q", MessageOf(plain))
	}
}

func TestInvalidMatchesSentinel(t *testing.T) {
	err := Invalid("pollId %s", "missing")
	if !errors.Is(err, ErrInvalid) {
		t.Fatal("expected Invalid to match ErrInvalid")
	}
	if errors.Is(err, ErrOptionNotInPoll) {
		t.Fatal("expected codes to discriminate")
	}
	if MessageOf(err) != "pollId missing" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}
}

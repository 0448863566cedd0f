package catalog

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapKeepsExistingCode(t *testing.T) {
	inner := NotFoundError("album.resolve", "", "album vanished after insert")
	wrapped := Wrap(CodePersistence, "ingest", "Song1", fmt.Errorf("step: %w", inner))

	if got := CodeOf(wrapped); got != CodeNotFound {
		t.Fatalf("code: want=%q got=%q", CodeNotFound, got)
	}
	var e *Error
	if !errors.As(wrapped, &e) || e.Subject != "Song1" {
		t.Fatalf("subject: want=%q got=%+v", "Song1", e)
	}
}

func TestWrapPlainError(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodePersistence, "ingest.insert_track", "Song1", cause)
	if !IsCode(err, CodePersistence) {
		t.Fatalf("code: want=%q got=%q", CodePersistence, CodeOf(err))
	}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is: cause not reachable")
	}
	msg := err.Error()
	for _, part := range []string{"ingest.insert_track", `"Song1"`, "disk full", "(persistence)"} {
		if !strings.Contains(msg, part) {
			t.Fatalf("message %q missing %q", msg, part)
		}
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(CodePersistence, "op", "x", nil) != nil {
		t.Fatalf("Wrap(nil): want nil")
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(ConfigurationError("config.load", "DATABASE_URL is required")) {
		t.Fatalf("configuration error should be fatal")
	}
	if IsFatal(NewError(CodeUpstreamFetch, "feed", "", "502", nil)) {
		t.Fatalf("upstream error should not be fatal")
	}
	if IsFatal(errors.New("plain")) {
		t.Fatalf("plain error should not be fatal")
	}
}

package sched

import (
	"context"
	"io"
	"testing"
	"time"

	appLog "riverside/internal/log"
)

func init() {
	appLog.SetOutput(io.Discard)
}

func TestValidate(t *testing.T) {
	for _, spec := range []string{"*/15 * * * *", "0 6 * * 1-5", "@hourly"} {
		if err := Validate(spec); err != nil {
			t.Errorf("Validate(%q): %v", spec, err)
		}
	}
	for _, spec := range []string{"", "* * *", "61 * * * *"} {
		if err := Validate(spec); err == nil {
			t.Errorf("Validate(%q) accepted", spec)
		}
	}
}

func TestAddAndNext(t *testing.T) {
	s := New(time.UTC)
	if err := s.Add("refresh", "*/15 * * * *", func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("bad", "nope", func(context.Context) error { return nil }); err == nil {
		t.Error("bad spec accepted")
	}

	s.Start()
	defer s.Stop(context.Background())

	next := s.Next()
	at, ok := next["refresh"]
	if !ok {
		t.Fatalf("next = %v", next)
	}
	if at.Minute()%15 != 0 || !at.After(time.Now().Add(-time.Second)) {
		t.Errorf("next refresh = %v", at)
	}
	if _, ok := next["bad"]; ok {
		t.Error("bad job registered")
	}
}

func TestStopCancelsJobContext(t *testing.T) {
	s := New(time.UTC)
	s.Start()
	s.Stop(context.Background())
	if s.ctx.Err() == nil {
		t.Error("job context not cancelled after Stop")
	}
}

package channel

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFuture_ThenAfterCompleteRunsSynchronously(t *testing.T) {
	f := Resolved(42)

	got := 0
	f.Then(func(v int) { got = v }, nil)

	if got != 42 {
		t.Fatalf("expected callback to run inline with 42, got %d", got)
	}
}

func TestFuture_ThenBeforeCompleteRunsOnCompletion(t *testing.T) {
	f := NewFuture[string]()

	got := ""
	f.Then(func(v string) { got = v }, nil)
	if got != "" {
		t.Fatal("callback ran before completion")
	}

	f.Complete("ok", nil)
	<-f.Done()
	if got != "ok" {
		t.Fatalf("expected ok, got %q", got)
	}
}

func TestFuture_FailureCallback(t *testing.T) {
	boom := errors.New("boom")
	f := Failed[DataPoint](boom)

	var gotErr error
	successCalled := false
	f.Then(func(DataPoint) { successCalled = true }, func(err error) { gotErr = err })

	if successCalled {
		t.Error("success callback should not run")
	}
	if !errors.Is(gotErr, boom) {
		t.Fatalf("expected boom, got %v", gotErr)
	}
}

func TestFuture_FirstCompleteWins(t *testing.T) {
	f := NewFuture[int]()
	if !f.Complete(1, nil) {
		t.Fatal("first Complete should settle the future")
	}
	if f.Complete(2, nil) {
		t.Fatal("second Complete should be ignored")
	}
	v, err := f.Await(context.Background())
	if err != nil || v != 1 {
		t.Fatalf("expected 1, got %d (%v)", v, err)
	}
}

func TestFuture_AwaitContextCancelled(t *testing.T) {
	f := NewFuture[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestGo(t *testing.T) {
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		return 7, nil
	})
	v, err := f.Await(context.Background())
	if err != nil || v != 7 {
		t.Fatalf("expected 7, got %d (%v)", v, err)
	}
}

func TestDescriptorsOrderAndLookup(t *testing.T) {
	want := []ID{Steps, Distance, Calories, MoveMinutes, HeartPoints}
	got := Descriptors()
	if len(got) != len(want) {
		t.Fatalf("expected %d descriptors, got %d", len(want), len(got))
	}
	for i, d := range got {
		if d.ID != want[i] {
			t.Errorf("descriptor %d: expected %s, got %s", i, want[i], d.ID)
		}
		if _, ok := Lookup(d.ID); !ok {
			t.Errorf("lookup %s failed", d.ID)
		}
	}
	if _, ok := Lookup("sleep"); ok {
		t.Error("unexpected descriptor for sleep")
	}
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	// 03:30 UTC is 22:30 the previous day in EST.
	at := time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC)

	got := StartOfDay(at, loc)
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

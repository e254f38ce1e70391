package action

import (
	"context"
	"errors"
	"testing"
)

type countingHandler struct {
	calls int
}

func (h *countingHandler) Run(_ context.Context) { h.calls++ }

func newTestResumer() (*Resumer, *countingHandler, *countingHandler) {
	sub := &countingHandler{}
	read := &countingHandler{}
	return NewResumer(sub, read, nil), sub, read
}

func TestDispatch_Subscribe(t *testing.T) {
	r, sub, read := newTestResumer()

	if err := r.Dispatch(context.Background(), Subscribe); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.calls != 1 {
		t.Errorf("expected 1 subscribe call, got %d", sub.calls)
	}
	if read.calls != 0 {
		t.Errorf("expected 0 read calls, got %d", read.calls)
	}
}

func TestDispatch_ReadReport(t *testing.T) {
	r, sub, read := newTestResumer()

	if err := r.Dispatch(context.Background(), ReadReport); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if read.calls != 1 {
		t.Errorf("expected 1 read call, got %d", read.calls)
	}
	if sub.calls != 0 {
		t.Errorf("expected 0 subscribe calls, got %d", sub.calls)
	}
}

func TestDispatch_UnknownToken(t *testing.T) {
	r, sub, read := newTestResumer()

	err := r.Dispatch(context.Background(), Token("sign_out"))
	if !errors.Is(err, ErrUnrecognizedCorrelationID) {
		t.Fatalf("expected ErrUnrecognizedCorrelationID, got %v", err)
	}
	if sub.calls+read.calls != 0 {
		t.Error("no handler should run for an unknown token")
	}
}

func TestRequestCodesAreStable(t *testing.T) {
	cases := map[Token]RequestCode{Subscribe: 0, ReadReport: 1}
	for tok, want := range cases {
		got, err := tok.RequestCode()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tok, err)
		}
		if got != want {
			t.Errorf("%s: expected code %d, got %d", tok, want, got)
		}
	}
}

func TestTokenValid(t *testing.T) {
	for _, tok := range Tokens() {
		if !tok.Valid() {
			t.Errorf("expected %s to be valid", tok)
		}
	}
	if Token("").Valid() {
		t.Error("empty token should not be valid")
	}
	if _, err := Token("").RequestCode(); !errors.Is(err, ErrUnrecognizedCorrelationID) {
		t.Errorf("expected ErrUnrecognizedCorrelationID, got %v", err)
	}
}

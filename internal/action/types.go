package action

import (
	"errors"
	"fmt"
	"time"
)

// #region token

// Token identifies a deferred action that runs once every gate has passed.
type Token string

const (
	Subscribe  Token = "subscribe"
	ReadReport Token = "read_report"
)

// #endregion

// #region request-code

// RequestCode is the integer correlation id handed to the platform and
// returned with its callback.
type RequestCode int

// The two tables below are the only place tokens and request codes meet.
// Codes are part of the host contract and must not be renumbered.
var tokenToCode = map[Token]RequestCode{
	Subscribe:  0,
	ReadReport: 1,
}

var codeToToken = map[RequestCode]Token{
	0: Subscribe,
	1: ReadReport,
}

// ErrUnrecognizedCorrelationID is returned when a request code or token
// falls outside the closed set of deferred actions.
var ErrUnrecognizedCorrelationID = errors.New("unrecognized correlation id")

// Tokens returns every defined token in request-code order.
func Tokens() []Token {
	return []Token{Subscribe, ReadReport}
}

// Valid reports whether t is a defined token.
func (t Token) Valid() bool {
	_, ok := tokenToCode[t]
	return ok
}

// RequestCode encodes t for a platform round trip.
func (t Token) RequestCode() (RequestCode, error) {
	code, ok := tokenToCode[t]
	if !ok {
		return 0, fmt.Errorf("encode token %q: %w", string(t), ErrUnrecognizedCorrelationID)
	}
	return code, nil
}

// FromRequestCode decodes a request code delivered by a platform callback.
func FromRequestCode(code int) (Token, error) {
	t, ok := codeToToken[RequestCode(code)]
	if !ok {
		return "", fmt.Errorf("decode request code %d: %w", code, ErrUnrecognizedCorrelationID)
	}
	return t, nil
}

// #endregion

// #region continuation

// GateKind names the gate a continuation is suspended on.
type GateKind string

const (
	GatePermission    GateKind = "permission"
	GateAuthorization GateKind = "authorization"
)

// Continuation is a suspended action waiting for one platform callback.
type Continuation struct {
	ID       string      `cbor:"id"`
	Gate     GateKind    `cbor:"gate"`
	Token    Token       `cbor:"token"`
	Code     RequestCode `cbor:"code"`
	IssuedAt time.Time   `cbor:"-"`
}

// #endregion

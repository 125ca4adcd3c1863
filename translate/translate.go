// Package translate defines the translation capability and its three
// provider adapters. Retry policy lives above this interface, in the
// pipeline; adapters make exactly one call and map provider-specific
// failures onto the transient/permanent taxonomy.
package translate

import (
	"context"
	"errors"
	"fmt"
)

// Request describes one translation call. SourceLang is an ISO 639-1 code,
// already resolved by the caller ("auto" never reaches a provider).
type Request struct {
	Text         string
	SourceLang   string
	TargetLang   string
	SystemPrompt string
}

// Provider translates text between languages.
type Provider interface {
	ID() string
	Translate(ctx context.Context, req Request) (string, error)
}

type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindPermanent
)

func (k ErrorKind) String() string {
	if k == KindTransient {
		return "transient"
	}
	return "permanent"
}

type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("translate %s (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("translate %s (%s)", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func Transient(op string, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

func Permanent(op string, err error) *Error {
	return &Error{Kind: KindPermanent, Op: op, Err: err}
}

// IsTransient reports whether err is a translation error worth retrying.
func IsTransient(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == KindTransient
}

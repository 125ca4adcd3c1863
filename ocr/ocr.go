// Package ocr defines the text-extraction capability the pipeline is written
// against, with two engines: an LLM-vision client and a local Tesseract
// wrapper.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Outcome is the result of one extraction attempt.
type Outcome struct {
	Text       string
	Confidence float64 // in [0,1]
	Engine     string  // engine ID that produced the text
	FellBack   bool    // set by the pipeline when the secondary engine ran
}

// Engine extracts text from a raster image. Implementations perform their
// own encoding/downscaling; the caller only hands over pixels.
type Engine interface {
	ID() string
	Extract(ctx context.Context, img *image.RGBA, languages []string) (Outcome, error)
}

// ErrorKind separates failures worth retrying from terminal ones.
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

// Error is the only error type engines surface to the pipeline.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocr %s (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("ocr %s (%s)", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func Transient(op string, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

func Permanent(op string, err error) *Error {
	return &Error{Kind: KindPermanent, Op: op, Err: err}
}

// IsTransient reports whether err is an OCR error worth a fallback attempt.
func IsTransient(err error) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.Kind == KindTransient
}

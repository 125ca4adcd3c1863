// Package pipeline contains the capture -> OCR -> translate orchestration
// worker. A Worker executes one run on its own goroutine, touches no
// interactive state, and reports exactly one terminal Result through the
// dispatch queue it was given.
package pipeline

import (
	"whisperbridge/capture"
	"whisperbridge/config"
	"whisperbridge/ocr"
)

// Stage identifies where in the pipeline a run failed.
type Stage int

const (
	StageCapture Stage = iota
	StageOCR
	StageTranslate
)

func (s Stage) String() string {
	switch s {
	case StageCapture:
		return "capture"
	case StageOCR:
		return "ocr"
	case StageTranslate:
		return "translate"
	}
	return "unknown"
}

// Kind tags the terminal outcome of one run.
type Kind int

const (
	ResultSuccess Kind = iota
	ResultOcrEmpty
	ResultCancelled
	ResultFailed
)

func (k Kind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultOcrEmpty:
		return "ocr_empty"
	case ResultCancelled:
		return "cancelled"
	case ResultFailed:
		return "failed"
	}
	return "unknown"
}

// Request is a Worker's input. Settings is an isolated snapshot taken at
// dispatch time; concurrent settings edits cannot reach an in-flight run.
type Request struct {
	RunID    uint64
	Region   capture.Region
	Settings config.Snapshot
}

// TranslationOutcome is immutable once produced.
type TranslationOutcome struct {
	TranslatedText string
	SourceLang     string
	TargetLang     string
	Provider       string
}

// Result is the sole payload crossing back to the UI-owning goroutine.
// Exactly one is produced per run.
type Result struct {
	RunID       uint64
	Kind        Kind
	OCR         ocr.Outcome        // set on Success
	Translation TranslationOutcome // set on Success when translation ran
	FailedStage Stage              // set on Failed
	Err         error              // set on Failed
}

// state is the worker's explicit position in the run.
type state int

const (
	stateIdle state = iota
	stateCapturing
	stateExtracting
	stateExtractingFallback
	stateTranslating
	stateDone
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateCapturing:
		return "capturing"
	case stateExtracting:
		return "extracting_text"
	case stateExtractingFallback:
		return "extracting_text_fallback"
	case stateTranslating:
		return "translating"
	case stateDone:
		return "done"
	}
	return "unknown"
}

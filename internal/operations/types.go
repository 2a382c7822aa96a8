package operations

import (
	"context"
	"fmt"
	"time"

	apperrors "clcconvert/internal/errors"
)

// Stage identifies one step of a file conversion
type Stage string

const (
	StageValidate   Stage = "validate"
	StageLoad       Stage = "load"
	StageNormalize  Stage = "normalize"
	StageTimestamps Stage = "timestamps"
	StageCoerce     Stage = "coerce"
	StageAssemble   Stage = "assemble"
	StageWrite      Stage = "write"
)

// Status is the outcome of one file
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Result reports the conversion of one input file
type Result struct {
	Input      string              `json:"input"`
	Output     string              `json:"output,omitempty"`
	ErrorsFile string              `json:"errors_file,omitempty"`
	Status     Status              `json:"status"`
	Kind       apperrors.ErrorType `json:"kind,omitempty"`
	Stage      Stage               `json:"stage,omitempty"`
	Message    string              `json:"message,omitempty"`
	Warnings   []string            `json:"warnings,omitempty"`
	Tags       int                 `json:"tags"`
	Samples    int                 `json:"samples"`
	BadSamples int                 `json:"bad_samples"`
	DurationMS int64               `json:"duration_ms"`
}

// OK reports whether the file converted
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Notice is the one-line message shown to the user for this file
func (r Result) Notice() string {
	if r.OK() {
		return fmt.Sprintf("%s conversion complete", r.Input)
	}
	return fmt.Sprintf("%s conversion failed: %s", r.Input, r.Message)
}

// BatchReport collects per-file results in input order
type BatchReport struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	Results    []Result  `json:"results"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	DurationMS int64     `json:"duration_ms"`
}

func (b *BatchReport) add(r Result) {
	b.Results = append(b.Results, r)
	if r.OK() {
		b.Succeeded++
	} else {
		b.Failed++
	}
}

// Successes returns the converted files in input order
func (b *BatchReport) Successes() []Result {
	return b.filter(true)
}

// Failures returns the failed files in input order
func (b *BatchReport) Failures() []Result {
	return b.filter(false)
}

func (b *BatchReport) filter(ok bool) []Result {
	var out []Result
	for _, r := range b.Results {
		if r.OK() == ok {
			out = append(out, r)
		}
	}
	return out
}

// Notifier receives batch progress as it happens. Implementations must not
// block; the batch waits for each call.
type Notifier interface {
	BatchStarted(ctx context.Context, batchID string, files int)
	FileConverted(ctx context.Context, batchID string, position int, res Result)
	BatchCompleted(ctx context.Context, report *BatchReport)
}

type nopNotifier struct{}

func (nopNotifier) BatchStarted(context.Context, string, int)          {}
func (nopNotifier) FileConverted(context.Context, string, int, Result) {}
func (nopNotifier) BatchCompleted(context.Context, *BatchReport)       {}

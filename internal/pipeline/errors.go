package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptySample is returned when a player-game has no rounds to pad.
	ErrEmptySample = errors.New("sample has no rounds")
	// ErrRaggedFeatures is returned when rows of one sample disagree on feature count.
	ErrRaggedFeatures = errors.New("ragged feature rows")
)

// DataError reports input that cannot be processed at all: missing columns or
// unusable values. It aborts the run before any work is done.
type DataError struct {
	Missing []string // required columns absent from the input
	Column  string   // column holding a bad value
	Row     int      // 1-based data row of the bad value
	Reason  string
}

func (e *DataError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("data error: missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	if e.Row > 0 {
		return fmt.Sprintf("data error: column %s row %d: %s", e.Column, e.Row, e.Reason)
	}
	if e.Column != "" {
		return fmt.Sprintf("data error: column %s: %s", e.Column, e.Reason)
	}
	return "data error: " + e.Reason
}

// requireColumns returns a *DataError naming every missing column, or nil.
func requireColumns(have interface{ Missing(...string) []string }, cols ...string) error {
	if missing := have.Missing(cols...); len(missing) > 0 {
		return &DataError{Missing: missing}
	}
	return nil
}

// ModelInferenceError wraps a failed model call. It aborts the whole run.
type ModelInferenceError struct {
	GameID string
	Player string
	Err    error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("model inference failed for game %s player %s: %v", e.GameID, e.Player, e.Err)
}

func (e *ModelInferenceError) Unwrap() error { return e.Err }

// NonFiniteValueWarning records the non-finite values replaced in one feature column.
type NonFiniteValueWarning struct {
	Column string
	NaN    int
	PosInf int
	NegInf int
	Fill   float64 // value NaNs were replaced with
}

func (w NonFiniteValueWarning) String() string {
	return fmt.Sprintf("column %s: %d NaN (filled %g), %d +Inf, %d -Inf", w.Column, w.NaN, w.Fill, w.PosInf, w.NegInf)
}

// GroupingMismatchWarning records a player-game whose prediction count did not
// match its round count. Rounds without a prediction are skipped.
type GroupingMismatchWarning struct {
	GameID      string
	Player      string
	Rounds      int
	Predictions int
}

func (w GroupingMismatchWarning) String() string {
	return fmt.Sprintf("game %s player %s: %d rounds but %d predictions", w.GameID, w.Player, w.Rounds, w.Predictions)
}

package pipeline

import (
	"errors"
	"fmt"

	"codeassist/internal/apply"
)

type Stage int

const (
	Idle Stage = iota
	BuildingContext
	AwaitingModel
	ParsingResponse
	ApplyingActions
	Failed
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "Idle"
	case BuildingContext:
		return "BuildingContext"
	case AwaitingModel:
		return "AwaitingModel"
	case ParsingResponse:
		return "ParsingResponse"
	case ApplyingActions:
		return "ApplyingActions"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

var (
	ErrBusy          = errors.New("a request is already in progress")
	ErrEmptyQuery    = errors.New("empty request")
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// StageError reports which stage stopped a request. Raw holds the model text
// for parse failures. Action and Applied are set when the batch halted.
type StageError struct {
	Stage   Stage
	Err     error
	Raw     string
	Action  *apply.FailedAction
	Applied []apply.Outcome
}

func (e *StageError) Error() string {
	if e.Action != nil {
		return fmt.Sprintf("%s: action %d (%s) stopped the batch: %v", e.Stage, e.Action.Index+1, e.Action.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

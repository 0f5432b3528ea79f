package apply

import (
	"context"

	"codeassist/internal/model"
)

// FailedAction is the action that stopped a batch.
type FailedAction struct {
	Index  int
	Action model.CodeAction
	Err    error
}

type BatchResult struct {
	Applied []Outcome
	Failed  *FailedAction
	Skipped int
	// Cancelled is the context error when the batch stopped before an action
	// was attempted. Failed stays nil in that case.
	Cancelled error
}

func (r BatchResult) OK() bool { return r.Failed == nil && r.Cancelled == nil }

// ApplyAll runs actions in order and stops at the first failure. Actions after
// the failing one are never attempted and earlier ones stay applied. A
// cancelled context stops the batch before the next action.
func (a *Applier) ApplyAll(ctx context.Context, actions []model.CodeAction, onEach func(i int, o Outcome, err error)) BatchResult {
	var res BatchResult
	for i, action := range actions {
		if err := ctx.Err(); err != nil {
			res.Cancelled = err
			res.Skipped = len(actions) - i
			return res
		}

		out, err := a.Apply(action)
		if onEach != nil {
			onEach(i, out, err)
		}
		if err != nil {
			res.Failed = &FailedAction{Index: i, Action: action, Err: err}
			res.Skipped = len(actions) - i - 1
			return res
		}
		res.Applied = append(res.Applied, out)
	}
	return res
}

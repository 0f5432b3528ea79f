// Package pipeline runs one user request through context building, the model
// call, response parsing and action application.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codeassist/internal/apply"
	"codeassist/internal/builder"
	"codeassist/internal/chat"
	"codeassist/internal/git"
	"codeassist/internal/journal"
	"codeassist/internal/model"
	"codeassist/internal/prompt"
	"codeassist/internal/response"
)

// Generator is the model client boundary.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generators that cannot enforce the response schema themselves implement
// this to get it spelled out in the prompt.
type schemaPrompter interface {
	WantsSchemaInPrompt() bool
}

type Result struct {
	ID       string
	Query    string
	Response *model.Response
	Applied  []apply.Outcome
	Warnings []string
}

type Pipeline struct {
	cfg     model.Config
	gen     Generator
	history *chat.History
	journal *journal.Journal
	log     *zap.Logger

	mu    sync.Mutex
	busy  bool
	stage Stage
}

type Option func(*Pipeline)

// WithJournal records every finished request in j.
func WithJournal(j *journal.Journal) Option {
	return func(p *Pipeline) { p.journal = j }
}

func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

func New(cfg model.Config, gen Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		gen:     gen,
		history: chat.NewHistory(cfg.HistoryWindow),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// History returns a copy of the conversation so far.
func (p *Pipeline) History() []model.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.Messages()
}

// Reset clears the conversation. It is refused while a request runs.
func (p *Pipeline) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.busy {
		return ErrBusy
	}
	p.history.Reset()
	return nil
}

func (p *Pipeline) acquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.busy {
		return false
	}
	p.busy = true
	return true
}

func (p *Pipeline) release() {
	p.mu.Lock()
	p.busy = false
	p.stage = Idle
	p.mu.Unlock()
}

func (p *Pipeline) setStage(s Stage) {
	p.mu.Lock()
	p.stage = s
	p.mu.Unlock()
}

// Run processes query synchronously. Failures are *StageError values.
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if !p.acquire() {
		return nil, ErrBusy
	}
	defer p.release()
	return p.process(ctx, query, func(Event) {})
}

// Start processes query on a background goroutine. Progress events arrive on
// the returned channel followed by one Done or Error event; the channel is
// closed once the pipeline is idle again. The caller must drain it.
func (p *Pipeline) Start(ctx context.Context, query string) (<-chan Event, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if !p.acquire() {
		return nil, ErrBusy
	}

	events := make(chan Event, 16)
	go func() {
		defer func() {
			p.release()
			close(events)
		}()

		res, err := p.process(ctx, query, func(e Event) { events <- e })
		if err != nil {
			events <- Event{Kind: EventError, Stage: Failed, Message: err.Error(), Err: err}
			return
		}
		events <- Event{Kind: EventDone, Stage: Idle, Message: res.Response.OverallExplanation, Result: res}
	}()
	return events, nil
}

func (p *Pipeline) process(ctx context.Context, query string, emit func(Event)) (res *Result, err error) {
	id := uuid.NewString()
	log := p.log.With(zap.String("request_id", id))
	start := time.Now()

	entry := journal.Entry{ID: id, Time: start, Query: query}
	defer func() {
		if err != nil {
			p.setStage(Failed)
			entry.Error = err.Error()
			var se *StageError
			if errors.As(err, &se) {
				entry.Stage = se.Stage.String()
			}
			log.Warn("request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		} else {
			log.Info("request done", zap.Int("actions", len(res.Applied)), zap.Duration("elapsed", time.Since(start)))
		}
		p.record(log, entry)
	}()

	progress := func(s Stage, format string, args ...any) {
		p.setStage(s)
		msg := fmt.Sprintf(format, args...)
		log.Debug(msg, zap.Stringer("stage", s))
		emit(Event{Kind: EventProgress, Stage: s, Message: msg})
	}

	res = &Result{ID: id, Query: query}

	// BuildingContext
	progress(BuildingContext, "Reading project structure...")
	p.mu.Lock()
	addErr := p.history.Add(model.RoleUser, query)
	p.mu.Unlock()
	if addErr != nil {
		return nil, &StageError{Stage: BuildingContext, Err: addErr}
	}

	inspector, err := builder.New(p.cfg.Root, p.cfg.Ignore,
		builder.WithIgnoreFiles(p.cfg.UseIgnoreFiles), builder.WithLogger(log))
	if err != nil {
		return nil, &StageError{Stage: BuildingContext, Err: err}
	}
	tree, err := inspector.Tree()
	if err != nil {
		return nil, &StageError{Stage: BuildingContext, Err: err}
	}
	if git.IsDirty(ctx, inspector.Root()) {
		w := "working tree has uncommitted changes; applied actions cannot be undone"
		res.Warnings = append(res.Warnings, w)
		progress(BuildingContext, "Warning: %s", w)
	}

	files := inspector.Relevant(query, p.cfg.RelevantBudget)
	for _, f := range files {
		progress(BuildingContext, "Including %s", f.Path)
	}

	p.mu.Lock()
	history := p.history.Formatted()
	p.mu.Unlock()

	pc := prompt.Context{
		Tree:    builder.Render(tree),
		History: history,
		Files:   files,
		Query:   query,
	}
	if sp, ok := p.gen.(schemaPrompter); ok && sp.WantsSchemaInPrompt() {
		pc.Schema = response.JSONSchema()
	}
	text := prompt.Build(pc)

	// AwaitingModel
	progress(AwaitingModel, "Waiting for the model...")
	raw, err := p.gen.Generate(ctx, text)
	if err != nil {
		return nil, &StageError{Stage: AwaitingModel, Err: err}
	}
	if strings.TrimSpace(raw) == "" {
		return nil, &StageError{Stage: AwaitingModel, Err: ErrEmptyResponse}
	}

	// ParsingResponse
	progress(ParsingResponse, "Parsing response...")
	resp, err := response.Parse(raw)
	if err != nil {
		log.Debug("unparseable response", zap.String("raw", raw))
		return nil, &StageError{Stage: ParsingResponse, Err: err, Raw: raw}
	}
	response.StripRootPrefix(resp, filepath.Base(inspector.Root()))
	res.Response = resp
	entry.Explanation = resp.OverallExplanation

	// Recorded before any action runs; a partial batch keeps the plan in history.
	p.mu.Lock()
	err = p.history.Add(model.RoleModel, resp.OverallExplanation)
	p.mu.Unlock()
	if err != nil {
		return nil, &StageError{Stage: ParsingResponse, Err: err, Raw: raw}
	}

	// ApplyingActions
	progress(ApplyingActions, "Applying %d action(s)...", len(resp.Actions))
	applier, err := apply.New(inspector.Root(), log)
	if err != nil {
		return nil, &StageError{Stage: ApplyingActions, Err: err}
	}
	batch := applier.ApplyAll(ctx, resp.Actions, func(i int, o apply.Outcome, err error) {
		if err == nil {
			progress(ApplyingActions, "%s (+%d -%d)", o.Action, o.Inserted, o.Deleted)
		}
	})
	entry.Actions = journalActions(resp.Actions, batch)
	if batch.Cancelled != nil {
		return nil, &StageError{Stage: ApplyingActions, Err: batch.Cancelled, Applied: batch.Applied}
	}
	if !batch.OK() {
		return nil, &StageError{
			Stage:   ApplyingActions,
			Err:     batch.Failed.Err,
			Action:  batch.Failed,
			Applied: batch.Applied,
		}
	}
	res.Applied = batch.Applied
	return res, nil
}

func (p *Pipeline) record(log *zap.Logger, e journal.Entry) {
	if p.journal == nil {
		return
	}
	// The request context may already be cancelled; the record still goes in.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.journal.Record(ctx, e); err != nil {
		log.Error("journal record failed", zap.Error(err))
	}
}

func journalActions(actions []model.CodeAction, batch apply.BatchResult) []journal.ActionRecord {
	out := make([]journal.ActionRecord, 0, len(actions))
	for i, a := range actions {
		rec := journal.ActionRecord{Index: i, Type: string(a.ActionType), Path: a.FilePath}
		switch {
		case i < len(batch.Applied):
			rec.Status = journal.StatusApplied
			rec.Inserted = batch.Applied[i].Inserted
			rec.Deleted = batch.Applied[i].Deleted
		case batch.Failed != nil && i == batch.Failed.Index:
			rec.Status = journal.StatusFailed
			rec.Error = batch.Failed.Err.Error()
		default:
			rec.Status = journal.StatusSkipped
		}
		out = append(out, rec)
	}
	return out
}

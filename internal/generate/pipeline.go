// Package generate turns a document into a validated 4-question quiz,
// exposing the model output as a stream of partial snapshots while it arrives.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/pdfquiz/internal/intake"
	"github.com/pavelanni/pdfquiz/internal/llm"
	"github.com/pavelanni/pdfquiz/internal/model"
)

// ErrNotFinished is returned by Stream.Result before the stream reaches a terminal state.
var ErrNotFinished = errors.New("generation still streaming")

// Source opens a raw model output stream for a document.
// *llm.Client satisfies it.
type Source interface {
	StreamQuiz(ctx context.Context, doc intake.Document, difficulty model.Difficulty) (llm.TokenStream, error)
}

// Request is one generation request. Difficulty is free text; anything
// other than easy, medium or hard is treated as medium.
type Request struct {
	Document   intake.Document
	Difficulty string
}

// Pipeline runs generation requests against a Source.
type Pipeline struct {
	source    Source
	logger    *slog.Logger
	observers []func(model.GenerationRecord)
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for generation events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithObserver registers fn to receive the metadata of every finished generation.
func WithObserver(fn func(model.GenerationRecord)) Option {
	return func(p *Pipeline) { p.observers = append(p.observers, fn) }
}

// New creates a pipeline over source.
func New(source Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		source: source,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate starts a request. The document is checked immediately; the model
// is not contacted until the first call to Next.
func (p *Pipeline) Generate(ctx context.Context, req Request) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		pipeline:   p,
		ctx:        ctx,
		cancel:     cancel,
		doc:        req.Document,
		difficulty: model.ParseDifficulty(req.Difficulty),
		id:         uuid.NewString(),
		startedAt:  p.now(),
	}
	if err := intake.Check(req.Document); err != nil {
		s.fail(&Error{Kind: KindInputRejected, Detail: err.Error(), Err: err})
	}
	return s
}

// Run drives a request to completion, calling onPartial for each new snapshot.
func (p *Pipeline) Run(ctx context.Context, req Request, onPartial func(model.PartialQuiz)) (model.Quiz, error) {
	s := p.Generate(ctx, req)
	defer s.Close()
	for s.Next() {
		if onPartial != nil {
			onPartial(s.Partial())
		}
	}
	return s.Result()
}

// State is the lifecycle position of a Stream.
type State int

const (
	StateStreaming State = iota
	StateValidated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateValidated:
		return "validated"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Stream is a single generation in progress. It is not safe for concurrent
// use: call Next, Result and Close from one goroutine, and cancel the context
// given to Generate to abandon it from elsewhere.
type Stream struct {
	pipeline   *Pipeline
	ctx        context.Context
	cancel     context.CancelFunc
	doc        intake.Document
	difficulty model.Difficulty
	id         string
	startedAt  time.Time

	upstream llm.TokenStream
	buf      bytes.Buffer
	state    State
	partial  model.PartialQuiz
	partials int
	quiz     model.Quiz
	err      error
	closed   bool
}

// ID identifies the request in logs and the generation history.
func (s *Stream) ID() string { return s.id }

// Difficulty is the effective difficulty of the request.
func (s *Stream) Difficulty() model.Difficulty { return s.difficulty }

// State returns the current lifecycle state.
func (s *Stream) State() State { return s.state }

// Partial returns the latest snapshot. The slices are shared with the stream
// and must not be modified.
func (s *Stream) Partial() model.PartialQuiz { return s.partial }

// Err returns the terminal error, if any.
func (s *Stream) Err() error { return s.err }

// Next advances to the next distinct partial snapshot. It returns false once
// the stream is validated, failed or closed.
func (s *Stream) Next() bool {
	if s.state != StateStreaming {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.fail(upstreamFailure("generation cancelled", err))
		return false
	}
	if s.upstream == nil {
		up, err := s.pipeline.source.StreamQuiz(s.ctx, s.doc, s.difficulty)
		if err != nil {
			s.fail(upstreamFailure("open model stream", err))
			return false
		}
		s.upstream = up
	}

	for {
		chunk, err := s.upstream.Recv()
		// Recv may return buffered data after cancellation.
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			s.fail(upstreamFailure("generation cancelled", ctxErr))
			return false
		}
		if errors.Is(err, io.EOF) {
			s.finish()
			return false
		}
		if err != nil {
			s.fail(upstreamFailure("model stream", err))
			return false
		}
		s.buf.WriteString(chunk)

		partial, ok := decodePartial(s.buf.Bytes())
		if !ok || partial.Len() < s.partial.Len() || partial.Equal(s.partial) {
			continue
		}
		if partial.Len() > model.QuestionsPerQuiz {
			s.fail(schemaViolation(fmt.Errorf("model produced more than %d questions", model.QuestionsPerQuiz)))
			return false
		}
		s.partial = partial
		s.partials++
		return true
	}
}

// Result returns the validated quiz, or the terminal error.
func (s *Stream) Result() (model.Quiz, error) {
	switch s.state {
	case StateValidated:
		return s.quiz, nil
	case StateFailed:
		return model.Quiz{}, s.err
	}
	return model.Quiz{}, ErrNotFinished
}

// Close abandons the stream if it is still running and releases the upstream.
// No snapshot or result is produced after Close.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.state == StateStreaming {
		s.cancel()
		s.fail(upstreamFailure("generation abandoned", context.Canceled))
	}
	return nil
}

func (s *Stream) finish() {
	quiz, err := decodeQuiz(s.buf.Bytes())
	if err != nil {
		s.fail(schemaViolation(err))
		return
	}
	for i := range quiz.Questions {
		quiz.Questions[i] = quiz.Questions[i].Normalize()
	}
	if err := quiz.Validate(); err != nil {
		s.fail(schemaViolation(err))
		return
	}
	for i := range quiz.Questions {
		quiz.Questions[i].Difficulty = s.difficulty
	}

	s.quiz = quiz
	s.partial = toPartial(quiz)
	s.state = StateValidated
	s.release()
	s.report(model.OutcomeValidated)
}

func (s *Stream) fail(err *Error) {
	s.err = err
	s.state = StateFailed
	s.release()
	outcome := model.Outcome(err.Kind)
	if s.closed && errors.Is(err, context.Canceled) {
		outcome = model.OutcomeAbandoned
	}
	s.report(outcome)
}

func (s *Stream) release() {
	if s.upstream != nil {
		if err := s.upstream.Close(); err != nil {
			s.pipeline.logger.Debug("closing model stream", "id", s.id, "error", err)
		}
	}
	s.cancel()
}

func (s *Stream) report(outcome model.Outcome) {
	rec := model.GenerationRecord{
		ID:            s.id,
		DocumentName:  s.doc.Name,
		DocumentBytes: s.doc.Size(),
		Difficulty:    s.difficulty,
		Outcome:       outcome,
		Partials:      s.partials,
		Questions:     s.partial.Len(),
		StartedAt:     s.startedAt,
		FinishedAt:    s.pipeline.now(),
	}
	if s.err != nil {
		rec.Detail = s.err.Error()
	}

	attrs := []any{
		"id", rec.ID,
		"document", rec.DocumentName,
		"difficulty", rec.Difficulty,
		"outcome", rec.Outcome,
		"partials", rec.Partials,
		"elapsed", rec.Elapsed(),
	}
	if s.err != nil {
		s.pipeline.logger.Warn("generation failed", append(attrs, "error", s.err)...)
	} else {
		s.pipeline.logger.Info("generation finished", attrs...)
	}

	for _, fn := range s.pipeline.observers {
		fn(rec)
	}
}

func toPartial(q model.Quiz) model.PartialQuiz {
	out := model.PartialQuiz{Questions: make([]model.PartialQuestion, len(q.Questions))}
	for i, qq := range q.Questions {
		out.Questions[i] = model.PartialQuestion{
			Prompt:     qq.Prompt,
			Options:    qq.Options,
			Answer:     qq.Answer,
			Difficulty: qq.Difficulty,
		}
	}
	return out
}

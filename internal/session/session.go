// Package session runs a quiz for one player: navigation, answer recording,
// scoring and, in timed mode, the countdown that forces submission.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pavelanni/pdfquiz/internal/model"
	"github.com/pavelanni/pdfquiz/internal/timer"
)

var (
	ErrSubmitted     = errors.New("session already submitted")
	ErrNotSubmitted  = errors.New("session not submitted yet")
	ErrFlashcard     = errors.New("not available in flashcard mode")
	ErrNotFlashcard  = errors.New("only available in flashcard mode")
	ErrInvalidLetter = errors.New("invalid option letter")
	ErrOutOfRange    = errors.New("question index out of range")
	ErrClosed        = errors.New("session closed")
)

// Phase is the lifecycle position of a scored session.
type Phase string

const (
	PhaseActive    Phase = "active"
	PhaseSubmitted Phase = "submitted"
)

// Snapshot is a copy of the session state at one instant. Score is nil until
// the session is submitted; Forced marks a submission made by the countdown.
type Snapshot struct {
	Mode       model.Mode       `json:"mode"`
	Difficulty model.Difficulty `json:"difficulty"`
	Phase      Phase            `json:"phase"`
	Index      int              `json:"index"`
	Total      int              `json:"total"`
	Answers    []model.Letter   `json:"answers,omitempty"`
	Score      *int             `json:"score,omitempty"`
	Forced     bool             `json:"forced,omitempty"`
	Remaining  int              `json:"remaining,omitempty"`
	Duration   int              `json:"duration,omitempty"`
	Revealed   bool             `json:"revealed,omitempty"`
}

// Submitted reports whether the snapshot was taken after submission.
func (s Snapshot) Submitted() bool {
	return s.Phase == PhaseSubmitted
}

// Progress is the share of questions moved past, 0 to 100.
func (s Snapshot) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	if s.Submitted() {
		return 100
	}
	return float64(s.Index) / float64(s.Total) * 100
}

// Answered counts the answer slots that hold a letter.
func (s Snapshot) Answered() int {
	n := 0
	for _, a := range s.Answers {
		if a != model.Unanswered {
			n++
		}
	}
	return n
}

// Review describes one question after submission.
type Review struct {
	Index         int            `json:"index"`
	Question      model.Question `json:"question"`
	Answer        model.Letter   `json:"answer"`
	CorrectAnswer model.Letter   `json:"correct_answer"`
	Correct       bool           `json:"correct"`
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithClock drives the timed-mode countdown from clock instead of wall time.
func WithClock(clock timer.Clock) Option {
	return func(r *Runtime) { r.clock = clock }
}

// WithDifficulty sets the difficulty that selects the countdown duration.
// By default the first question's difficulty is used.
func WithDifficulty(d model.Difficulty) Option {
	return func(r *Runtime) { r.difficulty = d }
}

// WithObserver registers fn to receive a snapshot after every state change,
// including countdown ticks. fn is never called with the session lock held.
func WithObserver(fn func(Snapshot)) Option {
	return func(r *Runtime) { r.observers = append(r.observers, fn) }
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// Runtime is the state machine for one quiz. It is safe for concurrent use;
// countdown expiry arrives on the clock's goroutine.
type Runtime struct {
	quiz       model.Quiz
	mode       model.Mode
	difficulty model.Difficulty
	clock      timer.Clock
	timer      *timer.Timer
	observers  []func(Snapshot)
	logger     *slog.Logger

	mu        sync.Mutex
	index     int
	answers   []model.Letter
	submitted bool
	forced    bool
	score     int
	revealed  bool
	closed    bool

	// epoch identifies the current countdown; expiries from older ones are dropped.
	epoch uint64
}

// New starts a session over quiz. In timed mode the countdown starts immediately.
func New(quiz model.Quiz, mode model.Mode, opts ...Option) (*Runtime, error) {
	if _, err := model.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if err := quiz.Validate(); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	r := &Runtime{
		quiz:   quiz,
		mode:   mode,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if !r.difficulty.Valid() {
		r.difficulty = model.ParseDifficulty(string(quiz.Questions[0].Difficulty))
	}
	r.answers = make([]model.Letter, quiz.Len())

	if mode == model.ModeTimed {
		r.timer = timer.New(r.clock)
		r.timer.OnTick(func(int) { r.notify(r.Snapshot()) })
		r.mu.Lock()
		err := r.startTimerLocked()
		r.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}
	r.logger.Debug("session started", "mode", mode, "difficulty", r.difficulty, "questions", quiz.Len())
	return r, nil
}

// Mode returns the session mode.
func (r *Runtime) Mode() model.Mode { return r.mode }

// Difficulty returns the difficulty that set the countdown.
func (r *Runtime) Difficulty() model.Difficulty { return r.difficulty }

// Quiz returns the quiz being played.
func (r *Runtime) Quiz() model.Quiz { return r.quiz }

// Current returns the question at the current index.
func (r *Runtime) Current() model.Question {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quiz.Questions[r.index]
}

// SelectAnswer records letter for the current question, replacing any earlier choice.
func (r *Runtime) SelectAnswer(letter model.Letter) error {
	if r.mode == model.ModeFlashcard {
		return ErrFlashcard
	}
	if letter.Index() < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidLetter, letter)
	}
	r.mu.Lock()
	if r.submitted {
		r.mu.Unlock()
		return ErrSubmitted
	}
	r.answers[r.index] = letter
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)
	return nil
}

// CanAdvance reports whether the player may move past the current question.
// Scored modes require an answer first; the runtime itself does not enforce it.
func (r *Runtime) CanAdvance() bool {
	if r.mode == model.ModeFlashcard {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.submitted && r.answers[r.index] != model.Unanswered
}

// Next moves forward. On the last question of a scored session it submits.
// Flashcards wrap around.
func (r *Runtime) Next() error {
	r.mu.Lock()
	switch {
	case r.mode == model.ModeFlashcard:
		r.index = (r.index + 1) % r.quiz.Len()
		r.revealed = false
	case r.submitted:
		r.mu.Unlock()
		return ErrSubmitted
	case r.index == r.quiz.Len()-1:
		r.submitLocked(false)
	default:
		r.index++
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)
	return nil
}

// Previous moves back one question; it is a no-op on the first question of a
// scored session. Flashcards wrap around.
func (r *Runtime) Previous() error {
	r.mu.Lock()
	switch {
	case r.mode == model.ModeFlashcard:
		r.index = (r.index + r.quiz.Len() - 1) % r.quiz.Len()
		r.revealed = false
	case r.submitted:
		r.mu.Unlock()
		return ErrSubmitted
	case r.index > 0:
		r.index--
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)
	return nil
}

// ToggleReveal flips the answer side of the current flashcard.
func (r *Runtime) ToggleReveal() error {
	if r.mode != model.ModeFlashcard {
		return ErrNotFlashcard
	}
	r.mu.Lock()
	r.revealed = !r.revealed
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)
	return nil
}

// Reset restarts the same quiz: answers cleared, back to the first question,
// and in timed mode a fresh full countdown. Any expiry already in flight for
// the previous countdown is discarded.
func (r *Runtime) Reset() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.index = 0
	r.answers = make([]model.Letter, r.quiz.Len())
	r.submitted = false
	r.forced = false
	r.score = 0
	r.revealed = false
	if r.timer != nil {
		r.timer.Cancel()
		if err := r.startTimerLocked(); err != nil {
			r.mu.Unlock()
			return err
		}
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.logger.Debug("session reset", "mode", r.mode)
	r.notify(snap)
	return nil
}

// Score returns the score and whether the session has been submitted.
func (r *Runtime) Score() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.score, r.submitted
}

// ReviewAt describes question i of a submitted session.
func (r *Runtime) ReviewAt(i int) (Review, error) {
	if r.mode == model.ModeFlashcard {
		return Review{}, ErrFlashcard
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.submitted {
		return Review{}, ErrNotSubmitted
	}
	if i < 0 || i >= r.quiz.Len() {
		return Review{}, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	q := r.quiz.Questions[i]
	return Review{
		Index:         i,
		Question:      q,
		Answer:        r.answers[i],
		CorrectAnswer: q.Answer,
		Correct:       r.answers[i] == q.Answer,
	}, nil
}

// Snapshot returns a copy of the current state.
func (r *Runtime) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Close stops the countdown. The session stays readable.
func (r *Runtime) Close() {
	r.mu.Lock()
	r.closed = true
	r.epoch++
	if r.timer != nil && r.timer.Running() {
		r.logger.Debug("session closed mid-countdown", "index", r.index, "remaining", r.timer.Remaining())
		r.timer.Cancel()
	}
	r.mu.Unlock()
}

// Score counts the answers that match their question's answer letter.
// Unanswered slots never match.
func Score(questions []model.Question, answers []model.Letter) int {
	score := 0
	for i, q := range questions {
		if i < len(answers) && answers[i] != model.Unanswered && answers[i] == q.Answer {
			score++
		}
	}
	return score
}

func (r *Runtime) startTimerLocked() error {
	r.epoch++
	epoch := r.epoch
	if err := r.timer.Start(r.difficulty.Seconds(), func() { r.expire(epoch) }); err != nil {
		return fmt.Errorf("start countdown: %w", err)
	}
	return nil
}

func (r *Runtime) expire(epoch uint64) {
	r.mu.Lock()
	if epoch != r.epoch || r.submitted || r.closed {
		r.mu.Unlock()
		return
	}
	r.submitLocked(true)
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)
}

func (r *Runtime) submitLocked(forced bool) {
	r.submitted = true
	r.forced = forced
	r.score = Score(r.quiz.Questions, r.answers)
	if r.timer != nil {
		r.epoch++
		r.timer.Cancel()
	}
	r.logger.Debug("session submitted", "mode", r.mode, "score", r.score, "forced", forced, "index", r.index)
}

func (r *Runtime) snapshotLocked() Snapshot {
	snap := Snapshot{
		Mode:       r.mode,
		Difficulty: r.difficulty,
		Phase:      PhaseActive,
		Index:      r.index,
		Total:      r.quiz.Len(),
		Forced:     r.forced,
	}
	if r.mode == model.ModeFlashcard {
		snap.Revealed = r.revealed
		return snap
	}
	snap.Answers = append([]model.Letter(nil), r.answers...)
	if r.submitted {
		snap.Phase = PhaseSubmitted
		score := r.score
		snap.Score = &score
	}
	if r.timer != nil {
		snap.Remaining = r.timer.Remaining()
		snap.Duration = r.difficulty.Seconds()
	}
	return snap
}

func (r *Runtime) notify(snap Snapshot) {
	for _, fn := range r.observers {
		fn(snap)
	}
}

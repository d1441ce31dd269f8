// Package tui is the terminal client: document intake, live generation
// progress and the three play modes, built on Bubble Tea.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pavelanni/pdfquiz/internal/generate"
	appI18n "github.com/pavelanni/pdfquiz/internal/i18n"
	"github.com/pavelanni/pdfquiz/internal/intake"
	"github.com/pavelanni/pdfquiz/internal/model"
	"github.com/pavelanni/pdfquiz/internal/session"
	"github.com/pavelanni/pdfquiz/internal/timer"
)

// Result is a generated quiz with its display title.
type Result struct {
	Title string
	Quiz  model.Quiz
}

// Generator turns a document path into a titled quiz. onPartial receives
// every more complete partial while the model is still writing.
type Generator func(ctx context.Context, path string, difficulty model.Difficulty, onPartial func(model.PartialQuiz)) (Result, error)

// Options configures the terminal client.
type Options struct {
	Lang       string
	Mode       model.Mode
	Difficulty model.Difficulty
	// Path starts generation right away when set.
	Path string
	// Loaded skips generation and plays a quiz read from disk.
	Loaded  *Result
	Clock   timer.Clock
	NoColor bool
	Logger  *slog.Logger
}

type screen int

const (
	screenIntake screen = iota
	screenGenerating
	screenPlaying
)

const (
	fieldPath = iota
	fieldMode
	fieldDifficulty
	fieldCount
)

var (
	modes        = []model.Mode{model.ModePractice, model.ModeTimed, model.ModeFlashcard}
	difficulties = []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard}
)

type partialMsg struct {
	seq     int
	partial model.PartialQuiz
}

type generatedMsg struct {
	seq    int
	result Result
}

type failedMsg struct {
	seq int
	err error
}

// changedMsg reports that a session moved, including countdown ticks.
type changedMsg struct {
	runtime *session.Runtime
}

// Model is the Bubble Tea model for the whole client.
type Model struct {
	ctx      context.Context
	generate Generator
	keys     keyMap
	styles   styles
	clock    timer.Clock
	logger   *slog.Logger

	screen     screen
	field      int
	mode       model.Mode
	difficulty model.Difficulty
	path       textinput.Model
	spinner    spinner.Model
	bar        progress.Model
	errText    string

	seq     int
	events  <-chan tea.Msg
	cancel  context.CancelFunc
	partial model.PartialQuiz

	title   string
	runtime *session.Runtime
	changes chan struct{}
	done    chan struct{}

	pending  tea.Cmd
	quitting bool
}

// New builds the client model. ctx bounds every generation it starts.
func New(ctx context.Context, gen Generator, opts Options) Model {
	lang := opts.Lang
	if lang == "" {
		lang = "en"
	}
	ctx = appI18n.WithLocalizer(ctx, appI18n.NewLocalizer(lang))

	mode, err := model.ParseMode(string(opts.Mode))
	if err != nil {
		mode = model.ModePractice
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := textinput.New()
	path.Placeholder = "notes.pdf"
	path.CharLimit = 4096
	path.Width = 48
	path.SetValue(opts.Path)
	path.Focus()

	m := Model{
		ctx:        ctx,
		generate:   gen,
		keys:       defaultKeyMap(),
		styles:     newStyles(opts.NoColor),
		clock:      opts.Clock,
		logger:     logger,
		mode:       mode,
		difficulty: model.ParseDifficulty(string(opts.Difficulty)),
		path:       path,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}

	var cmd tea.Cmd
	switch {
	case opts.Loaded != nil:
		m, cmd = m.play(*opts.Loaded)
	case opts.Path != "" && gen != nil:
		m, cmd = m.startGeneration(opts.Path)
	default:
		cmd = textinput.Blink
	}
	m.pending = cmd
	return m
}

// Init returns the command prepared by New.
func (m Model) Init() tea.Cmd {
	return m.pending
}

// Update routes input and background events to the active screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), 60)
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m.quit()
		}
		switch m.screen {
		case screenIntake:
			return m.updateIntake(msg)
		case screenGenerating:
			return m.updateGenerating(msg)
		case screenPlaying:
			return m.updatePlaying(msg)
		}
	case spinner.TickMsg:
		if m.screen != screenGenerating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case partialMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.partial = msg.partial
		return m, waitForEvent(m.events)
	case generatedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.stopGeneration()
		return m.play(msg.result)
	case failedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.logger.Warn("generation failed", "error", msg.err)
		m.stopGeneration()
		m.screen = screenIntake
		m.errText = m.describe(msg.err)
		return m, textinput.Blink
	case changedMsg:
		if msg.runtime != m.runtime {
			return m, nil
		}
		return m, waitForChange(m.runtime, m.changes, m.done)
	}

	if m.screen == screenIntake && m.field == fieldPath {
		var cmd tea.Cmd
		m.path, cmd = m.path.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateIntake(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.quit()
	case key.Matches(msg, m.keys.Submit):
		path := strings.TrimSpace(m.path.Value())
		if path == "" {
			m.errText = appI18n.T(m.ctx, "ChooseFile")
			return m, nil
		}
		if m.generate == nil {
			m.errText = appI18n.T(m.ctx, string(generate.KindUpstreamFailure))
			return m, nil
		}
		return m.startGeneration(path)
	case key.Matches(msg, m.keys.Field):
		return m.focusField((m.field + 1) % fieldCount)
	case key.Matches(msg, m.keys.FieldBack):
		return m.focusField((m.field + fieldCount - 1) % fieldCount)
	case m.field == fieldMode && key.Matches(msg, m.keys.OptionPrev, m.keys.OptionNext):
		m.mode = cycle(modes, m.mode, key.Matches(msg, m.keys.OptionNext))
		return m, nil
	case m.field == fieldDifficulty && key.Matches(msg, m.keys.OptionPrev, m.keys.OptionNext):
		m.difficulty = cycle(difficulties, m.difficulty, key.Matches(msg, m.keys.OptionNext))
		return m, nil
	}
	if m.field != fieldPath {
		return m, nil
	}
	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

func (m Model) focusField(field int) (tea.Model, tea.Cmd) {
	m.field = field
	if field == fieldPath {
		cmd := m.path.Focus()
		return m, cmd
	}
	m.path.Blur()
	return m, nil
}

func (m Model) updateGenerating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel, m.keys.Quit) {
		m.stopGeneration()
		m.screen = screenIntake
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) updatePlaying(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rt := m.runtime
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}

	if rt.Mode() == model.ModeFlashcard {
		switch {
		case key.Matches(msg, m.keys.Flip):
			m.check(rt.ToggleReveal())
		case key.Matches(msg, m.keys.Next):
			m.check(rt.Next())
		case key.Matches(msg, m.keys.Previous):
			m.check(rt.Previous())
		case key.Matches(msg, m.keys.NewDocument):
			return m.newDocument()
		}
		return m, nil
	}

	if rt.Snapshot().Submitted() {
		switch {
		case key.Matches(msg, m.keys.Reset):
			m.check(rt.Reset())
		case key.Matches(msg, m.keys.NewDocument):
			return m.newDocument()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Select):
		letter, err := model.ParseLetter(msg.String())
		if err == nil {
			m.check(rt.SelectAnswer(letter))
		}
	case key.Matches(msg, m.keys.Next):
		if rt.CanAdvance() {
			m.check(rt.Next())
		}
	case key.Matches(msg, m.keys.Previous):
		m.check(rt.Previous())
	}
	return m, nil
}

// check logs runtime refusals. They are expected when a countdown expiry
// races a keypress, so they never surface to the player.
func (m Model) check(err error) {
	if err != nil {
		m.logger.Debug("session action refused", "error", err)
	}
}

func (m Model) startGeneration(path string) (Model, tea.Cmd) {
	m.stopGeneration()
	seq := m.seq
	ctx, cancel := context.WithCancel(m.ctx)
	events := make(chan tea.Msg)
	m.cancel = cancel
	m.events = events
	m.partial = model.PartialQuiz{}
	m.errText = ""
	m.screen = screenGenerating

	gen, difficulty := m.generate, m.difficulty
	go func() {
		defer close(events)
		send := func(msg tea.Msg) {
			select {
			case events <- msg:
			case <-ctx.Done():
			}
		}
		res, err := gen(ctx, path, difficulty, func(p model.PartialQuiz) {
			send(partialMsg{seq: seq, partial: p})
		})
		if err != nil {
			send(failedMsg{seq: seq, err: err})
			return
		}
		send(generatedMsg{seq: seq, result: res})
	}()
	return m, tea.Batch(m.spinner.Tick, waitForEvent(events))
}

// stopGeneration cancels the in-flight generation. Bumping seq drops any
// message it still manages to deliver.
func (m *Model) stopGeneration() {
	m.seq++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.events = nil
}

func (m Model) play(res Result) (Model, tea.Cmd) {
	m.teardown()

	changes := make(chan struct{}, 1)
	opts := []session.Option{
		session.WithDifficulty(m.difficulty),
		session.WithLogger(m.logger),
		session.WithObserver(func(session.Snapshot) {
			select {
			case changes <- struct{}{}:
			default:
			}
		}),
	}
	if m.clock != nil {
		opts = append(opts, session.WithClock(m.clock))
	}
	rt, err := session.New(res.Quiz, m.mode, opts...)
	if err != nil {
		m.logger.Warn("quiz cannot be played", "error", err)
		m.screen = screenIntake
		m.errText = appI18n.T(m.ctx, string(generate.KindSchemaViolation))
		return m, textinput.Blink
	}

	m.title = res.Title
	m.runtime = rt
	m.changes = changes
	m.done = make(chan struct{})
	m.screen = screenPlaying
	return m, waitForChange(rt, m.changes, m.done)
}

func (m Model) newDocument() (tea.Model, tea.Cmd) {
	m.teardown()
	m.screen = screenIntake
	m.field = fieldPath
	m.path.Reset()
	cmd := m.path.Focus()
	return m, cmd
}

// teardown stops the active session, if any.
func (m *Model) teardown() {
	if m.runtime == nil {
		return
	}
	m.runtime.Close()
	close(m.done)
	m.runtime = nil
	m.changes = nil
	m.done = nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.stopGeneration()
	m.teardown()
	m.quitting = true
	return m, tea.Quit
}

func (m Model) describe(err error) string {
	var re *intake.RejectedError
	if errors.As(err, &re) {
		return appI18n.Rejection(m.ctx, string(re.Reason))
	}
	if kind := generate.KindOf(err); kind == generate.KindSchemaViolation {
		return appI18n.T(m.ctx, string(kind))
	}
	return appI18n.T(m.ctx, string(generate.KindUpstreamFailure))
}

// waitForEvent blocks until the generation goroutine sends its next message.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// waitForChange blocks until the session reports a change or is torn down.
func waitForChange(rt *session.Runtime, changes <-chan struct{}, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-changes:
			return changedMsg{runtime: rt}
		case <-done:
			return nil
		}
	}
}

func cycle[T comparable](values []T, current T, forward bool) T {
	for i, v := range values {
		if v != current {
			continue
		}
		if forward {
			return values[(i+1)%len(values)]
		}
		return values[(i+len(values)-1)%len(values)]
	}
	return values[0]
}

package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	// QuestionsPerQuiz is the fixed number of questions in every quiz.
	QuestionsPerQuiz = 4
	// OptionsPerQuestion is the fixed number of answer options per question.
	OptionsPerQuestion = 4
)

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var quizDurations = map[Difficulty]time.Duration{
	DifficultyEasy:   300 * time.Second,
	DifficultyMedium: 240 * time.Second,
	DifficultyHard:   180 * time.Second,
}

// ParseDifficulty maps a user-supplied level onto the enum.
// Anything it does not recognise becomes DifficultyMedium.
func ParseDifficulty(s string) Difficulty {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return DifficultyMedium
	}
	return d
}

// Valid reports whether d is one of the three known levels.
func (d Difficulty) Valid() bool {
	_, ok := quizDurations[d]
	return ok
}

// Duration returns the timed-mode countdown for the level.
func (d Difficulty) Duration() time.Duration {
	if dur, ok := quizDurations[d]; ok {
		return dur
	}
	return quizDurations[DifficultyMedium]
}

// Seconds is Duration in whole seconds.
func (d Difficulty) Seconds() int {
	return int(d.Duration() / time.Second)
}

// Letter addresses an option by position, A through D.
type Letter string

// Unanswered marks an empty answer slot.
const Unanswered Letter = ""

var letters = [OptionsPerQuestion]Letter{"A", "B", "C", "D"}

// ParseLetter accepts a/A through d/D. Surrounding whitespace is ignored.
func ParseLetter(s string) (Letter, error) {
	l := Letter(strings.ToUpper(strings.TrimSpace(s)))
	if l.Index() < 0 {
		return Unanswered, fmt.Errorf("invalid option letter %q", s)
	}
	return l, nil
}

// LetterAt returns the letter for option position i.
func LetterAt(i int) Letter {
	if i < 0 || i >= len(letters) {
		return Unanswered
	}
	return letters[i]
}

// Index returns the option position for the letter, or -1.
func (l Letter) Index() int {
	for i, candidate := range letters {
		if candidate == l {
			return i
		}
	}
	return -1
}

// Question is one multiple-choice question. It is never mutated once produced.
type Question struct {
	Prompt     string     `json:"question" yaml:"question" validate:"required"`
	Options    []string   `json:"options" yaml:"options" validate:"len=4,unique,dive,required"`
	Answer     Letter     `json:"answer" yaml:"answer" validate:"required,oneof=A B C D"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty" validate:"required,oneof=easy medium hard"`
}

// Normalize returns a copy with whitespace trimmed and the answer letter upper-cased.
func (q Question) Normalize() Question {
	out := Question{
		Prompt:     strings.TrimSpace(q.Prompt),
		Answer:     Letter(strings.ToUpper(strings.TrimSpace(string(q.Answer)))),
		Difficulty: Difficulty(strings.ToLower(strings.TrimSpace(string(q.Difficulty)))),
	}
	if q.Options != nil {
		out.Options = make([]string, len(q.Options))
		for i, opt := range q.Options {
			out.Options[i] = strings.TrimSpace(opt)
		}
	}
	return out
}

// CorrectOption returns the text of the option the answer letter points at.
func (q Question) CorrectOption() string {
	i := q.Answer.Index()
	if i < 0 || i >= len(q.Options) {
		return ""
	}
	return q.Options[i]
}

// Quiz is the ordered, fixed-length set of questions produced by one generation.
type Quiz struct {
	Questions []Question `json:"questions" yaml:"questions"`
}

// Len returns the number of questions.
func (q Quiz) Len() int {
	return len(q.Questions)
}

// Mode selects how a session interacts with a quiz.
type Mode string

const (
	ModePractice  Mode = "practice"
	ModeTimed     Mode = "timed"
	ModeFlashcard Mode = "flashcard"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModePractice, ModeTimed, ModeFlashcard:
		return m, nil
	}
	return "", fmt.Errorf("unknown quiz mode %q (want practice, timed or flashcard)", s)
}

// PartialQuestion is a question whose fields may still be streaming in.
type PartialQuestion struct {
	Prompt     string     `json:"question,omitempty"`
	Options    []string   `json:"options,omitempty"`
	Answer     Letter     `json:"answer,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

// PartialQuiz is a growing snapshot of a quiz being generated.
type PartialQuiz struct {
	Questions []PartialQuestion `json:"questions"`
}

// Len returns the number of questions present so far.
func (p PartialQuiz) Len() int {
	return len(p.Questions)
}

// Progress is the share of the quiz received, 0 to 100.
func (p PartialQuiz) Progress() float64 {
	n := min(len(p.Questions), QuestionsPerQuiz)
	return float64(n) / QuestionsPerQuiz * 100
}

// Equal reports whether two snapshots carry identical content.
func (p PartialQuiz) Equal(other PartialQuiz) bool {
	if len(p.Questions) != len(other.Questions) {
		return false
	}
	for i := range p.Questions {
		a, b := p.Questions[i], other.Questions[i]
		if a.Prompt != b.Prompt || a.Answer != b.Answer || a.Difficulty != b.Difficulty {
			return false
		}
		if len(a.Options) != len(b.Options) {
			return false
		}
		for j := range a.Options {
			if a.Options[j] != b.Options[j] {
				return false
			}
		}
	}
	return true
}

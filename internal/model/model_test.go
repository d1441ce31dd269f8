package model

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func validQuestion(prompt string) Question {
	return Question{
		Prompt:     prompt,
		Options:    []string{"one", "two", "three", "four"},
		Answer:     "B",
		Difficulty: DifficultyEasy,
	}
}

func validQuiz() Quiz {
	return Quiz{Questions: []Question{
		validQuestion("Q1"), validQuestion("Q2"), validQuestion("Q3"), validQuestion("Q4"),
	}}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want Difficulty
	}{
		{"easy", DifficultyEasy},
		{"medium", DifficultyMedium},
		{"hard", DifficultyHard},
		{" HARD ", DifficultyHard},
		{"", DifficultyMedium},
		{"extreme", DifficultyMedium},
		{"0", DifficultyMedium},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseDifficulty(tt.in); got != tt.want {
				t.Errorf("ParseDifficulty(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDifficultyDuration(t *testing.T) {
	tests := []struct {
		d    Difficulty
		want time.Duration
	}{
		{DifficultyEasy, 300 * time.Second},
		{DifficultyMedium, 240 * time.Second},
		{DifficultyHard, 180 * time.Second},
		{Difficulty("bogus"), 240 * time.Second},
	}
	for _, tt := range tests {
		if got := tt.d.Duration(); got != tt.want {
			t.Errorf("%q.Duration() = %v, want %v", tt.d, got, tt.want)
		}
	}
	if got := DifficultyHard.Seconds(); got != 180 {
		t.Errorf("DifficultyHard.Seconds() = %d, want 180", got)
	}
}

func TestLetters(t *testing.T) {
	for i := 0; i < OptionsPerQuestion; i++ {
		l := LetterAt(i)
		if l.Index() != i {
			t.Errorf("LetterAt(%d).Index() = %d", i, l.Index())
		}
	}
	if LetterAt(4) != Unanswered || LetterAt(-1) != Unanswered {
		t.Error("out of range positions should map to Unanswered")
	}
	if Unanswered.Index() != -1 {
		t.Error("Unanswered should have index -1")
	}

	got, err := ParseLetter(" c ")
	if err != nil || got != "C" {
		t.Errorf("ParseLetter(\" c \") = %q, %v", got, err)
	}
	if _, err := ParseLetter("E"); err == nil {
		t.Error("ParseLetter(E) should fail")
	}
}

func TestParseMode(t *testing.T) {
	for _, in := range []string{"practice", "Timed", " flashcard"} {
		if _, err := ParseMode(in); err != nil {
			t.Errorf("ParseMode(%q): %v", in, err)
		}
	}
	if _, err := ParseMode("exam"); err == nil {
		t.Error("ParseMode(exam) should fail")
	}
}

func TestQuizValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(q *Quiz)
		wantField string
	}{
		{"valid", func(q *Quiz) {}, ""},
		{"three questions", func(q *Quiz) { q.Questions = q.Questions[:3] }, "questions"},
		{"five questions", func(q *Quiz) { q.Questions = append(q.Questions, validQuestion("Q5")) }, "questions"},
		{"empty prompt", func(q *Quiz) { q.Questions[1].Prompt = "" }, "questions[1].question"},
		{"three options", func(q *Quiz) { q.Questions[0].Options = []string{"a", "b", "c"} }, "questions[0].options"},
		{"duplicate options", func(q *Quiz) { q.Questions[2].Options = []string{"a", "b", "a", "d"} }, "questions[2].options"},
		{"blank option", func(q *Quiz) { q.Questions[3].Options = []string{"a", "", "c", "d"} }, "questions[3].options[1]"},
		{"answer out of range", func(q *Quiz) { q.Questions[0].Answer = "E" }, "questions[0].answer"},
		{"missing answer", func(q *Quiz) { q.Questions[0].Answer = Unanswered }, "questions[0].answer"},
		{"bad difficulty", func(q *Quiz) { q.Questions[0].Difficulty = "extreme" }, "questions[0].difficulty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuiz()
			tt.mutate(&q)
			err := q.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			found := false
			for _, issue := range verr.Issues {
				if issue.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("issues %+v do not mention %q", verr.Issues, tt.wantField)
			}
		})
	}
}

func TestQuestionNormalize(t *testing.T) {
	q := Question{
		Prompt:     "  What?  ",
		Options:    []string{" a", "b ", "c", "d"},
		Answer:     " b",
		Difficulty: " Hard",
	}.Normalize()
	if q.Prompt != "What?" || q.Options[0] != "a" || q.Options[1] != "b" || q.Answer != "B" || q.Difficulty != DifficultyHard {
		t.Errorf("Normalize() = %+v", q)
	}
	if err := q.check(); err != nil {
		t.Errorf("normalized question should validate: %v", err)
	}
	if got := q.CorrectOption(); got != "b" {
		t.Errorf("CorrectOption() = %q, want b", got)
	}
}

func TestPartialQuizProgress(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{0, 0}, {1, 25}, {2, 50}, {3, 75}, {4, 100}, {5, 100},
	}
	for _, tt := range tests {
		p := PartialQuiz{Questions: make([]PartialQuestion, tt.n)}
		if got := p.Progress(); got != tt.want {
			t.Errorf("Progress() with %d questions = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestPartialQuizEqual(t *testing.T) {
	a := PartialQuiz{Questions: []PartialQuestion{{Prompt: "Q", Options: []string{"x"}}}}
	b := PartialQuiz{Questions: []PartialQuestion{{Prompt: "Q", Options: []string{"x"}}}}
	if !a.Equal(b) {
		t.Error("identical snapshots should be equal")
	}
	b.Questions[0].Options = []string{"x", "y"}
	if a.Equal(b) {
		t.Error("snapshots with different options should differ")
	}
}

func TestQuizFileRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteQuizFile(&buf, "Cells", validQuiz()); err != nil {
		t.Fatalf("WriteQuizFile: %v", err)
	}
	if !strings.Contains(buf.String(), "title: Cells") {
		t.Errorf("output missing title:\n%s", buf.String())
	}
	title, quiz, err := ReadQuizFile(&buf)
	if err != nil {
		t.Fatalf("ReadQuizFile: %v", err)
	}
	if title != "Cells" || quiz.Len() != QuestionsPerQuiz {
		t.Errorf("got title %q and %d questions", title, quiz.Len())
	}
}

func TestReadQuizFileRejectsShortQuiz(t *testing.T) {
	in := `questions:
  - question: Only one
    options: [a, b, c, d]
    answer: A
    difficulty: easy
`
	if _, _, err := ReadQuizFile(strings.NewReader(in)); err == nil {
		t.Error("expected validation error for a one-question file")
	}
}

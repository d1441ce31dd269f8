package model

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type quizFile struct {
	Title     string     `yaml:"title,omitempty"`
	Questions []Question `yaml:"questions"`
}

// WriteQuizFile encodes a quiz and its display title as YAML.
func WriteQuizFile(w io.Writer, title string, quiz Quiz) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(quizFile{Title: title, Questions: quiz.Questions}); err != nil {
		return fmt.Errorf("encode quiz: %w", err)
	}
	return enc.Close()
}

// ReadQuizFile decodes a YAML quiz and re-applies the schema check.
func ReadQuizFile(r io.Reader) (string, Quiz, error) {
	var f quizFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return "", Quiz{}, fmt.Errorf("decode quiz: %w", err)
	}
	quiz := Quiz{Questions: make([]Question, 0, len(f.Questions))}
	for _, q := range f.Questions {
		quiz.Questions = append(quiz.Questions, q.Normalize())
	}
	if err := quiz.Validate(); err != nil {
		return "", Quiz{}, err
	}
	return f.Title, quiz, nil
}

package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/pdfquiz/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

var fileNameTagRegex = regexp.MustCompile(`(?i)</?\s*file-name\b[^>]*>`)

// maxFileNameRunes bounds how much of a user-supplied file name reaches a prompt.
const maxFileNameRunes = 200

// Kind names one prompt template.
type Kind string

const (
	KindQuizSystem Kind = "quiz_system"
	KindQuizUser   Kind = "quiz_user"
	KindTitle      Kind = "title"
)

var kinds = []Kind{KindQuizSystem, KindQuizUser, KindTitle}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Kind]*template.Template
)

// QuizData holds template data for the quiz prompts.
type QuizData struct {
	Count        int
	Options      int
	Letters      string
	Difficulty   model.Difficulty
	DocumentName string
}

// TitleData holds template data for the title prompt.
type TitleData struct {
	FileName string
}

// Load parses the embedded templates. It is safe to call repeatedly.
func Load() error {
	return LoadFS(templateFS)
}

// LoadFS parses templates from fsys. Only the first call has any effect.
func LoadFS(fsys fs.FS) error {
	loadOnce.Do(func() {
		parsed := make(map[Kind]*template.Template, len(kinds))
		for _, k := range kinds {
			name := "templates/" + string(k) + ".txt"
			content, err := fs.ReadFile(fsys, name)
			if err != nil {
				loadErr = errors.New("failed to read prompt file " + name + ": " + err.Error())
				return
			}
			tmpl, err := template.New(string(k)).Parse(string(content))
			if err != nil {
				loadErr = errors.New("failed to parse prompt template " + name + ": " + err.Error())
				return
			}
			parsed[k] = tmpl
		}
		templates = parsed
	})
	return loadErr
}

// BuildQuizPrompts returns the system and user prompts for a quiz request.
func BuildQuizPrompts(difficulty model.Difficulty, documentName string) (system, user string, err error) {
	letters := make([]string, model.OptionsPerQuestion)
	for i := range letters {
		letters[i] = string(model.LetterAt(i))
	}
	data := QuizData{
		Count:        model.QuestionsPerQuiz,
		Options:      model.OptionsPerQuestion,
		Letters:      strings.Join(letters, ", "),
		Difficulty:   difficulty,
		DocumentName: SanitizeFileName(documentName),
	}
	if system, err = execute(KindQuizSystem, data); err != nil {
		return "", "", err
	}
	if user, err = execute(KindQuizUser, data); err != nil {
		return "", "", err
	}
	return system, user, nil
}

// BuildTitlePrompt returns the prompt asking for a quiz title.
func BuildTitlePrompt(fileName string) (string, error) {
	return execute(KindTitle, TitleData{FileName: SanitizeFileName(fileName)})
}

func execute(kind Kind, data any) (string, error) {
	if err := Load(); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}
	tmpl, ok := templates[kind]
	if !ok {
		return "", errors.New("unknown prompt template: " + string(kind))
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SanitizeFileName strips delimiter tags and control characters and bounds the length.
func SanitizeFileName(name string) string {
	name = fileNameTagRegex.ReplaceAllString(name, "")
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	if utf8.RuneCountInString(name) > maxFileNameRunes {
		runes := []rune(name)
		name = string(runes[:maxFileNameRunes])
	}
	return name
}

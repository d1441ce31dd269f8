package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	appI18n "github.com/pavelanni/pdfquiz/internal/i18n"
	"github.com/pavelanni/pdfquiz/internal/model"
	"github.com/pavelanni/pdfquiz/internal/session"
	"github.com/pavelanni/pdfquiz/internal/timer"
)

type styles struct {
	title    lipgloss.Style
	subtle   lipgloss.Style
	selected lipgloss.Style
	correct  lipgloss.Style
	wrong    lipgloss.Style
	alert    lipgloss.Style
	card     lipgloss.Style
}

func newStyles(noColor bool) styles {
	card := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{title: plain, subtle: plain, selected: plain, correct: plain, wrong: plain, alert: plain, card: card}
	}
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		subtle:   lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		correct:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		wrong:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		alert:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		card:     card.BorderForeground(lipgloss.Color("63")),
	}
}

// View renders the active screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	switch m.screen {
	case screenGenerating:
		return m.viewGenerating()
	case screenPlaying:
		snap := m.runtime.Snapshot()
		switch {
		case snap.Mode == model.ModeFlashcard:
			return m.viewFlashcard(snap)
		case snap.Submitted():
			return m.viewResults(snap)
		}
		return m.viewQuestion(snap)
	}
	return m.viewIntake()
}

func (m Model) viewIntake() string {
	s := m.styles
	marker := func(field int) string {
		if m.field == field {
			return s.selected.Render("›") + " "
		}
		return "  "
	}
	lines := []string{
		s.title.Render(appI18n.T(m.ctx, "AppTitle")),
		s.subtle.Render(appI18n.T(m.ctx, "AppSubtitle")),
		"",
		marker(fieldPath) + appI18n.T(m.ctx, "ChooseFile") + ": " + m.path.View(),
		marker(fieldMode) + appI18n.T(m.ctx, "ChooseMode") + ": ‹ " + modeLabel(m, m.mode) + " ›",
		marker(fieldDifficulty) + appI18n.T(m.ctx, "ChooseDifficulty") + ": ‹ " + difficultyLabel(m, m.difficulty) + " ›",
		"",
	}
	if m.errText != "" {
		lines = append(lines, s.alert.Render(m.errText), "")
	}
	lines = append(lines, s.subtle.Render(appI18n.T(m.ctx, "KeysIntake")))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewGenerating() string {
	s := m.styles
	count := min(m.partial.Len(), model.QuestionsPerQuiz)
	lines := []string{
		m.spinner.View() + " " + s.title.Render(appI18n.T(m.ctx, "GeneratingQuiz")),
		"",
		m.bar.ViewAs(m.partial.Progress() / 100),
		s.subtle.Render(appI18n.Td(m.ctx, "GenerationProgress", map[string]any{
			"Count": count,
			"Total": model.QuestionsPerQuiz,
		})),
		"",
	}
	for i, q := range m.partial.Questions {
		if q.Prompt == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, q.Prompt))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) header(snap session.Snapshot) []string {
	s := m.styles
	var lines []string
	if m.title != "" {
		lines = append(lines, s.title.Render(m.title))
	}
	lines = append(lines, s.subtle.Render(appI18n.Td(m.ctx, "QuestionNofM", map[string]any{
		"N":     snap.Index + 1,
		"Total": snap.Total,
	})))
	if snap.Mode == model.ModeTimed {
		remaining := appI18n.Td(m.ctx, "TimeRemaining", map[string]any{"Time": timer.FormatClock(snap.Remaining)})
		if snap.Remaining <= 30 {
			remaining = s.alert.Render(remaining)
		}
		lines = append(lines, remaining, m.bar.ViewAs(remainingShare(snap)))
	} else {
		lines = append(lines, m.bar.ViewAs(snap.Progress()/100))
	}
	return append(lines, "")
}

func (m Model) viewQuestion(snap session.Snapshot) string {
	s := m.styles
	q := m.runtime.Current()
	lines := m.header(snap)
	lines = append(lines, q.Prompt, "")
	chosen := snap.Answers[snap.Index]
	for i, opt := range q.Options {
		letter := model.LetterAt(i)
		line := fmt.Sprintf("  %s. %s", letter, opt)
		if letter == chosen {
			line = s.selected.Render(fmt.Sprintf("› %s. %s", letter, opt))
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", s.subtle.Render(appI18n.T(m.ctx, "KeysQuiz")))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewFlashcard(snap session.Snapshot) string {
	s := m.styles
	q := m.runtime.Current()
	lines := m.header(snap)

	back := s.subtle.Render(appI18n.T(m.ctx, "ShowAnswer"))
	if snap.Revealed {
		back = s.correct.Render(fmt.Sprintf("%s: %s. %s", appI18n.T(m.ctx, "Answer"), q.Answer, q.CorrectOption()))
	}
	lines = append(lines,
		s.card.Render(q.Prompt+"\n\n"+back),
		"",
		s.subtle.Render(appI18n.T(m.ctx, "KeysFlashcard")),
	)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewResults(snap session.Snapshot) string {
	s := m.styles
	var lines []string
	if m.title != "" {
		lines = append(lines, s.title.Render(m.title))
	}
	lines = append(lines, s.title.Render(appI18n.T(m.ctx, "QuizResults")))
	if snap.Forced {
		lines = append(lines, s.alert.Render(appI18n.T(m.ctx, "TimeUp")))
	}
	score := 0
	if snap.Score != nil {
		score = *snap.Score
	}
	lines = append(lines,
		appI18n.Tpd(m.ctx, "ScoreSummary", snap.Total, map[string]any{"Score": score}),
		s.subtle.Render(appI18n.Tp(m.ctx, "AnsweredCount", snap.Answered())),
		"",
	)

	for i := 0; i < snap.Total; i++ {
		review, err := m.runtime.ReviewAt(i)
		if err != nil {
			continue
		}
		verdict := s.correct.Render(appI18n.T(m.ctx, "Correct"))
		if !review.Correct {
			verdict = s.wrong.Render(appI18n.T(m.ctx, "Incorrect"))
		}
		yours := appI18n.T(m.ctx, "NoAnswer")
		if review.Answer != model.Unanswered {
			yours = appI18n.Td(m.ctx, "YourAnswer", map[string]any{"Answer": review.Answer})
		}
		lines = append(lines,
			fmt.Sprintf("%d. %s", i+1, review.Question.Prompt),
			"   "+strings.Join([]string{
				verdict,
				yours,
				appI18n.Td(m.ctx, "CorrectAnswer", map[string]any{"Answer": review.CorrectAnswer}),
			}, " · "),
		)
	}
	lines = append(lines, "", s.subtle.Render(appI18n.T(m.ctx, "KeysResults")))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func remainingShare(snap session.Snapshot) float64 {
	if snap.Duration <= 0 {
		return 0
	}
	return float64(snap.Remaining) / float64(snap.Duration)
}

func modeLabel(m Model, mode model.Mode) string {
	switch mode {
	case model.ModeTimed:
		return appI18n.T(m.ctx, "ModeTimed")
	case model.ModeFlashcard:
		return appI18n.T(m.ctx, "ModeFlashcard")
	}
	return appI18n.T(m.ctx, "ModePractice")
}

func difficultyLabel(m Model, d model.Difficulty) string {
	switch d {
	case model.DifficultyEasy:
		return appI18n.T(m.ctx, "DifficultyEasy")
	case model.DifficultyHard:
		return appI18n.T(m.ctx, "DifficultyHard")
	}
	return appI18n.T(m.ctx, "DifficultyMedium")
}

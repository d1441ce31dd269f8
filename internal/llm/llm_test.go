package llm

import (
	"context"
	"errors"
	"testing"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Cell Biology Basics", "Cell Biology Basics"},
		{"quoted", `"Cell Biology Basics"`, "Cell Biology Basics"},
		{"markdown heading", "# Cell Biology", "Cell Biology"},
		{"trailing period", "Cell Biology.", "Cell Biology"},
		{"multi line", "Cell Biology\nHere is your title", "Cell Biology"},
		{"blank", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanTitle(tt.in); got != tt.want {
				t.Errorf("cleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

type stubTitles struct {
	title string
	err   error
}

func (s stubTitles) GenerateTitle(context.Context, string) (string, error) {
	return s.title, s.err
}

func TestTitleOrDefault(t *testing.T) {
	ctx := context.Background()
	if got := TitleOrDefault(ctx, stubTitles{title: "Photosynthesis"}, "a.pdf"); got != "Photosynthesis" {
		t.Errorf("TitleOrDefault() = %q, want Photosynthesis", got)
	}
	if got := TitleOrDefault(ctx, stubTitles{err: errors.New("boom")}, "a.pdf"); got != DefaultTitle {
		t.Errorf("TitleOrDefault() on error = %q, want %q", got, DefaultTitle)
	}
	if got := TitleOrDefault(ctx, nil, "a.pdf"); got != DefaultTitle {
		t.Errorf("TitleOrDefault() with nil generator = %q, want %q", got, DefaultTitle)
	}
}

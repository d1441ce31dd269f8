package main

import (
	"strings"
	"testing"
	"time"

	"github.com/pavelanni/pdfquiz/internal/model"
	"github.com/pavelanni/pdfquiz/internal/store"
)

func TestHistoryExport(t *testing.T) {
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	started := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"gen-a", "gen-b"} {
		rec := model.GenerationRecord{
			ID:           id,
			DocumentName: id + ".pdf",
			Difficulty:   model.DifficultyEasy,
			Outcome:      model.OutcomeValidated,
			Questions:    4,
			StartedAt:    started.Add(time.Duration(i) * time.Minute),
			FinishedAt:   started.Add(time.Duration(i)*time.Minute + time.Second),
		}
		if err := db.RecordGeneration(rec); err != nil {
			t.Fatalf("RecordGeneration: %v", err)
		}
	}

	t.Run("single generation", func(t *testing.T) {
		got, err := historyExport(db, "gen-b", 0)
		if err != nil {
			t.Fatalf("historyExport() error = %v", err)
		}
		rec, ok := got.(model.GenerationRecord)
		if !ok || rec.ID != "gen-b" || rec.DocumentName != "gen-b.pdf" {
			t.Errorf("historyExport() = %#v", got)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := historyExport(db, "gen-z", 0)
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("historyExport() error = %v, want not found", err)
		}
	})

	t.Run("whole log", func(t *testing.T) {
		got, err := historyExport(db, "", 1)
		if err != nil {
			t.Fatalf("historyExport() error = %v", err)
		}
		export, ok := got.(model.GenerationExport)
		if !ok || export.Total != 2 || len(export.Generations) != 1 || export.Generations[0].ID != "gen-b" {
			t.Errorf("historyExport() = %#v", got)
		}
	})
}

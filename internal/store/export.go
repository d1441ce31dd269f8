package store

import (
	"fmt"
	"time"

	"github.com/pavelanni/pdfquiz/internal/model"
)

// ExportGenerations builds the export document for the most recent limit
// generations (all of them when limit is zero or less). The outcome tally
// always covers the whole log.
func (s *Store) ExportGenerations(limit int) (model.GenerationExport, error) {
	records, err := s.ListGenerations(limit)
	if err != nil {
		return model.GenerationExport{}, fmt.Errorf("list generations: %w", err)
	}
	counts, err := s.CountByOutcome()
	if err != nil {
		return model.GenerationExport{}, fmt.Errorf("count outcomes: %w", err)
	}
	meta, err := s.AllMetadata()
	if err != nil {
		return model.GenerationExport{}, fmt.Errorf("read metadata: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if records == nil {
		records = []model.GenerationRecord{}
	}
	return model.GenerationExport{
		ExportedAt:  time.Now().UTC(),
		Settings:    meta,
		Total:       total,
		ByOutcome:   counts,
		Generations: records,
	}, nil
}

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/pdfquiz/internal/model"
)

const generationColumns = `id, document_name, document_bytes, difficulty, outcome, detail, partials, questions, started_at, finished_at`

// RecordGeneration stores the metadata of one finished generation.
func (s *Store) RecordGeneration(rec model.GenerationRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO generations (`+generationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.DocumentName, rec.DocumentBytes, rec.Difficulty, rec.Outcome, rec.Detail,
		rec.Partials, rec.Questions, rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert generation %s: %w", rec.ID, err)
	}
	return nil
}

// GetGeneration returns a generation by ID, or sql.ErrNoRows.
func (s *Store) GetGeneration(id string) (model.GenerationRecord, error) {
	row := s.db.QueryRow(`SELECT `+generationColumns+` FROM generations WHERE id = ?`, id)
	return scanGeneration(row)
}

// ListGenerations returns the most recent generations first.
// A limit of zero or less returns all of them.
func (s *Store) ListGenerations(limit int) ([]model.GenerationRecord, error) {
	query := `SELECT ` + generationColumns + ` FROM generations ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []model.GenerationRecord
	for rows.Next() {
		rec, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountByOutcome tallies all recorded generations by terminal outcome.
func (s *Store) CountByOutcome() (map[model.Outcome]int, error) {
	rows, err := s.db.Query(`SELECT outcome, COUNT(*) FROM generations GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[model.Outcome]int)
	for rows.Next() {
		var outcome model.Outcome
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// PruneGenerations deletes generations started before cutoff and reports how many went.
func (s *Store) PruneGenerations(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM generations WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune generations: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (model.GenerationRecord, error) {
	var rec model.GenerationRecord
	err := row.Scan(&rec.ID, &rec.DocumentName, &rec.DocumentBytes, &rec.Difficulty, &rec.Outcome,
		&rec.Detail, &rec.Partials, &rec.Questions, &rec.StartedAt, &rec.FinishedAt)
	if err == sql.ErrNoRows {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("scan generation: %w", err)
	}
	return rec, nil
}

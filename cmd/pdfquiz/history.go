package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavelanni/pdfquiz/internal/store"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Export the generation log as JSON",
		Long:  "Export the generation log as JSON, or a single generation with --id.",
		RunE:  runHistory,
	}
	f := cmd.Flags()
	f.String("db", "pdfquiz.db", "SQLite database path")
	f.String("id", "", "Export only the generation with this ID")
	f.IntP("limit", "n", 50, "Most recent generations to include (0 = all)")
	f.Duration("prune", 0, "Delete generations older than this before exporting (e.g. 720h)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(f)
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v, os.Stderr)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if age := v.GetDuration("prune"); age > 0 {
		n, err := db.PruneGenerations(time.Now().Add(-age))
		if err != nil {
			return fmt.Errorf("prune generations: %w", err)
		}
		slog.Info("pruned generation log", "removed", n, "older_than", age)
	}

	export, err := historyExport(db, v.GetString("id"), v.GetInt("limit"))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

// historyExport returns one generation when id is set, the log otherwise.
func historyExport(db *store.Store, id string, limit int) (any, error) {
	if id == "" {
		export, err := db.ExportGenerations(limit)
		if err != nil {
			return nil, fmt.Errorf("export generations: %w", err)
		}
		return export, nil
	}
	rec, err := db.GetGeneration(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("generation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get generation %s: %w", id, err)
	}
	return rec, nil
}

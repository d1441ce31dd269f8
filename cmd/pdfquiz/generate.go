package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pavelanni/pdfquiz/internal/model"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <document.pdf>",
		Short: "Generate a quiz from a PDF and write it as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.StringP("difficulty", "d", "medium", "Question difficulty (easy, medium, hard)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("db", "", "SQLite generation log path (empty disables the log)")
	addLLMFlags(f)
	addLogFlags(f)
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)
	logger := setupLogging(v, os.Stderr)

	client, err := newClient(v)
	if err != nil {
		return err
	}
	db, err := openLog(v, v.GetString("db"))
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	difficulty := model.ParseDifficulty(v.GetString("difficulty"))
	gen := quizGenerator(newPipeline(client, db, logger), client)
	res, err := gen(ctx, args[0], difficulty, func(p model.PartialQuiz) {
		logger.Info("quiz in progress", "questions", p.Len(), "progress", p.Progress())
	})
	if err != nil {
		return fmt.Errorf("generate quiz: %w", err)
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
	if err := model.WriteQuizFile(w, res.Title, res.Quiz); err != nil {
		return fmt.Errorf("write quiz: %w", err)
	}
	logger.Info("quiz written", "title", res.Title, "output", outPath)
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	appI18n "github.com/pavelanni/pdfquiz/internal/i18n"
	"github.com/pavelanni/pdfquiz/internal/model"
	"github.com/pavelanni/pdfquiz/internal/tui"
)

func playCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play [document.pdf]",
		Short: "Generate and play a quiz in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPlay,
	}
	f := cmd.Flags()
	f.StringP("mode", "m", "practice", "Quiz mode (practice, timed, flashcard)")
	f.StringP("difficulty", "d", "medium", "Question difficulty (easy, medium, hard)")
	f.String("quiz", "", "Replay a quiz YAML file written by the generate command")
	f.StringP("lang", "l", "en", "Interface language (en, ru)")
	f.String("db", "", "SQLite generation log path (empty disables the log)")
	f.String("log-file", "", "Write logs to this file (logs are discarded otherwise)")
	f.Bool("no-color", false, "Disable colors")
	addLLMFlags(f)
	addLogFlags(f)
	return cmd
}

func runPlay(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if path := v.GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := setupLogging(v, logOut)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	mode, err := model.ParseMode(v.GetString("mode"))
	if err != nil {
		return err
	}
	opts := tui.Options{
		Lang:       lang,
		Mode:       mode,
		Difficulty: model.ParseDifficulty(v.GetString("difficulty")),
		NoColor:    v.GetBool("no-color"),
		Logger:     logger,
	}
	if len(args) == 1 {
		opts.Path = args[0]
	}

	if path := v.GetString("quiz"); path != "" {
		loaded, err := loadQuiz(path)
		if err != nil {
			return err
		}
		opts.Loaded = &loaded
		if !cmd.Flags().Changed("difficulty") {
			opts.Difficulty = loaded.Quiz.Questions[0].Difficulty
		}
	}

	// A replayed quiz needs no model endpoint; without a key the intake
	// screen reports generation as unavailable.
	var gen tui.Generator
	if v.GetString("llm-key") != "" || opts.Loaded == nil {
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
		gen = quizGenerator(newPipeline(client, db, logger), client)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return tui.Run(ctx, gen, opts)
}

func loadQuiz(path string) (tui.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return tui.Result{}, fmt.Errorf("open quiz file: %w", err)
	}
	defer f.Close()
	title, quiz, err := model.ReadQuizFile(f)
	if err != nil {
		return tui.Result{}, fmt.Errorf("read quiz file %s: %w", path, err)
	}
	return tui.Result{Title: title, Quiz: quiz}, nil
}

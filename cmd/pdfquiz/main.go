package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/pdfquiz/internal/generate"
	"github.com/pavelanni/pdfquiz/internal/intake"
	"github.com/pavelanni/pdfquiz/internal/llm"
	"github.com/pavelanni/pdfquiz/internal/model"
	"github.com/pavelanni/pdfquiz/internal/store"
	"github.com/pavelanni/pdfquiz/internal/tui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "pdfquiz",
		Short:   "Turn a PDF into a four-question multiple-choice quiz",
		Version: version,
	}

	serve := serveCmd()
	root.AddCommand(serve, generateCmd(), playCmd(), historyCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `pdfquiz --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// addLLMFlags registers the model endpoint flags shared by every command that
// talks to the model.
func addLLMFlags(f *pflag.FlagSet) {
	f.String("llm-url", "https://generativelanguage.googleapis.com/v1beta/openai/", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for the model endpoint")
	f.String("llm-model", "gemini-1.5-flash", "Model name")
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(v *viper.Viper, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(w, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(w, handlerOpts)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)
	return logger
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PDFQUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("pdfquiz")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/pdfquiz")
	v.AddConfigPath("/etc/pdfquiz")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func newClient(v *viper.Viper) (*llm.Client, error) {
	key := v.GetString("llm-key")
	if key == "" {
		return nil, fmt.Errorf("model API key is required: set --llm-key or PDFQUIZ_LLM_KEY")
	}
	return llm.New(v.GetString("llm-url"), key, v.GetString("llm-model")), nil
}

// openLog opens the generation log at path and records the model settings.
// An empty path disables the log.
func openLog(v *viper.Viper, path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	settings := map[string]string{
		store.MetaModel:   v.GetString("llm-model"),
		store.MetaBaseURL: v.GetString("llm-url"),
		store.MetaVersion: version,
	}
	for k, val := range settings {
		if err := db.SetMetadata(k, val); err != nil {
			db.Close()
			return nil, fmt.Errorf("write metadata %s: %w", k, err)
		}
	}
	return db, nil
}

// newPipeline builds the generation pipeline, recording every outcome in db when it is set.
func newPipeline(source generate.Source, db *store.Store, logger *slog.Logger) *generate.Pipeline {
	opts := []generate.Option{generate.WithLogger(logger)}
	if db != nil {
		opts = append(opts, generate.WithObserver(func(rec model.GenerationRecord) {
			if err := db.RecordGeneration(rec); err != nil {
				logger.Error("failed to record generation", "id", rec.ID, "error", err)
			}
		}))
	}
	return generate.New(source, opts...)
}

// quizGenerator opens the document at path and runs title and quiz
// generation side by side. The title never fails; a quiz failure cancels it.
func quizGenerator(p *generate.Pipeline, titles llm.TitleGenerator) tui.Generator {
	return func(ctx context.Context, path string, difficulty model.Difficulty, onPartial func(model.PartialQuiz)) (tui.Result, error) {
		doc, err := intake.Open(path)
		if err != nil {
			return tui.Result{}, err
		}

		var res tui.Result
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			res.Title = llm.TitleOrDefault(gctx, titles, doc.Name)
			return nil
		})
		g.Go(func() error {
			quiz, err := p.Run(gctx, generate.Request{Document: doc, Difficulty: string(difficulty)}, onPartial)
			if err != nil {
				return err
			}
			res.Quiz = quiz
			return nil
		})
		if err := g.Wait(); err != nil {
			return tui.Result{}, err
		}
		return res, nil
	}
}

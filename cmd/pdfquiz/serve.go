package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/pavelanni/pdfquiz/internal/handler"
	appI18n "github.com/pavelanni/pdfquiz/internal/i18n"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz generation server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "pdfquiz.db", "SQLite generation log path (empty disables the log)")
	f.StringP("lang", "l", "en", "Default message language (en, ru)")
	f.Duration("request-timeout", 0, "Upper bound for one generation request (0 = none)")
	f.Bool("ping", true, "Check the model endpoint before serving")
	addLLMFlags(f)
	addLogFlags(f)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	logger := setupLogging(v, os.Stderr)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	client, err := newClient(v)
	if err != nil {
		return err
	}
	if v.GetBool("ping") {
		if err := client.Ping(context.Background()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		logger.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	}

	db, err := openLog(v, v.GetString("db"))
	if err != nil {
		return err
	}
	opts := []handler.Option{
		handler.WithTitles(client),
		handler.WithRequestTimeout(v.GetDuration("request-timeout")),
	}
	if db != nil {
		defer db.Close()
		opts = append(opts, handler.WithStore(db))
	}

	h := handler.New(newPipeline(client, db, logger), opts...)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"db", v.GetString("db"),
		"version", version,
	)
	return http.ListenAndServe(addr, r)
}

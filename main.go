package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mailresolve/cache"
	"mailresolve/config"
	"mailresolve/fetch"
	"mailresolve/imap"
	"mailresolve/mbox"
	"mailresolve/model"
	"mailresolve/prompt"
	"mailresolve/resolver"
	"mailresolve/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mailresolve",
		Short: "Locate a notification message around an event timestamp and extract its evidence row",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cmd)
			if err != nil {
				return err
			}

			logger, cleanup, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = cleanup()
			}()

			slog.SetDefault(logger)
			logger.Info("starting mailresolve", "anchor", cfg.Anchor, "personnelID", cfg.PersonnelID, "store", cfg.StoreKind)

			return run(cmd.Context(), cfg, logger)
		},
	}

	if err := config.RegisterFlags(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register CLI flags: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeStore()
	}()

	rules := cache.New(cfg.RulesPath)
	special, err := rules.IsSpecialCase(cfg.Company)
	if err != nil {
		return fmt.Errorf("load company rules: %w", err)
	}

	var selector prompt.Selector
	if !cfg.NonInteractive {
		selector = prompt.NewTerminalSelector()
	}

	r := resolver.Resolver{
		Store:    st,
		Fetcher:  fetch.NewHTTPFetcher(cfg.FetchTimeout),
		Selector: selector,
		Options: resolver.Options{
			HalfWidth:    time.Duration(cfg.WindowSeconds) * time.Second,
			NearestLimit: cfg.NearestLimit,
			TempDir:      cfg.TempDir,
		},
		Logger: logger,
	}

	ectx := model.Context{
		Anchor:               cfg.Anchor,
		PersonnelID:          cfg.PersonnelID,
		PersonName:           cfg.PersonName,
		CompanyIsSpecialCase: special,
	}

	evidence, err := r.Resolve(ctx, ectx)
	if err != nil {
		return err
	}

	printEvidence(evidence)
	return nil
}

func openStore(cfg config.Config, logger *slog.Logger) (store.Store, func() error, error) {
	switch cfg.StoreKind {
	case config.StoreMbox:
		st, err := mbox.NewStore(cfg.MboxDir, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("mbox.NewStore: %w", err)
		}
		return st, func() error { return nil }, nil
	case config.StoreIMAP:
		st, err := imap.Dial(imap.Options{
			Host:               cfg.IMAPHost,
			Port:               cfg.IMAPPort,
			Username:           cfg.IMAPUser,
			Password:           cfg.IMAPPass,
			UseTLS:             cfg.UseTLS,
			InsecureSkipVerify: cfg.InsecureSkip,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("imap.Dial: %w", err)
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("invalid store kind: %s", cfg.StoreKind)
	}
}

func printEvidence(ev *model.Evidence) {
	fmt.Printf("sheet: %s\n", ev.SheetName)
	fmt.Printf("row:   %d\n", ev.RowIndex)
	for i, cell := range ev.Row {
		fmt.Printf("  col %d: %v\n", i+1, cell)
	}
	fmt.Printf("sender: %s\n", ev.Sender)
	if len(ev.CC) > 0 {
		fmt.Printf("cc:     %v\n", ev.CC)
	}
	if len(ev.BCC) > 0 {
		fmt.Printf("bcc:    %v\n", ev.BCC)
	}
}

func setupLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("mailresolve-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler), cleanup, nil
}

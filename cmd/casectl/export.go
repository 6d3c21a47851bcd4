package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"casechain/config"
	"casechain/explorer"
)

func runExport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(exportCommand, flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the casechain config file")
	dsn := fs.String("dsn", "", "Explorer DSN; defaults to Explorer.DSN from the config")
	out := fs.String("out", "events.parquet", "Output parquet file")
	after := fs.Uint64("after", 0, "Export events with a sequence above this value")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		*dsn = cfg.Explorer.DSN
	}
	if *dsn == "" {
		return errors.New("no explorer DSN configured")
	}
	store, err := explorer.Open(*dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	file, err := os.Create(*out)
	if err != nil {
		return err
	}
	written, err := store.ExportParquet(context.Background(), file, *after)
	if err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported %d events to %s\n", written, *out)
	return nil
}

// Package main lists and restores earlier revisions of the ledger documents
// kept in the sqlite store. Stop the server before restoring.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"timecard/internal/cli"
	"timecard/internal/log"
	"timecard/internal/storage"
)

func main() {
	var (
		key      string
		revision int64
		list     int
	)
	flag.StringVar(&key, "key", "", "document to inspect: tasks, logs, todos or monthly_status")
	flag.Int64Var(&revision, "revision", 0, "archived revision to restore")
	flag.IntVar(&list, "list", storage.HistoryDepth, "number of archived revisions to list when -revision is not set")
	flag.Parse()

	cfg, err := cli.LoadConfig(nil)
	if err != nil {
		cli.Fatal("Invalid configuration", err)
	}
	if cfg.DataBackend != "sqlite" {
		cli.Fatal("Nothing to restore", fmt.Errorf("DATA_BACKEND is %q, history is kept by the sqlite backend only", cfg.DataBackend))
	}
	k, ok := storage.ParseKey(key)
	if !ok {
		cli.Fatal("Invalid -key", fmt.Errorf("unknown document %q", key))
	}
	logger := cli.SetupLogger(cfg, log.ComponentStorage)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open SQLite store", log.FieldError, err, "db_path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	if revision == 0 {
		hist, err := store.History(ctx, k, list)
		if err != nil {
			logger.Error("Failed to read history", log.FieldError, err)
			os.Exit(1)
		}
		for _, d := range hist {
			fmt.Printf("%6d  %d bytes\n", d.Revision, len(d.Value))
		}
		return
	}

	doc, err := store.Restore(ctx, k, revision)
	if err != nil {
		logger.Error("Restore failed", log.FieldError, err, "key", key, "revision", revision)
		os.Exit(1)
	}
	fmt.Printf("restored %s revision %d as revision %d\n", k, revision, doc.Revision)
}

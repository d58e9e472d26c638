package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"go.uber.org/zap"

	"github.com/4thel00z/recall/internal"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	app := newApp()
	defer app.log.Sync() //nolint:errcheck

	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg      *internal.Config
	log      *zap.Logger
	searcher *internal.Searcher
	dedup    *internal.DedupStore
}

func newApp() *app {
	cfg, err := internal.LoadConfig(os.Getenv("RECALL_CONFIG"))
	if err != nil {
		// A broken config must not break the hooks; fall back to defaults.
		cfg = internal.DefaultConfig()
	}

	log := internal.NewLogger(cfg.Log)

	return &app{
		cfg: cfg,
		log: log,
		searcher: internal.NewSearcher(
			cfg.Search.Binary, cfg.Search.Collection, cfg.SearchTimeout(), log),
		dedup: internal.NewDedupStore(cfg.Memory.StateDir, cfg.Memory.MaxShown),
	}
}

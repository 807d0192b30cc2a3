package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iliyamo/carshare-console/internal/config"
	"github.com/iliyamo/carshare-console/internal/database"
	"github.com/iliyamo/carshare-console/internal/logger"
)

func main() {
	down := flag.Int("down", 0, "revert this many migrations instead of applying")
	version := flag.Bool("version", false, "print the applied schema version and exit")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.ServiceName+"-migrate", cfg.LogLevel, cfg.Env)
	defer func() { _ = log.Sync() }()

	m, err := database.NewMigrator(cfg.DatabaseSettings(), log)
	if err != nil {
		log.Error("migrator init failed", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = m.Close() }()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil {
			log.Error("read version failed", logger.Error(err))
			os.Exit(1)
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
	case *down > 0:
		if err := m.Down(*down); err != nil {
			log.Error("migrate down failed", logger.Int("steps", *down), logger.Error(err))
			os.Exit(1)
		}
		log.Info("migrations reverted", logger.Int("steps", *down))
	default:
		if err := m.Up(); err != nil {
			log.Error("migrate up failed", logger.Error(err))
			os.Exit(1)
		}
	}
}

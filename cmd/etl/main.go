package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/app"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/infrastructure/persistence"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/usecase"
)

func main() {
	os.Exit(run())
}

func run() int {
	workers := flag.IntP("workers", "w", 0, "parallel mapping workers (default etl.workers)")
	batchSize := flag.IntP("batch-size", "b", 0, "products per write transaction (default etl.batch_size)")
	limit := flag.IntP("limit", "l", 0, "maximum enriched documents to load (default etl.enriched_limit)")
	flag.Parse()

	cfg, log, err := app.Bootstrap()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	etlConfig := usecase.ETLServiceConfig{
		BatchSize:     cfg.ETL.BatchSize,
		Workers:       cfg.ETL.Workers,
		EnrichedLimit: cfg.ETL.EnrichedLimit,
	}
	if *workers > 0 {
		etlConfig.Workers = *workers
	}
	if *batchSize > 0 {
		etlConfig.BatchSize = *batchSize
	}
	if *limit > 0 {
		etlConfig.EnrichedLimit = *limit
	}

	db, err := app.OpenDatabase(cfg, log)
	if err != nil {
		log.Error("Failed to open database", "error", err)
		return 1
	}
	defer app.CloseDatabase(db, log)

	etl := usecase.NewETLService(
		persistence.NewEnrichedStore(db),
		persistence.NewResolver(db),
		persistence.NewProductWriter(db),
		log,
		etlConfig,
	)

	summary, err := etl.Run(ctx)
	if err != nil {
		log.Error("ETL run failed", "error", err)
		return 1
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
	return 0
}

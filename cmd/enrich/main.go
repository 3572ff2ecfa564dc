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
	limit := flag.IntP("limit", "l", 10000, "maximum number of raw documents to enrich")
	onlyNew := flag.Bool("only-new", false, "skip raw documents that already have an enrichment result")
	flag.Parse()

	cfg, log, err := app.Bootstrap()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDatabase(cfg, log)
	if err != nil {
		log.Error("Failed to open database", "error", err)
		return 1
	}
	defer app.CloseDatabase(db, log)

	service := usecase.NewEnrichmentService(persistence.NewRawStore(db), persistence.NewEnrichedStore(db), log)

	stats, err := service.Run(ctx, usecase.EnrichOptions{Limit: *limit, OnlyNew: *onlyNew})
	if err != nil {
		log.Error("Enrichment failed", "error", err, "processed", stats.Processed)
		return 1
	}

	totals, err := service.Totals(ctx)
	if err != nil {
		log.Error("Failed to count stored documents", "error", err)
		return 1
	}

	summary, _ := json.MarshalIndent(struct {
		usecase.EnrichmentStats
		Totals *usecase.StoreTotals `json:"totals"`
	}{stats, totals}, "", "  ")
	fmt.Println(string(summary))
	return 0
}

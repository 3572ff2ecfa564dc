package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
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
	target := flag.IntP("target", "n", 0, "number of valid products to collect (default openfoodfacts.target_count)")
	categories := flag.StringP("categories", "c", "", "comma-separated category tags (default openfoodfacts.categories)")
	output := flag.StringP("output", "o", "", "also write the collected payloads to this JSON file")
	noStore := flag.Bool("no-store", false, "skip writing to the raw store")
	flag.Parse()

	cfg, log, err := app.Bootstrap()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *target <= 0 {
		*target = cfg.OpenFoodFacts.TargetCount
	}
	var categoryList []string
	if *categories != "" {
		for _, c := range strings.Split(*categories, ",") {
			if c = strings.TrimSpace(c); c != "" {
				categoryList = append(categoryList, c)
			}
		}
	}

	db, err := app.OpenDatabase(cfg, log)
	if err != nil {
		log.Error("Failed to open database", "error", err)
		return 1
	}
	defer app.CloseDatabase(db, log)

	collector := usecase.NewCollectorService(
		app.NewOpenFoodFactsClient(cfg.OpenFoodFacts, log),
		persistence.NewRawStore(db),
		log,
		usecase.CollectorConfig{
			PageSize:   cfg.OpenFoodFacts.PageSize,
			Country:    cfg.OpenFoodFacts.Country,
			Categories: cfg.OpenFoodFacts.Categories,
		},
	)

	products, stats, err := collector.Collect(ctx, *target, categoryList)
	if err != nil && len(products) == 0 {
		log.Error("Collection failed", "error", err)
		return 1
	}
	if err != nil {
		log.Warn("Collection interrupted, keeping partial results", "error", err, "collected", len(products))
	}

	if *output != "" {
		if err := writeJSON(*output, products); err != nil {
			log.Error("Failed to write output file", "path", *output, "error", err)
			return 1
		}
		log.Info("Payloads written", "path", *output, "count", len(products))
	}

	inserted := 0
	if !*noStore {
		// Store even when interrupted so collected pages are not lost
		inserted, err = collector.Store(context.WithoutCancel(ctx), products)
		if err != nil {
			log.Error("Failed to store raw payloads", "error", err)
			return 1
		}
	}

	summary, _ := json.MarshalIndent(struct {
		usecase.CollectStats
		Inserted int `json:"inserted"`
	}{stats, inserted}, "", "  ")
	fmt.Println(string(summary))
	return 0
}

func writeJSON(path string, payloads []map[string]any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payloads); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

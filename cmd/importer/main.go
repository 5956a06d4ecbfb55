package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"geoanalytics-api/internal/config"
	"geoanalytics-api/internal/logging"
	"geoanalytics-api/internal/repository"
	"geoanalytics-api/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

type store interface {
	service.DatasetRepository
	Migrate(ctx context.Context) error
}

func main() {
	file := flag.String("file", "", "Path to the CSV, TSV, XLSX or JSON file to import")
	name := flag.String("name", "", "Dataset name (defaults to the file name)")
	configPath := flag.String("config", "configs", "Directory containing app.yaml")
	flag.Parse()

	if *file == "" {
		fmt.Println("Error: --file flag is required")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, true)

	ctx := context.Background()

	repo, closeRepo, err := openStore(ctx, cfg.Database)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer closeRepo()

	if err := repo.Migrate(ctx); err != nil {
		fmt.Printf("Error creating tables: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Printf("Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	datasetName := *name
	if datasetName == "" {
		datasetName = filepath.Base(*file)
	} else if filepath.Ext(datasetName) != filepath.Ext(*file) {
		datasetName += filepath.Ext(*file)
	}

	fmt.Printf("Starting import from file: %s\n", *file)

	svc := service.NewDatasetService(repo, nil, service.DatasetOptions{
		DetectSampleSize: cfg.Pipeline.DetectSampleSize,
	})
	result, err := svc.Upload(ctx, datasetName, f)
	if err != nil {
		fmt.Printf("Error importing dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully imported %d rows as dataset %s\n", result.Dataset.RowCount, result.Dataset.ID)

	mapping, err := json.MarshalIndent(result.SuggestedMapping, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding mapping: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Suggested mapping:\n%s\n", mapping)
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (store, func(), error) {
	if cfg.Driver == "postgres" {
		pool, err := pgxpool.New(ctx, cfg.Source)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresRepository(pool), pool.Close, nil
	}

	db, err := repository.OpenSQLite(cfg.Source)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewSQLiteRepository(db), func() { db.Close() }, nil
}

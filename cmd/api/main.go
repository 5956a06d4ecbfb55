package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "geoanalytics-api/docs"
	"geoanalytics-api/internal/config"
	"geoanalytics-api/internal/handler"
	"geoanalytics-api/internal/logging"
	"geoanalytics-api/internal/middleware"
	"geoanalytics-api/internal/repository"
	"geoanalytics-api/internal/service"
	"geoanalytics-api/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ringsaturn/tzf"
	"github.com/rs/zerolog/log"
)

type datasetStore interface {
	service.DatasetRepository
	Migrate(ctx context.Context) error
}

//	@title			Geoanalytics API
//	@version		1.0
//	@description	Upload tabular files and derive map, cluster and route data from them.
//	@BasePath		/
func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logging.Setup(config.Log.Level, config.Log.Pretty)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Dataset store
	var repo datasetStore
	switch config.Database.Driver {
	case "postgres":
		conn, err := pgxpool.New(ctx, config.Database.Source)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to db")
		}
		defer conn.Close()
		repo = repository.NewPostgresRepository(conn)
	default:
		var db *sql.DB
		db, err = repository.OpenSQLite(config.Database.Source)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot open sqlite db")
		}
		defer db.Close()
		repo = repository.NewSQLiteRepository(db)
	}
	if err := repo.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("cannot migrate db")
	}

	// Optional upload archive
	var archive service.Archive
	if config.Storage.S3.Enabled() {
		s3Archive, err := storage.NewS3Archive(ctx, config.Storage.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot create upload archive")
		}
		archive = s3Archive
	}

	// Optional timezone lookup
	var zones service.TimezoneLocator
	if config.Pipeline.TimezoneLookup {
		finder, err := tzf.NewDefaultFinder()
		if err != nil {
			log.Warn().Err(err).Msg("timezone lookup disabled")
		} else {
			zones = finder
		}
	}

	// Initialize layers
	datasetService := service.NewDatasetService(repo, archive, service.DatasetOptions{
		MaxUploadBytes:   config.Server.MaxUploadBytes(),
		DetectSampleSize: config.Pipeline.DetectSampleSize,
	})
	geoService := service.NewGeoService(datasetService, zones, service.PipelineOptions{
		PreviewRows:       config.Pipeline.PreviewRows,
		CellSize:          config.Pipeline.ClusterCellSize,
		SimplifyTolerance: config.Pipeline.SimplifyTolerance,
	})

	routerConfig := handler.RouterConfig{
		Datasets:  handler.NewDatasetHandler(datasetService),
		Geo:       handler.NewGeoHandler(geoService),
		JWTSecret: config.Auth.JWTSecret,
	}
	if config.RateLimit.RPS > 0 {
		routerConfig.RateLimiter = middleware.NewRateLimiter(config.RateLimit.RPS, config.RateLimit.Burst)
	}

	r := handler.SetupRouter(routerConfig)
	r.MaxMultipartMemory = config.Server.MaxUploadBytes()

	srv := &http.Server{
		Addr:              config.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("address", config.Server.Address).Str("driver", config.Database.Driver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("server stopped")
}

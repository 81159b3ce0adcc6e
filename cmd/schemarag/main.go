package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/schemarag/schemarag/internal/ai"
	"github.com/schemarag/schemarag/internal/config"
	"github.com/schemarag/schemarag/internal/db"
	"github.com/schemarag/schemarag/internal/discover"
	"github.com/schemarag/schemarag/internal/embedcache"
	"github.com/schemarag/schemarag/internal/filestore"
	"github.com/schemarag/schemarag/internal/handler"
	"github.com/schemarag/schemarag/internal/job"
	"github.com/schemarag/schemarag/internal/middleware"
	"github.com/schemarag/schemarag/internal/pkg/password"
	"github.com/schemarag/schemarag/internal/repo"
	"github.com/schemarag/schemarag/internal/schedule"
	"github.com/schemarag/schemarag/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "schemarag",
		Short: "schemarag backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run schemarag server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(newHashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "hash an operator password for the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashed, err := password.Hash(args[0])
			if err != nil {
				return err
			}
			cmd.Println(hashed)
			return nil
		},
	}
}

// buildAIChain assembles the generator and embedder chains: the primary
// provider first, then each configured fallback in order.
func buildAIChain(cfg config.AIConfig) (ai.IGenerator, ai.IEmbedder, error) {
	aiProvider, err := ai.NewAIProvider(cfg.Provider, cfg.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("init ai provider: %w", err)
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.EmbedProvider, cfg.EmbedData)
	if err != nil {
		return nil, nil, fmt.Errorf("init embed provider: %w", err)
	}

	generators := []ai.GeneratorEntry{{
		Name:      cfg.Provider + "/" + cfg.Model,
		Generator: ai.NewGenerator(aiProvider, cfg.Model),
	}}
	embedders := []ai.EmbedderEntry{{
		Name:     cfg.EmbedModel,
		Embedder: ai.NewEmbedder(embedProvider, cfg.EmbedModel),
	}}
	for i, fb := range cfg.Fallbacks {
		p, err := ai.NewAIProvider(fb.Provider, fb.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("init fallback provider %d: %w", i, err)
		}
		generators = append(generators, ai.GeneratorEntry{
			Name:      fb.Provider + "/" + fb.Model,
			Generator: ai.NewGenerator(p, fb.Model),
		})
		if fb.EmbedModel == "" {
			continue
		}
		ep, err := ai.NewEmbedProvider(fb.Provider, fb.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("init fallback embed provider %d: %w", i, err)
		}
		embedders = append(embedders, ai.EmbedderEntry{
			Name:     fb.EmbedModel,
			Embedder: ai.NewEmbedder(ep, fb.EmbedModel),
		})
	}
	return ai.NewGroupGenerator(generators), ai.NewGroupEmbedder(embedders), nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("embed_provider", cfg.AI.EmbedProvider),
		zap.String("file_store", cfg.FileStore.Type),
	)

	docRepo := repo.NewSchemaDocRepo(database)
	cacheRepo := repo.NewEmbeddingCacheRepo(database)

	generator, embedder, err := buildAIChain(cfg.AI)
	if err != nil {
		return err
	}
	if cfg.EmbedCache.UseDBCache {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	}
	if cfg.EmbedCache.LRUSize > 0 {
		embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.EmbedCache.LRUSize,
			time.Duration(cfg.EmbedCache.TTLMinutes)*time.Minute)
	}
	manager := ai.NewManager(generator, generator, generator, embedder, ai.ManagerConfig{
		Timeout: cfg.AI.Timeout,
	})

	ragService := service.NewRAGService(docRepo, manager, service.RAGConfig{
		DefaultLimit:       cfg.Search.DefaultLimit,
		MaxParallelEmbed:   cfg.Discovery.MaxParallelEmbed,
		NoSemanticFallback: cfg.Search.NoSemanticFallback,
	})
	connService := service.NewConnectionService(discover.Options{
		SampleSize:    cfg.Discovery.SampleSize,
		MaxFieldDepth: cfg.Discovery.MaxFieldDepth,
	})
	ingestService := service.NewIngestService(connService, ragService, cfg.Discovery.Targets)
	nlqService := service.NewNLQService(ragService, connService, manager)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	exportService := service.NewExportService(ragService, store)

	deps := handler.RouterDeps{
		Auth:        handler.NewAuthHandler(cfg.Operator, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours)),
		Connections: handler.NewConnectionHandler(connService, ingestService),
		Schemas:     handler.NewSchemaHandler(ragService),
		NLQ:         handler.NewNLQHandler(nlqService),
		Export:      handler.NewExportHandler(exportService, store),
		Admin:       handler.NewAdminHandler(ragService),
		JWTSecret:   []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
			middleware.RateLimit(time.Duration(cfg.RateLimitWindowMS)*time.Millisecond),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ingestService.OpenTargets(ctx)

	var sched *schedule.CronScheduler
	if cfg.Refresh.Enabled {
		sched = schedule.NewCronScheduler()
		if err := sched.AddJob(job.NewSchemaRefreshJob(ingestService), cfg.Refresh.Cron); err != nil {
			return fmt.Errorf("schedule refresh job: %w", err)
		}
		if cfg.EmbedCache.UseDBCache {
			if err := sched.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, 30), "0 4 * * *"); err != nil {
				return fmt.Errorf("schedule cache cleanup job: %w", err)
			}
		}
		sched.Start(ctx)
	}

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	if sched != nil {
		sched.Stop()
	}
	connService.CloseAll(context.Background())
	return nil
}

// Package main is the entry point for the PM Assistant Service.
// @title PM Assistant Service API
// @version 1.0
// @description Chat assistant backend for property managers: threads, workflow-aware replies, email drafts, action plans and usage telemetry.

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer access token issued by the identity provider
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/pmservice/assistant-service/docs"
	"github.com/pmservice/assistant-service/internal/api/handlers"
	"github.com/pmservice/assistant-service/internal/api/middleware"
	"github.com/pmservice/assistant-service/internal/api/routes"
	"github.com/pmservice/assistant-service/internal/config"
	"github.com/pmservice/assistant-service/internal/core/cache"
	"github.com/pmservice/assistant-service/internal/core/chatdb"
	"github.com/pmservice/assistant-service/internal/core/docdb"
	"github.com/pmservice/assistant-service/internal/core/llm"
	"github.com/pmservice/assistant-service/internal/core/vault"
	rediscache "github.com/pmservice/assistant-service/internal/infrastructure/cache/redis"
	"github.com/pmservice/assistant-service/internal/infrastructure/chatdb/memory"
	"github.com/pmservice/assistant-service/internal/infrastructure/chatdb/postgres"
	"github.com/pmservice/assistant-service/internal/infrastructure/chatdb/sqlite"
	"github.com/pmservice/assistant-service/internal/infrastructure/docdb/mongodb"
	"github.com/pmservice/assistant-service/internal/infrastructure/llm/gemini"
	"github.com/pmservice/assistant-service/internal/infrastructure/llm/openai"
	dotenvvault "github.com/pmservice/assistant-service/internal/infrastructure/vault/dotenv"
	filevault "github.com/pmservice/assistant-service/internal/infrastructure/vault/file"
	"github.com/pmservice/assistant-service/internal/pkg/encryption"
	"github.com/pmservice/assistant-service/internal/services/assistant"
	"github.com/pmservice/assistant-service/internal/services/conversation"
	"github.com/pmservice/assistant-service/internal/services/identity"
	"github.com/pmservice/assistant-service/internal/services/session"
	"github.com/pmservice/assistant-service/internal/services/telemetry"
	"github.com/pmservice/assistant-service/internal/services/workflow"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pm-assistant",
		Short:         "Property manager chat assistant service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return runServe(cmd.Context()) },
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runServe(cmd.Context()) },
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and indexes, then exit",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runMigrate(cmd.Context()) },
	})

	return root
}

// bootstrap loads configuration, resolves secrets and configures logging.
func bootstrap(ctx context.Context) (*config.Config, vault.Vault, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return nil, nil, err
	}
	setupLogging(cfg.Log)

	vaultClient, err := createVault(cfg.Vault)
	if err != nil {
		log.Error().Err(err).Str("type", cfg.Vault.Type).Msg("failed to initialize vault")
		return nil, nil, err
	}
	if err := config.ResolveSecrets(ctx, vaultClient, cfg); err != nil {
		_ = vaultClient.Close()
		log.Error().Err(err).Msg("failed to resolve secrets")
		return nil, nil, err
	}
	return cfg, vaultClient, nil
}

func runServe(ctx context.Context) error {
	cfg, vaultClient, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer vaultClient.Close()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("configuration incomplete")
		return err
	}

	cacheClient, err := createCache(ctx, cfg.Cache)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize cache")
		return err
	}
	defer cacheClient.Close()

	chatDB, err := createChatDB(ctx, cfg.ChatDB)
	if err != nil {
		log.Error().Err(err).Str("type", cfg.ChatDB.Type).Msg("failed to initialize chat database")
		return err
	}
	defer chatDB.Close()

	if err := chatDB.Migrate(ctx); err != nil {
		log.Error().Err(err).Msg("failed to migrate chat database")
		return err
	}

	sink, closeSink, err := createTelemetrySink(ctx, cfg.Telemetry, chatDB)
	if err != nil {
		log.Error().Err(err).Str("sink", cfg.Telemetry.Sink).Msg("failed to initialize telemetry sink")
		return err
	}
	defer closeSink()

	exporter, err := createExporter(cfg.Telemetry)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize trace exporter")
		return err
	}

	location := time.Local
	if cfg.Telemetry.Timezone != "" {
		if location, err = time.LoadLocation(cfg.Telemetry.Timezone); err != nil {
			log.Error().Err(err).Str("timezone", cfg.Telemetry.Timezone).Msg("invalid telemetry timezone")
			return err
		}
	}

	collector, err := telemetry.NewCollector(&telemetry.Config{
		Sink:          sink,
		Exporter:      exporter,
		ExportTimeout: cfg.Telemetry.ExportTimeout,
		Logger:        log.Logger.With().Str("component", "telemetry").Logger(),
		Location:      location,
	})
	if err != nil {
		return err
	}

	llmClient, err := createLLM(ctx, cfg.LLM)
	if err != nil {
		log.Error().Err(err).Str("provider", cfg.LLM.Provider).Msg("failed to initialize language model")
		return err
	}
	defer llmClient.Close()

	encryptor, err := encryption.New(cfg.Vault.EncryptionKey)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize encryptor")
		return err
	}
	if cfg.Vault.EncryptionKey == "" {
		log.Warn().Msg("SECRETS_ENCRYPTION_KEY not set, sessions are stored unencrypted")
	}

	sessionService, err := session.NewService(&session.Config{
		Cache:     cacheClient,
		Encryptor: encryptor,
		TTL:       cfg.Cache.TTL,
		Logger:    log.Logger.With().Str("component", "session").Logger(),
	})
	if err != nil {
		return err
	}

	conversations, err := conversation.NewService(&conversation.Config{
		DB:     chatDB,
		Logger: log.Logger.With().Str("component", "conversation").Logger(),
	})
	if err != nil {
		return err
	}

	assistantService, err := assistant.NewService(&assistant.Config{
		Conversations: conversations,
		Classifier:    workflow.NewClassifier(cfg.LLM.PhaseTags),
		LLM:           llmClient,
		Telemetry:     collector,
		Logger:        log.Logger.With().Str("component", "assistant").Logger(),
	})
	if err != nil {
		return err
	}

	identityClient, err := createIdentity(cfg.Identity)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize identity client")
		return err
	}

	gin.SetMode(cfg.Server.GinMode)

	router := gin.New()
	routes.SetupWithMiddleware(router, &routes.Config{
		HealthHandler:     handlers.NewHealthHandler(cacheClient, chatDB),
		AuthHandler:       handlers.NewAuthHandler(identityClient, cfg.Identity.RedirectURL),
		SessionHandler:    handlers.NewSessionHandler(sessionService, conversations),
		ThreadsHandler:    handlers.NewThreadsHandler(conversations),
		MessagesHandler:   handlers.NewMessagesHandler(conversations, assistantService),
		ArtifactsHandler:  handlers.NewArtifactsHandler(conversations),
		TelemetryHandler:  handlers.NewTelemetryHandler(collector),
		AuthMiddleware:    middleware.NewAuthMiddleware(identityClient),
		SessionMiddleware: middleware.NewSessionMiddleware(sessionService),
	}, middleware.NewLoggingMiddleware(log.Logger), middleware.NewErrorMiddleware(), corsConfig(cfg.Server))

	// Swagger documentation endpoint
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Address()).
			Str("llm", llmClient.Model()).
			Str("chatdb", cfg.ChatDB.Type).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serveErr:
		if ok {
			log.Error().Err(err).Msg("server failed")
			return err
		}
	case <-quit:
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}
	if err := collector.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("pending trace exports abandoned")
	}

	log.Info().Msg("server exited")
	return nil
}

func runMigrate(ctx context.Context) error {
	cfg, vaultClient, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer vaultClient.Close()

	chatDB, err := createChatDB(ctx, cfg.ChatDB)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize chat database")
		return err
	}
	defer chatDB.Close()

	if err := chatDB.Migrate(ctx); err != nil {
		log.Error().Err(err).Msg("migration failed")
		return err
	}

	_, closeSink, err := createTelemetrySink(ctx, cfg.Telemetry, chatDB)
	if err != nil {
		log.Error().Err(err).Msg("failed to prepare telemetry sink")
		return err
	}
	closeSink()

	log.Info().Str("chatdb", cfg.ChatDB.Type).Str("telemetry_sink", cfg.Telemetry.Sink).Msg("schema up to date")
	return nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	log.Logger = log.Logger.With().Str("service", "pm-assistant").Logger()
}

func corsConfig(cfg config.ServerConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = middleware.ParseOrigins(cfg.CORSOrigins)
	return cors
}

// createVault creates a vault based on the configuration.
func createVault(cfg config.VaultConfig) (vault.Vault, error) {
	switch vault.Type(cfg.Type) {
	case vault.TypeDotEnv:
		return dotenvvault.NewVault(".env")
	case vault.TypeFile:
		return filevault.NewVault(cfg.SecretsFile)
	default:
		return nil, fmt.Errorf("unsupported vault type: %s", cfg.Type)
	}
}

// createCache creates a cache client based on the configuration.
func createCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cache.Type(cfg.Type) {
	case cache.TypeRedis:
		return rediscache.NewCache(ctx, rediscache.Config{
			URL:        cfg.URL,
			Host:       cfg.Host,
			Port:       cfg.Port,
			Password:   cfg.Password,
			DB:         cfg.DB,
			DefaultTTL: cfg.TTL,
		})
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// createChatDB creates the conversation store based on the configuration.
func createChatDB(ctx context.Context, cfg config.ChatDBConfig) (chatdb.Client, error) {
	switch chatdb.Type(cfg.Type) {
	case chatdb.TypePostgres:
		return postgres.NewStore(ctx, cfg.URL)
	case chatdb.TypeSQLite:
		return sqlite.NewStore(ctx, cfg.Path)
	case chatdb.TypeMemory:
		log.Warn().Msg("using the in-memory chat database, conversations are lost on restart")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported chat database type: %s", cfg.Type)
	}
}

// createTelemetrySink picks where telemetry events are stored. The returned
// func releases the sink's own connection, if it has one.
func createTelemetrySink(ctx context.Context, cfg config.TelemetryConfig, chatDB chatdb.Client) (telemetry.Sink, func(), error) {
	switch cfg.Sink {
	case "", "chatdb":
		return chatDB.Telemetry(), func() {}, nil
	case string(docdb.TypeMongoDB), string(docdb.TypeCosmosDB):
		client, err := mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:          cfg.MongoURI,
			DatabaseName: cfg.MongoDatabase,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure telemetry indexes")
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Close(closeCtx)
		}
		return client.Telemetry(), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unsupported telemetry sink: %s", cfg.Sink)
	}
}

// createExporter returns nil when trace export is not configured.
func createExporter(cfg config.TelemetryConfig) (telemetry.Exporter, error) {
	if cfg.ExportEndpoint == "" {
		return nil, nil
	}
	return telemetry.NewHTTPExporter(&telemetry.HTTPExporterConfig{
		Endpoint: cfg.ExportEndpoint,
		APIKey:   cfg.ExportAPIKey,
		Project:  cfg.ExportProject,
		Timeout:  cfg.ExportTimeout,
	})
}

// createLLM creates the language model client based on the configuration.
func createLLM(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	switch llm.Type(cfg.Provider) {
	case llm.TypeGemini:
		return gemini.NewClient(ctx, &gemini.Config{
			APIKey:          cfg.APIKey,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxTokens,
			BaseURL:         cfg.BaseURL,
		})
	case llm.TypeOpenAI:
		return openai.NewClient(&openai.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			BaseURL:     cfg.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

// createIdentity creates the identity client. With auth disabled every
// request runs as one local user.
func createIdentity(cfg config.IdentityConfig) (identity.Client, error) {
	if cfg.Disabled {
		log.Warn().Str("user_id", config.LocalUserID).Msg("authentication disabled")
		return identity.Static{User: identity.User{ID: config.LocalUserID}}, nil
	}
	return identity.NewClient(&identity.ClientConfig{
		BaseURL: cfg.URL,
		APIKey:  cfg.AnonKey,
	})
}

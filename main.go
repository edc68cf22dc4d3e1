package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adamspd/FlashMind/ai"
	"github.com/adamspd/FlashMind/auth"
	"github.com/adamspd/FlashMind/config"
	"github.com/adamspd/FlashMind/db"
	"github.com/adamspd/FlashMind/handlers"
	"github.com/adamspd/FlashMind/jobs"
	"github.com/adamspd/FlashMind/utils"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	utils.LogStartup("FlashMind API starting...")

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[FATAL] Invalid configuration: %v", err)
	}
	utils.LogStartup("Using port %s and database %s", cfg.Port, cfg.DBPath)

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize database: %v", err)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret, err = utils.GenerateSecret(32)
		if err != nil {
			log.Fatalf("[FATAL] %v", err)
		}
		utils.LogStartup("JWT_SECRET not set, using a random key; tokens will not survive a restart")
	}
	revoked := auth.NewRevocationStore()
	tokens := auth.NewTokenManager(secret, cfg.TokenTTL, revoked)

	emailService := auth.NewEmailService(cfg.EmailConfig())
	if !emailService.Configured() {
		utils.LogStartup("SMTP not configured, emails will be logged")
	}

	var generator ai.Generator
	if cfg.AIEnabled() {
		generator = ai.NewOpenAIGenerator(ai.Config{
			APIKey:        cfg.AIAPIKey,
			BaseURL:       cfg.AIBaseURL,
			Model:         cfg.AIModel,
			Timeout:       cfg.AITimeout,
			MaxTextLength: cfg.MaxTextLength,
		})
		utils.LogStartup("AI generation enabled with model %s", cfg.AIModel)
	} else {
		utils.LogStartup("AI_API_KEY not set, /generate will return 503")
	}

	var jobQueue handlers.JobQueue
	var jobManager *jobs.JobManager
	if cfg.QueueEnabled() {
		jobManager, err = jobs.NewJobManager(cfg.RedisURL)
		if err != nil {
			log.Fatalf("[FATAL] Failed to set up job queue: %v", err)
		}
		jobManager.RegisterHandlers(generator, database, emailService)
		if err := jobManager.Start(); err != nil {
			log.Fatalf("[FATAL] Failed to start job queue: %v", err)
		}
		jobQueue = jobManager
	} else {
		utils.LogStartup("REDIS_URL not set, generation runs synchronously only")
	}

	router := handlers.NewRouter(database, tokens, generator, jobQueue, emailService)

	// Generation waits on the AI provider, so writes get the AI timeout on top
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.AITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		utils.LogStartup("Server ready to accept connections at http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	utils.LogShutdown("Received shutdown signal, draining connections...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		utils.LogError("HTTP shutdown: %v", err)
	}
	if jobManager != nil {
		jobManager.Stop()
	}
	revoked.Close()

	if err := database.Close(); err != nil {
		utils.LogError("Error closing database: %v", err)
	} else {
		utils.LogShutdown("Database connection closed successfully")
	}
}

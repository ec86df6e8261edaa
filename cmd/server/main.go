package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"roadmon/config"
	"roadmon/evidence"
	"roadmon/export"
	core "roadmon/ingestion/service/core"
	httphandler "roadmon/ingestion/service/http"
	"roadmon/internal/messaging/consumer"
	worker "roadmon/processing"
	"roadmon/storage/store"
)

// Server configuration file path
const serverConfigPath = "./config/server.defaults.yml"

func main() {
	logger := log.New(os.Stdout, "[ROADMON] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting Road Monitoring Server...")

	// 1. Load server configuration
	cfg, err := config.LoadServerConfig(serverConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load server configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize dependencies
	logger.Printf("Initializing telemetry store (backend: %s)...", cfg.Storage.Backend)
	dataStore, err := store.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize telemetry store: %v", err)
	}
	defer dataStore.Close()

	logger.Println("Initializing evidence archive...")
	archive, err := evidence.NewArchive(cfg.Evidence.ImageDir, cfg.Evidence.VideoDir, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize evidence archive: %v", err)
	}

	exporter := export.NewExcelExporter(logger)

	// 3. Create core Service and HTTP handler
	coreService := core.NewService(dataStore, archive, logger)
	handler := httphandler.NewHandler(coreService, exporter, archive, cfg.Web.Dir, logger)

	var wg sync.WaitGroup

	// 4. HTTP server
	mux := http.NewServeMux()
	handler.Register(mux)

	// Use HTTP server configuration with defaults
	readTimeout := cfg.HttpServer.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 5 * time.Second
	}

	writeTimeout := cfg.HttpServer.WriteTimeout
	if writeTimeout == 0 {
		// Excel export and video serving can take a while
		writeTimeout = 30 * time.Second
	}

	idleTimeout := cfg.HttpServer.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 60 * time.Second
	}

	maxHeaderBytes := cfg.HttpServer.MaxHeaderBytes
	if maxHeaderBytes == 0 {
		maxHeaderBytes = 1 << 20 // 1 MB
	}

	httpServer := &http.Server{
		Addr:           cfg.HttpListenAddr,
		Handler:        mux,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Printf("HTTP server listening on %s", cfg.HttpListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server startup failed: %v", err)
		}
		logger.Println("HTTP server stopped listening.")
	}()

	// 5. [Conditional startup] Kafka ingest bridge
	var mqConsumers []consumer.Consumer
	if len(cfg.KafkaConsumer.Brokers) > 0 {
		if cfg.KafkaConsumer.Brokers[0] != "mock://local" {
			logger.Printf("Initializing %d Kafka ingest consumers...", cfg.KafkaConsumer.Count)
			for i := 0; i < cfg.KafkaConsumer.Count; i++ {
				kafkaConsumer, err := consumer.NewKafkaConsumer(cfg.KafkaConsumer, logger)
				if err != nil {
					logger.Fatalf("Failed to initialize Kafka consumer %d: %v", i, err)
				}
				mqConsumers = append(mqConsumers, kafkaConsumer)
			}
		} else {
			logger.Println("Initializing Mock ingest consumer...")
			mqConsumers = append(mqConsumers, consumer.NewMockConsumer(logger))
		}
	} else {
		logger.Println("kafka_consumer.brokers not configured, skipping ingest bridge startup.")
	}

	// Ensure all consumers are closed on exit
	defer func() {
		for _, c := range mqConsumers {
			c.Close()
		}
	}()

	for i, c := range mqConsumers {
		bridgeWorker := worker.New(cfg.Bridge, logger, coreService, c)

		wg.Add(1)
		go func(workerID int, w *worker.Worker) {
			defer wg.Done()
			logger.Printf("Starting bridge worker %d with its dedicated consumer...", workerID)
			w.Run(ctx)
			logger.Printf("Bridge worker %d stopped.", workerID)
		}(i+1, bridgeWorker)
	}

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, starting graceful shutdown...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	logger.Println("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown failed: %v", err)
	} else {
		logger.Println("HTTP server shutdown.")
	}

	wg.Wait()
	logger.Println("All components stopped. Road Monitoring Server shutdown.")
}

package main

import (
	"context"
	"errors"
	"flag"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/config"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/handler"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/metrics"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/repository"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/server"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/service"
	"log"
	"net"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/samber/lo"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to TOML config file")
	addr := flag.String("addr", "", "bind address (default: all interfaces)")
	port := flag.Int("port", 8000, "HTTP server port")
	root := flag.String("root", "", "directory to serve (default: directory of the executable)")
	listing := flag.Bool("listing", true, "render directory listings when no index file exists")
	dbPath := flag.String("access-db", "", "path to SQLite access log database (default: disabled)")
	grace := flag.Int("shutdown-timeout", 5, "seconds to wait for in-flight requests on shutdown")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Printf("error loading config: %v", err)
			return 2
		}
		cfg = loaded
	}

	// Flags given on the command line win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Address = *addr
		case "port":
			cfg.Server.Port = *port
		case "root":
			cfg.Server.Root = *root
		case "listing":
			cfg.Files.Listing = *listing
		case "access-db":
			cfg.AccessLog.Database = *dbPath
		case "shutdown-timeout":
			cfg.Server.ShutdownTimeout = *grace
		}
	})

	cfg, err := cfg.Resolve()
	if err != nil {
		log.Printf("invalid configuration: %v", err)
		return 2
	}

	// Initialize access log repository
	var repo repository.AccessRepository
	if cfg.AccessLog.Database != "" {
		sqliteRepo, err := repository.NewSQLiteRepository(cfg.AccessLog.Database)
		if err != nil {
			log.Printf("failed to initialize repository: %v", err)
			return 1
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
	}

	metricsInstance := metrics.NewMetrics()
	accessLogger := service.NewAccessLogger(repo, metricsInstance)
	files := service.NewFileService(cfg.Server.Root, cfg.Files.Index, cfg.Files.Listing)
	fileHandler := handler.NewFileHandler(files, metricsInstance)
	srv := server.New(cfg, fileHandler, metricsInstance, accessLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			log.Println("shutting down server...")
			cancel()
		case <-ctx.Done():
		}
	}()

	ready := srv.Ready()
	go func() {
		select {
		case <-ready:
		case <-ctx.Done():
			return
		}
		if tcpAddr, ok := srv.Addr().(*net.TCPAddr); ok {
			log.Printf("serving from: %s", cfg.Server.Root)
			log.Printf("open: http://localhost:%d", tcpAddr.Port)
			log.Println("press Ctrl+C to stop")
		}
	}()

	log.Printf("starting rotating globe server on %s", cfg.Addr())
	if err := srv.Start(ctx); err != nil {
		var bindErr *server.BindError
		if errors.As(err, &bindErr) {
			log.Printf("cannot listen on %s: %v", bindErr.Addr, bindErr.Err)
		} else {
			log.Printf("server error: %v", err)
		}
		accessLogger.Close()
		return 1
	}

	accessLogger.Close()
	logSummary(accessLogger, metricsInstance)
	log.Println("server stopped")
	return 0
}

func logSummary(accessLogger *service.AccessLogger, m *metrics.Metrics) {
	snapshot := m.GetSnapshot()
	keys := lo.Keys(snapshot)
	sort.Strings(keys)
	for _, k := range keys {
		log.Printf("metric %s=%d", k, snapshot[k])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := accessLogger.Summary(ctx)
	if err != nil {
		log.Printf("error reading access log summary: %v", err)
		return
	}
	statuses := lo.Keys(counts)
	sort.Ints(statuses)
	for _, status := range statuses {
		log.Printf("access_log status=%d count=%d", status, counts[status])
	}
}

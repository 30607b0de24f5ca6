package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/activadee/videocraft-render/internal/api"
	"github.com/activadee/videocraft-render/internal/config"
	"github.com/activadee/videocraft-render/internal/orchestrator"
	"github.com/activadee/videocraft-render/internal/retention"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// Build information (set via ldflags)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	appLogger := logger.New(cfg.Log.Level)

	launcher := orchestrator.NewExecLauncher(cfg.External.RenderWorkerPath)
	manager := orchestrator.New(cfg, appLogger, launcher)

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go retention.New(cfg, appLogger).Run(cleanupCtx)

	router := api.NewRouter(cfg, manager, appLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server:", err)
		}
	}()

	appLogger.Info("Server started on ", cfg.Server.Address())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown:", err)
	}

	appLogger.Info("Server exited")
}

func printVersion() {
	fmt.Printf("videocraft-render %s\n", version)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
	fmt.Printf("Go Version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func printHelp() {
	fmt.Println("videocraft-render - Layer compositor and export pipeline service")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help      Show help information")
	fmt.Println("  -version   Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  Configuration can be set via environment variables with VIDEOCRAFT_ prefix")
	fmt.Println("  Example: VIDEOCRAFT_SERVER_PORT=8080")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Println("  Configuration files are searched in:")
	fmt.Println("  - ./config.yaml")
	fmt.Println("  - ./config/config.yaml")
	fmt.Println("  - /etc/videocraft-render/config.yaml")
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ironsheep/mask-contour-mcp/internal/config"
	"github.com/ironsheep/mask-contour-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("mask-contour-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "vectorize":
			logger := newLogger(os.Stderr, os.Getenv(config.EnvLogLevel))
			if err := runVectorize(os.Args[2:], os.Stdout, logger); err != nil {
				fmt.Fprintf(os.Stderr, "vectorize: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	// Logs go to stderr; stdout is the MCP channel.
	logger := newLogger(os.Stderr, os.Getenv(config.EnvLogLevel))
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Debug("starting server", "version", Version, "build_time", BuildTime, "commit", GitCommit)

	srv := server.New(cfg, logger, Version)
	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("mask-contour-mcp - MCP server that turns segmentation masks into polygons")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mask-contour-mcp                 Run the MCP server on stdin/stdout")
	fmt.Println("  mask-contour-mcp vectorize ...   Vectorize masks or an image to files")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=path.json      Load tuning parameters from a JSON file\n", config.EnvConfigPath)
	fmt.Printf("  %s=debug       Log level: debug, info, warn or error\n", config.EnvLogLevel)
	fmt.Println()
	fmt.Println("Run 'mask-contour-mcp vectorize -h' for the batch flags.")
}

// newLogger returns a JSON logger on w. Unknown levels fall back to info.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

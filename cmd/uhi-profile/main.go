package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/uhi-profile/internal/config"
	"github.com/ironsheep/uhi-profile/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const logLevelEnv = "UHI_PROFILE_LOG_LEVEL"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "--version", "-v", "version":
		fmt.Printf("uhi-profile %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return 0
	case "--help", "-h", "help":
		printUsage(os.Stdout)
		return 0
	case "serve":
		return runServe(args)
	case "extract":
		return runExtract(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage(os.Stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `uhi-profile - radial land surface temperature profiles

Usage:
  uhi-profile [serve] [-config file]       Run the MCP server on stdin/stdout
  uhi-profile extract [options] <raster>   Extract a profile and write CSV
  uhi-profile version                      Print version information
  uhi-profile help                         Print this help message

Run "uhi-profile extract -h" for extract options.

Configuration is read from uhi-profile.yaml when present.

Environment variables:
  UHI_PROFILE_LOG_LEVEL=debug    Override the configured log level

Logs are written to stderr; in serve mode stdout carries MCP protocol traffic.`)
}

// setupLogging sends logrus output to stderr at the configured level, which
// the environment may override.
func setupLogging(cfg config.Config) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if env := os.Getenv(logLevelEnv); env != "" {
		if l, err := logrus.ParseLevel(env); err == nil {
			level = l
		} else {
			logrus.WithField("value", env).Warnf("ignoring invalid %s", logLevelEnv)
		}
	}
	logrus.SetLevel(level)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadConfig(path string) (config.Config, bool) {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, false
	}
	return cfg, true
}

func runServe(args []string) int {
	fs := newServeFlags()
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, ok := loadConfig(fs.configPath)
	if !ok {
		return 1
	}
	setupLogging(cfg)

	server.Version = Version
	logrus.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("uhi-profile MCP server starting")

	ctx, stop := signalContext()
	defer stop()

	srv := server.New(cfg)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logrus.WithError(err).Error("server error")
		return 1
	}
	return 0
}

func runExtract(args []string) int {
	fs := newExtractFlags()
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: extract needs exactly one raster path")
		fs.Usage()
		return 2
	}

	cfg, ok := loadConfig(fs.configPath)
	if !ok {
		return 1
	}
	if err := fs.apply(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	setupLogging(cfg)

	ctx, stop := signalContext()
	defer stop()

	res, err := newExtractor().Run(ctx, cfg, fs.Arg(0))
	if err != nil {
		logrus.WithError(err).Error("extraction failed")
		return 1
	}

	printSummary(os.Stdout, res)
	return 0
}

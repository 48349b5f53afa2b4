package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photo-touchup-mcp/internal/config"
	"github.com/ironsheep/photo-touchup-mcp/internal/imaging"
	"github.com/ironsheep/photo-touchup-mcp/internal/opencv"
	"github.com/ironsheep/photo-touchup-mcp/internal/pipeline"
	"github.com/ironsheep/photo-touchup-mcp/internal/server"
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
			fmt.Printf("%s %s\n", server.ServerName, Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  Engines:    %s\n", strings.Join(engines(), ", "))
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	log := initLogger(os.Getenv(config.EnvLogLevel))
	log.WithFields(logrus.Fields{
		"version": Version,
		"commit":  GitCommit,
	}).Debug("Starting")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	engine, err := pipeline.NewEngine(cfg.Engine)
	if err != nil {
		log.WithError(err).Fatal("Failed to create engine")
	}
	pipe := pipeline.New(
		pipeline.WithEngine(engine),
		pipeline.WithLogger(log),
		pipeline.WithJPEGQuality(cfg.JPEGQuality),
	)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "process":
			if len(os.Args) != 4 {
				log.Fatal("usage: photo-touchup process <input> <output>")
			}
			if err := processOne(pipe, cfg, os.Args[2], os.Args[3], log); err != nil {
				log.WithError(err).Fatal("Processing failed")
			}
			return
		case "batch":
			if len(os.Args) != 4 {
				log.Fatal("usage: photo-touchup batch <input-dir> <output-dir>")
			}
			if err := processDir(pipe, cfg, os.Args[2], os.Args[3], log); err != nil {
				log.WithError(err).Fatal("Batch failed")
			}
			return
		default:
			log.Fatalf("unknown command %q, see --help", os.Args[1])
		}
	}

	server.Version = Version
	srv := server.New(
		server.WithConfig(cfg),
		server.WithPipeline(pipe),
		server.WithLogger(log),
	)
	if err := srv.Run(); err != nil {
		log.WithError(err).Fatal("Server error")
	}
}

// initLogger writes to stderr; stdout carries the MCP protocol.
func initLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if level == "debug" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return logger
}

// engines lists the engine names this binary can run.
func engines() []string {
	names := []string{config.EngineNative}
	if opencv.Available() {
		names = append(names, config.EngineOpenCV)
	}
	return names
}

func processOne(pipe *pipeline.Pipeline, cfg *config.Config, in, out string, log logrus.FieldLogger) error {
	buf, err := imaging.LoadFile(in)
	if err != nil {
		return err
	}

	res := pipe.Process(buf, cfg.Defaults)
	saved, err := imaging.Save(res.Image, out, cfg.JPEGQuality)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"input":  in,
		"output": saved.Path,
		"step":   saved.Step,
		"ok":     res.OK,
		"width":  res.Width,
		"height": res.Height,
	}).Info("Processed")
	return nil
}

func processDir(pipe *pipeline.Pipeline, cfg *config.Config, dir, outDir string, log logrus.FieldLogger) error {
	paths, err := pipeline.ListPhotos(dir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := pipe.ProcessFiles(ctx, paths, outDir, cfg.Defaults)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"run_id":    report.RunID,
		"total":     report.Total,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"skipped":   report.Skipped,
		"cancelled": report.Cancelled,
	}).Info("Batch finished")
	return nil
}

func printHelp() {
	fmt.Printf("%s - photo rectifier and touch-up pipeline\n", server.ServerName)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  photo-touchup                           Run the MCP server on stdin/stdout")
	fmt.Println("  photo-touchup process <input> <output>  Process one photo with the configured defaults")
	fmt.Println("  photo-touchup batch <dir> <output-dir>  Process every photo in a directory")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug    Enable debug logging\n", config.EnvLogLevel)
	fmt.Printf("  %s=<file>      TOML or JSON configuration file\n", config.EnvConfigPath)
}

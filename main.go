package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

func main() {
	log.SetFlags(0)
	if err := runCLI(context.Background()); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func runCLI(ctx context.Context) error {
	if len(os.Args) < 2 {
		return runETLCmd(ctx, nil)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		return runETLCmd(ctx, args)
	case "report":
		return runReportCmd(ctx, args)
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func runETLCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "Optional YAML config file")
	corpusDir := fs.String("corpus_dir", "", "Directory with the three corpus files")
	dbPath := fs.String("db", "", "Path to output SQLite DB file")
	encoding := fs.String("encoding", "", "Corpus encoding: latin1 or utf-8")
	stagePause := fs.String("pause", "", "Pause between stages, e.g. 1s or 0")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *corpusDir != "" {
		cfg.CorpusDir = *corpusDir
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *encoding != "" {
		cfg.Encoding = *encoding
	}
	if *stagePause != "" {
		d, err := time.ParseDuration(*stagePause)
		if err != nil {
			return fmt.Errorf("parse --pause: %w", err)
		}
		cfg.StagePause = d
	}

	_, err = RunETL(ctx, cfg, os.Stdout)
	return err
}

func runReportCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	dbPath := fs.String("db", defaultSQLitePath, "Path to SQLite DB file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	report, err := BuildReport(ctx, *dbPath)
	if err != nil {
		return err
	}
	PrintReport(os.Stdout, report)
	return nil
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run .")
	fmt.Println("  go run . run --corpus_dir cornell_movie_dialogs_corpus --db dialogue.db [--config etl.yaml]")
	fmt.Println("  go run . report --db dialogue.db")
}

// Command devindex analyzes a GitHub repository, builds a developer skill
// vector and persists it to the local developer index. Events are printed to
// stdout as JSON lines while the pipeline runs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	devindex "github.com/devindex-app/devindex-adk"
	"github.com/devindex-app/devindex-adk/gh"
	"github.com/devindex-app/devindex-adk/skillvec"
	"github.com/devindex-app/devindex-adk/stages"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	username := flag.String("username", "", "GitHub username of the developer")
	repo := flag.String("repo", "", "repository to analyze, 'name' or 'owner/name'")
	dbPath := flag.String("db", "devindex.db", "path to the developer index database")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	verbose := flag.Bool("verbose", false, "log pipeline internals to stderr")
	flag.Parse()

	if *username == "" || *repo == "" {
		flag.Usage()
		return fmt.Errorf("both -username and -repo are required")
	}

	// Best effort: a missing .env file is fine.
	_ = godotenv.Load()

	client, err := gh.NewClient(func(o *gh.Options) {
		o.Token = os.Getenv("GITHUB_TOKEN")
	})
	if err != nil {
		return err
	}

	db, err := skillvec.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var logger devindex.Logger = devindex.NewDefaultLogger()
	if *verbose {
		logger = devindex.NewStdLogger(os.Stderr)
	}

	pipeline := stages.NewDevIndexPipeline(
		client, stages.HeuristicAnalyzer{}, nil, db,
		devindex.WithLogger(logger),
		devindex.WithTimeout(*timeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := pipeline.Run(ctx, stages.InitialState(*username, *repo), jsonSink(os.Stdout))

	fmt.Fprintf(os.Stderr, "\nrun %s finished: state=%s events=%d duration=%s\n",
		result.RunID, result.State, result.EventCount, result.ExecutionTime.Round(time.Millisecond))

	if !result.Success() {
		return result.Err
	}
	return nil
}

// jsonSink prints each relayed event as one JSON line.
func jsonSink(w io.Writer) devindex.EventSink {
	enc := json.NewEncoder(w)
	return devindex.SinkFunc(func(event devindex.Event) {
		if err := enc.Encode(event); err != nil {
			fmt.Fprintln(os.Stderr, "error: encode event:", err)
		}
	})
}

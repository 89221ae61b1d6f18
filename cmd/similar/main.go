// Command similar prints the movies most similar to a reference movie.
//
//	similar -data tmdb_5000_movies.csv -id 19995 -k 5
//
// Without -id the first movie of the dataset is the reference.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/okian/reelsim/internal/adapters/dataset"
	"github.com/okian/reelsim/internal/domain/model"
	"github.com/okian/reelsim/internal/domain/weights"
	"github.com/okian/reelsim/internal/engine"
	"github.com/okian/reelsim/pkg/logger"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("similar", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		dataPath = fs.String("data", "", "dataset file (.csv, .db, .sqlite)")
		refID    = fs.Int64("id", 0, "reference movie id (default: first movie)")
		k        = fs.Int("k", 5, "number of similar movies to print")
		weightsF = fs.String("weights", "", "attribute weights, e.g. title=2.5,keywords=2 (default: built-in)")
		logLevel = fs.String("log-level", "warn", "log level: debug, info, warn, error")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *dataPath == "" && fs.NArg() == 1 {
		*dataPath = fs.Arg(0)
	}
	if *dataPath == "" || *k < 1 {
		fmt.Fprintln(stderr, "Usage: similar -data <movies.csv> [-id N] [-k N] [-weights name=value,...]")
		return exitUsage
	}

	if err := logger.Init(logger.WithOutput(stderr)); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	if err := logger.SetLevelString(*logLevel); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	w, err := parseWeights(*weightsF)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	records, _, err := dataset.Open(ctx, *dataPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	if len(records) == 0 {
		fmt.Fprintln(stderr, "dataset holds no movies")
		return exitError
	}

	reference, err := pick(records, *refID)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	result, err := engine.New().Recommend(ctx, reference, records, w, *k)
	if err != nil && !errors.Is(err, engine.ErrEmptyCandidateSet) {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	printResult(stdout, reference, result)
	return exitOK
}

// parseWeights reads name=value pairs separated by commas. Empty input
// selects the default weights.
func parseWeights(spec string) (weights.Config, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return weights.Default(), nil
	}
	m := make(map[string]float64)
	for _, pair := range strings.Split(spec, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return weights.Config{}, fmt.Errorf("weight %q: want name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return weights.Config{}, fmt.Errorf("weight %q: %w", pair, err)
		}
		m[strings.TrimSpace(name)] = v
	}
	return weights.New(m)
}

func pick(records []model.Record, id int64) (*model.Record, error) {
	if id == 0 {
		return &records[0], nil
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, fmt.Errorf("movie %d not found", id)
}

func printResult(out io.Writer, reference *model.Record, result model.RankedResult) {
	fmt.Fprintf(out, "Reference movie: %s\n", reference.Title)
	if len(result) == 0 {
		fmt.Fprintln(out, "\nNo other movies to compare against.")
		return
	}
	fmt.Fprintf(out, "\nTop %d similar movies:\n", len(result))
	for i, m := range result {
		fmt.Fprintf(out, "%d. %s (Similarity: %.4f)\n", i+1, m.Record.Title, m.Score)
	}
}

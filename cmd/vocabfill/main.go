package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mwhite/vocabfill/pkg/dataset"
	"github.com/mwhite/vocabfill/pkg/harvest"
	"github.com/mwhite/vocabfill/pkg/index"
	"github.com/mwhite/vocabfill/pkg/merge"
	"github.com/mwhite/vocabfill/pkg/store"
	"github.com/mwhite/vocabfill/pkg/vocab"

	_ "github.com/mattn/go-sqlite3"
)

const (
	codeErrorArgs = iota + 1
	codeMalformed
	codeInternalError
)

func exitf(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}

func main() {
	// With no subcommand the tool behaves as `populate`, the original
	// one-shot use of this utility.
	command := "populate"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "populate":
		runPopulate(ctx, args)
	case "harvest":
		runHarvest(ctx, args)
	case "export":
		runExport(ctx, args)
	case "search":
		runSearch(ctx, args)
	case "help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(codeErrorArgs)
	}
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, "Usage: vocabfill [command] [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  populate    Fill missing word data from the dictionary dataset (default)")
	fmt.Fprintln(w, "  harvest     Mine example sentences from article URLs")
	fmt.Fprintln(w, "  export      Mirror the document into a SQLite study database")
	fmt.Fprintln(w, "  search      Full-text search over the document")
}

func commonFlags(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ExitOnError)
	flags.StringP("config", "c", "", "path to an optional YAML config file")
	flags.StringP("doc", "f", "vocab.json", "path to the study document")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	return flags
}

// newSettings layers flag values, VOCABFILL_* environment variables, and
// an optional config file.
func newSettings(flags *pflag.FlagSet, args []string) *viper.Viper {
	flags.Parse(args)
	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		exitf(codeErrorArgs, "Failure while parsing arguments: %s\n", err)
	}
	v.SetEnvPrefix("VOCABFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath := v.GetString("config"); configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			exitf(codeErrorArgs, "Failure while reading config %s: %s\n", configPath, err)
		}
		fmt.Printf("Using config file: %s\n", configPath)
	}
	return v
}

func newLogger(verbose bool) *zap.Logger {
	conf := zap.NewDevelopmentConfig()
	if verbose {
		conf.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		conf.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := conf.Build()
	if err != nil {
		exitf(codeInternalError, "Failure while instantiating logger: %s\n", err)
	}
	return logger
}

// loadDocument maps the load error taxonomy to exit codes with
// one-line diagnostics.
func loadDocument(path string) *vocab.Document {
	doc, err := vocab.Load(path)
	switch {
	case err == nil:
		return doc
	case errors.Is(err, vocab.ErrNotFound):
		exitf(codeErrorArgs, "Error: %s not found!\n", path)
	case errors.Is(err, vocab.ErrMalformed):
		exitf(codeMalformed, "Error: invalid document - %s\n", err)
	default:
		exitf(codeInternalError, "Error: %s\n", err)
	}
	return nil
}

func openDB(path string) *sql.DB {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		exitf(codeInternalError, "Error: failed to open database %s: %s\n", path, err)
	}
	if err := store.Init(conn); err != nil {
		conn.Close()
		exitf(codeInternalError, "Error: failed to initialize database %s: %s\n", path, err)
	}
	return conn
}

func runPopulate(ctx context.Context, args []string) {
	flags := commonFlags("populate")
	flags.String("data", "", "path to an external dataset JSON file")
	flags.String("data-url", "", "URL to download the dataset from when the file is missing")
	flags.String("db", "", "optional SQLite database to record the run in")
	v := newSettings(flags, args)

	logger := newLogger(v.GetBool("verbose"))
	defer logger.Sync()

	table, source := dataset.Resolve(ctx, logger, v.GetString("data"), v.GetString("data-url"))
	fmt.Printf("Loaded %d dictionary entries (%s)\n", len(table), source)

	docPath := v.GetString("doc")
	doc := loadDocument(docPath)
	fmt.Printf("Loaded %s with %d words\n", docPath, len(doc.Words))

	res := merge.Merge(doc, table)
	if len(res.Skipped) > 0 {
		logger.Debug("records without dictionary entries",
			zap.Int("count", len(res.Skipped)), zap.Ints("ids", res.Skipped))
	}

	if err := vocab.Save(doc, docPath); err != nil {
		exitf(codeInternalError, "Error: failed to write %s: %s\n", docPath, err)
	}

	filled := doc.CountFilled()
	fmt.Printf("Successfully updated %d words\n", res.Updated)
	fmt.Printf("Total words with data: %d/%d\n", filled, len(doc.Words))

	if dbPath := v.GetString("db"); dbPath != "" {
		conn := openDB(dbPath)
		defer conn.Close()
		stats := store.RunStats{Loaded: len(doc.Words), Updated: res.Updated, Filled: filled}
		if err := store.RecordRun(conn, stats); err != nil {
			// The document is already written; a failed audit row is
			// advisory, not fatal.
			logger.Warn("failed to record run", zap.String("db", dbPath), zap.Error(err))
		}
	}
}

func runHarvest(ctx context.Context, args []string) {
	flags := commonFlags("harvest")
	flags.String("cache", ".vocabfill-cache", "directory for the article cache")
	flags.Bool("no-cache", false, "keep the article cache in memory only")
	flags.Int("workers", 4, "number of concurrent article fetches")
	flags.Int("max-examples", harvest.DefaultMaxExamples, "examples to keep per word")
	v := newSettings(flags, args)

	urls := flags.Args()
	if len(urls) == 0 {
		exitf(codeErrorArgs, "Usage: vocabfill harvest [options] <url> [url...]\n")
	}

	logger := newLogger(v.GetBool("verbose"))
	defer logger.Sync()

	docPath := v.GetString("doc")
	doc := loadDocument(docPath)
	fmt.Printf("Loaded %s with %d words\n", docPath, len(doc.Words))

	cache, err := harvest.OpenCache(v.GetString("cache"), v.GetBool("no-cache"))
	if err != nil {
		exitf(codeInternalError, "Error: failed to open article cache: %s\n", err)
	}
	defer cache.Close()

	h := harvest.NewHarvester(harvest.NewFetcher(cache, logger), logger)
	h.Workers = v.GetInt("workers")
	h.MaxExamples = v.GetInt("max-examples")

	filled, err := h.Run(ctx, doc, urls)
	if err != nil {
		exitf(codeInternalError, "Error: harvest failed: %s\n", err)
	}

	if err := vocab.Save(doc, docPath); err != nil {
		exitf(codeInternalError, "Error: failed to write %s: %s\n", docPath, err)
	}
	fmt.Printf("Harvested examples for %d words from %d articles\n", filled, len(urls))
}

func runExport(ctx context.Context, args []string) {
	flags := commonFlags("export")
	flags.String("db", "vocabfill.db", "path to the SQLite database")
	v := newSettings(flags, args)

	logger := newLogger(v.GetBool("verbose"))
	defer logger.Sync()

	docPath := v.GetString("doc")
	doc := loadDocument(docPath)
	fmt.Printf("Loaded %s with %d words\n", docPath, len(doc.Words))

	dbPath := v.GetString("db")
	conn := openDB(dbPath)
	defer conn.Close()

	stats := store.RunStats{Loaded: len(doc.Words), Filled: doc.CountFilled()}
	written, err := store.ExportDocument(ctx, conn, doc, stats)
	if err != nil {
		exitf(codeInternalError, "Error: export failed: %s\n", err)
	}
	fmt.Printf("Exported %d words to %s\n", written, dbPath)
}

func runSearch(ctx context.Context, args []string) {
	flags := commonFlags("search")
	flags.IntP("limit", "n", 10, "maximum number of results")
	v := newSettings(flags, args)

	query := strings.Join(flags.Args(), " ")
	if query == "" {
		exitf(codeErrorArgs, "Usage: vocabfill search [options] <query>\n")
	}

	logger := newLogger(v.GetBool("verbose"))
	defer logger.Sync()

	doc := loadDocument(v.GetString("doc"))

	idx, err := index.Build(doc)
	if err != nil {
		exitf(codeInternalError, "Error: failed to build index: %s\n", err)
	}
	defer idx.Close()

	hits, err := index.Search(ctx, idx, query, v.GetInt("limit"))
	if err != nil {
		exitf(codeInternalError, "Error: search failed: %s\n", err)
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, h := range hits {
		fmt.Printf("%5d  %-20s %.3f\n", h.ID, h.Word, h.Score)
	}
	fmt.Printf("%d match(es)\n", len(hits))
}

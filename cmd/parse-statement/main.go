// Command parse-statement validates and parses a local bank statement and
// prints the extracted rows as JSON. It is meant for checking new bank
// exports against the parser without running the API.
//
// Usage:
//
//	parse-statement [-max-bytes N] [-v] statement.csv
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ashmitsharp/moneybook-api/internal/logger"
	"github.com/ashmitsharp/moneybook-api/internal/services"
)

func main() {
	maxBytes := flag.Int64("max-bytes", 10*1024*1024, "maximum statement size")
	verbose := flag.Bool("v", false, "log skipped rows")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: parse-statement [-max-bytes N] [-v] <statement.csv|statement.xlsx>")
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.NewWithOptions(logger.Options{Level: level, Console: true})

	if err := run(flag.Arg(0), *maxBytes, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse statement")
	}
}

func run(path string, maxBytes int64, log zerolog.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	validator := services.NewFileValidator(maxBytes)
	result, err := validator.ValidateFile(file, filepath.Base(path), contentTypeFor(path))
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		log.Warn().Str("file", path).Msg(w)
	}
	if err := result.Err(); err != nil {
		return err
	}

	rows, err := services.NewParser(log).Parse(bytes.NewReader(result.Data), result.DetectedType)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"file":          path,
		"detected_type": result.DetectedType,
		"rows":          rows,
		"count":         len(rows),
	})
}

func contentTypeFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

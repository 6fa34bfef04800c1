// cmd/tools/zip-importer/main.go
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"directory-engine/internal/common/config"
	"directory-engine/internal/common/database"
	"directory-engine/internal/common/logger"
	"directory-engine/internal/geo"
	"directory-engine/internal/store"
)

func main() {
	filePath := flag.String("file", "", "Path to the ZIP code CSV file")
	dryRun := flag.Bool("dry-run", false, "Parse and sanitize without writing")
	flag.Parse()

	if *filePath == "" {
		fmt.Println("Error: -file is required.")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	runID := uuid.New().String()
	fmt.Printf("Import run %s starting (file: %s)\n", runID, *filePath)

	records, err := readCSV(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", *filePath, err)
		os.Exit(1)
	}
	fmt.Printf("Parsed %d rows\n", len(records))

	if *dryRun {
		valid := 0
		for _, rec := range records {
			if rec.Zip != "" && rec.HasValidCoordinates() {
				valid++
			}
		}
		fmt.Printf("Dry run: %d of %d rows would import\n", valid, len(records))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Geo.ImportTimeout))
	defer cancel()

	redis, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis init failed: %v\n", err)
		os.Exit(1)
	}
	defer redis.Close()
	if err := redis.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "redis ping failed: %v\n", err)
		os.Exit(1)
	}

	st := store.New(redis, log)
	index := geo.NewIndex(st, log, cfg.Geo.ImportBatchSize)

	started := time.Now()
	stats, err := index.Import(ctx, records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Import run %s finished in %s\n", runID, time.Since(started).Round(time.Millisecond))
	fmt.Printf("  total:    %d\n", stats.Total)
	fmt.Printf("  imported: %d\n", stats.Imported)
	fmt.Printf("  skipped:  %d\n", stats.Skipped)
	fmt.Printf("  errors:   %d\n", stats.Errors)
}

// readCSV parses a header-driven ZIP CSV. Column names are matched
// loosely so exports with zip/zipCode or lat/latitude headers all work.
func readCSV(path string) ([]geo.ZipRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records []geo.ZipRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		raw := make(map[string]interface{}, len(header))
		for i, col := range header {
			if i < len(row) {
				raw[col] = row[i]
			}
		}
		records = append(records, geo.Sanitize(raw))
	}
	return records, nil
}

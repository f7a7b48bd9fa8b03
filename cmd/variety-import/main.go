package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
)

// varietyRow is one parsed line: variety name plus its heat summation
// threshold in GDD
type varietyRow struct {
	Name          string
	HeatSummation float64
}

func main() {
	var (
		dbHost  = flag.String("db-host", "localhost", "Database host")
		dbPort  = flag.Int("db-port", 5432, "Database port")
		dbUser  = flag.String("db-user", "postgres", "Database user")
		dbPass  = flag.String("db-pass", "", "Database password")
		dbName  = flag.String("db-name", "vineyard", "Database name")
		sslMode = flag.String("sslmode", "disable", "SSL mode (disable, require, etc)")
		csvFile = flag.String("file", "", "CSV file of variety,heat_summation rows (required)")
		dryRun  = flag.Bool("dry-run", false, "Parse and report without writing to the database")
	)
	flag.Parse()

	if *csvFile == "" {
		log.Fatal("CSV file is required. Use -file flag")
	}

	rows, err := parseCSV(*csvFile)
	if err != nil {
		log.Fatalf("Failed to parse CSV: %v", err)
	}
	log.Printf("Parsed %d varieties from %s", len(rows), *csvFile)

	if *dryRun {
		for _, r := range rows {
			fmt.Printf("%s\t%.0f\n", r.Name, r.HeatSummation)
		}
		return
	}

	connStr := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	imported, err := upsertVarieties(db, rows)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Printf("Imported %d varieties", imported)
}

func parseCSV(filename string) ([]varietyRow, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2

	var rows []varietyRow
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		name := strings.TrimSpace(record[0])
		// Skip a header row if present
		if line == 1 && strings.EqualFold(name, "variety") {
			continue
		}
		if name == "" {
			return nil, fmt.Errorf("line %d: empty variety name", line)
		}

		heat, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid heat summation %q", line, record[1])
		}
		if heat <= 0 {
			return nil, fmt.Errorf("line %d: heat summation must be positive, got %v", line, heat)
		}

		rows = append(rows, varietyRow{Name: name, HeatSummation: heat})
	}
	return rows, nil
}

func upsertVarieties(db *sql.DB, rows []varietyRow) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO grapevine_varieties (variety, heat_summation, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (variety)
		DO UPDATE SET heat_summation = EXCLUDED.heat_summation, updated_at = NOW()`)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, r := range rows {
		if _, err := stmt.Exec(r.Name, r.HeatSummation); err != nil {
			return 0, fmt.Errorf("inserting %s: %w", r.Name, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return count, nil
}

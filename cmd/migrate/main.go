package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"violencedetector/internal/repository/sqlite"
	"violencedetector/internal/service/storage"
)

func main() {
	dbPath := flag.String("db", "data/analyses.db", "Database path")
	outputsDir := flag.String("outputs", "", "Output directory to check for videos without a database record")
	prune := flag.Bool("prune", false, "Delete videos without a database record")
	flag.Parse()

	fmt.Printf("Migrating database %s\n", *dbPath)

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	analyses := sqlite.NewAnalysisRepository(db)
	fmt.Println("✅ Schema is up to date")

	if *outputsDir != "" {
		files, err := os.ReadDir(*outputsDir)
		if err != nil {
			log.Fatalf("Failed to read outputs directory: %v", err)
		}

		orphans := 0
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			id := storage.AnalysisIDFromOutput(file.Name())
			if id != "" {
				a, err := analyses.GetByID(id)
				if err != nil {
					log.Printf("⚠️  Failed to look up %s: %v", file.Name(), err)
					continue
				}
				if a != nil {
					continue
				}
			}

			orphans++
			if *prune {
				if err := os.Remove(filepath.Join(*outputsDir, file.Name())); err != nil {
					log.Printf("⚠️  Failed to delete %s: %v", file.Name(), err)
					continue
				}
				fmt.Printf("   🗑️  Deleted %s\n", file.Name())
			} else {
				fmt.Printf("   ⚠️  No record for %s\n", file.Name())
			}
		}
		fmt.Printf("Found %d videos without a database record\n", orphans)
	}

	// Show stats
	stats, err := analyses.GetStats()
	if err == nil {
		fmt.Printf("\n📊 Database Statistics:\n")
		fmt.Printf("   Total analyses: %d\n", stats.TotalAnalyses)
		fmt.Printf("   Violent windows: %d\n", stats.ViolentFrames)
		fmt.Printf("   Non-violent windows: %d\n", stats.NonViolentFrames)
		if len(stats.PerStatus) > 0 {
			fmt.Printf("   Per status:\n")
			for status, count := range stats.PerStatus {
				fmt.Printf("      - %s: %d\n", status, count)
			}
		}
	}
}

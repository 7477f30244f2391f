// Command-line tool to clean the database by dropping the workflow tables.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"live-placement-backend/internal/config"
	"live-placement-backend/internal/database"
	"live-placement-backend/internal/model"
)

func main() {

	// Warning message
	fmt.Println("⚠️ WARNING: This command will DROP the companies, students, shortlist and offer tables.")
	fmt.Println("This action is irreversible. Do you want to continue? (yes/no): ")

	// Ask for confirmation
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	input = strings.TrimSpace(strings.ToLower(input))

	if input != "yes" {
		fmt.Println("Operation cancelled.")
		return
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDBInstance(cfg)
	if err != nil {
		log.Fatalf("Database failed to initialize: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Dependents first so foreign keys never block a drop
	tables := []interface{}{&model.OfferRecord{}, &model.ShortlistRecord{}, &model.Student{}, &model.Company{}}
	if err := db.Migrator().DropTable(tables...); err != nil {
		log.Fatalf("failed to execute drop command: %v", err)
	}

	fmt.Println("✅ Workflow tables dropped successfully.")
}

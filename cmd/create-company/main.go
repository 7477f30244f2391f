// Command create-company registers a company taking part in the placement drive.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"live-placement-backend/internal/config"
	"live-placement-backend/internal/database"
	"live-placement-backend/internal/model"
)

func main() {

	fmt.Println("Registering a company")

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Enter company name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Company name is required.")
		os.Exit(1)
	}

	fmt.Printf("Enter number of interview rounds (%d-%d): ", model.MinRounds, model.MaxRoundsLimit)
	rawRounds, _ := reader.ReadString('\n')
	rounds, err := strconv.Atoi(strings.TrimSpace(rawRounds))
	if err != nil {
		fmt.Println("Rounds must be a number.")
		os.Exit(1)
	}

	fmt.Print("Enter POC user ids (comma separated, optional): ")
	rawPOCs, _ := reader.ReadString('\n')
	var pocIDs pq.StringArray
	for _, id := range strings.Split(rawPOCs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			pocIDs = append(pocIDs, id)
		}
	}

	company := model.Company{
		Name:      name,
		MaxRounds: rounds,
		POCIDs:    pocIDs,
	}
	if err := company.Validate(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDBInstance(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() { _ = db.Close() }()

	var count int64
	if err := db.Model(&model.Company{}).Where("name = ?", name).Count(&count).Error; err != nil {
		log.Fatalf("Failed to check company name: %v", err)
	}
	if count > 0 {
		fmt.Println("Company name already taken")
		os.Exit(1)
	}

	if err := db.Create(&company).Error; err != nil {
		log.Fatal("failed to create company: ", err)
	}

	fmt.Println("Company registered successfully!")
	fmt.Println("======================================")
	fmt.Printf("ID: %s\n", company.ID)
	fmt.Printf("Name: %s\n", company.Name)
	fmt.Printf("Rounds: %d\n", company.MaxRounds)
	fmt.Printf("POCs: %s\n", strings.Join(company.POCIDs, ", "))
	fmt.Println("======================================")
}

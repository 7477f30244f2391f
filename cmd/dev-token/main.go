// Command dev-token prints a signed access token for local API and websocket testing.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"live-placement-backend/internal/auth"
	"live-placement-backend/internal/config"
	"live-placement-backend/internal/model"
	"live-placement-backend/internal/utilities"
)

func main() {
	role := flag.String("role", model.RoleAdmin, "admin, poc or student")
	subject := flag.String("sub", "", "user id; a student id must be a uuid")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	roles := []string{model.RoleAdmin, model.RolePOC, model.RoleStudent}
	if !utilities.Contains(roles, *role) {
		log.Fatalf("unknown role %q", *role)
	}
	if *subject == "" {
		*subject = "dev-" + *role
		if *role == model.RoleStudent {
			*subject = uuid.NewString()
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	token, err := auth.GenerateToken(cfg.SecretKey, *subject, *role, *ttl)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("======================================")
	fmt.Printf("Subject: %s\nRole: %s\nExpires: %s\n", *subject, *role, time.Now().Add(*ttl).Format(time.RFC3339))
	fmt.Println("======================================")
	fmt.Println(token)
}

package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/crmhq/crm-server/config"
	"github.com/crmhq/crm-server/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@example.com"
	password := "demopassword1"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	// Seeded user is pre-verified so it can log in straight away.
	var id int64
	err = db.QueryRow(`
		INSERT INTO users (uid, email, password_hash, email_verified, confirmation_token)
		VALUES ($1, $2, $3, TRUE, NULL)
		ON CONFLICT (email) DO UPDATE SET email_verified = TRUE
		RETURNING id
	`, uuid.New(), email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%d email=%s password=%s\n", id, email, password)

	customers := []struct {
		name, email, phone string
	}{
		{"Ada Lovell", "ada@example.com", "5550001111"},
		{"Bruno Marchetti", "bruno@example.com", "5550002222"},
		{"Chioma Eze", "chioma@example.com", "5550003333"},
	}
	for _, c := range customers {
		var cid int64
		err := db.QueryRow(`
			INSERT INTO customers (user_id, name, email, phone)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, id, c.name, c.email, c.phone).Scan(&cid)
		if err != nil {
			log.Fatalf("failed to seed customer %s: %v", c.email, err)
		}

		if _, err := db.Exec(`
			INSERT INTO deals (customer_id, title, amount)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (SELECT 1 FROM deals WHERE customer_id = $1)
		`, cid, "Initial contract", 2500.00); err != nil {
			log.Fatalf("failed to seed deal for %s: %v", c.email, err)
		}
		fmt.Printf("seeded customer: id=%d email=%s\n", cid, c.email)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"adoptm3/pkg/config"
	"adoptm3/pkg/database"
	"adoptm3/pkg/records"
)

func main() {
	username := flag.String("username", "", "username to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	flag.Parse()
	if *username == "" || *password == "" {
		log.Fatal("--username and --password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close(db)

	err = records.SetPassword(context.Background(), db, *username, *password)
	switch {
	case errors.Is(err, records.ErrNotFound):
		log.Fatalf("user %s not found", *username)
	case err != nil:
		log.Fatalf("reset failed: %v", err)
	}
	fmt.Printf("Password reset for user %s; refresh tokens revoked\n", *username)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"adoptm3/pkg/config"
	"adoptm3/pkg/database"
	"adoptm3/pkg/records"
)

func main() {
	create := flag.Bool("create", false, "create a login for clients whose email matches no user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close(db)

	res, err := records.LinkClientsToUsers(context.Background(), db, *create)
	if err != nil {
		log.Fatalf("sync failed: %v", err)
	}
	fmt.Printf("linked=%d created=%d skipped=%d\n", res.Linked, res.Created, res.Skipped)
}

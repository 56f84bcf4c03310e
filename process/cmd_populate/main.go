package main

import (
	"context"
	"flag"
	"log"
	"time"

	"adoptm3/models"
	"adoptm3/pkg/config"
	"adoptm3/pkg/database"
	"adoptm3/pkg/storage"
	"adoptm3/process/populate"
)

func main() {
	clients := flag.Int("clients", 20, "number of clients to create")
	relics := flag.Int("relics", 40, "number of relics to create")
	wipe := flag.Bool("clear", false, "delete existing demo data first")
	logins := flag.Bool("logins", false, "create a login for every new client")
	as := flag.String("as", "admin", "username recorded as creator")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
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

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	var actor models.User
	if err := db.Preload("Role").Where("username = ?", *as).First(&actor).Error; err != nil {
		log.Fatalf("user %s: %v (create it with cmd/create_user)", *as, err)
	}
	st, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	stats, err := populate.Run(ctx, db, st, &actor, populate.Options{
		Clients: *clients,
		Relics:  *relics,
		Clear:   *wipe,
		Logins:  *logins,
		Seed:    *seed,
	})
	if err != nil {
		log.Fatalf("populate: %v", err)
	}
	log.Printf("states=%d cities=%d addresses=%d clients=%d users=%d relics=%d adoptions=%d",
		stats.States, stats.Cities, stats.Addresses, stats.Clients, stats.Users, stats.Relics, stats.Adoptions)
}

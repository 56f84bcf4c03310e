package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"adoptm3/models"
	"adoptm3/pkg/config"
	"adoptm3/pkg/database"
	"adoptm3/pkg/logging"
	"adoptm3/pkg/storage"
	"adoptm3/process/imageinbox"
)

func main() {
	dir := flag.String("dir", "inbox", "directory to watch for relic images")
	actor := flag.String("as", "admin", "username recorded as the uploader")
	once := flag.Bool("once", false, "process the current files and exit")
	workers := flag.Int("workers", 2, "number of concurrent uploads")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logging.New(cfg.Log.Format, cfg.Log.Level)
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var user models.User
	if err := db.WithContext(ctx).Preload("Role").Where("username = ?", *actor).First(&user).Error; err != nil {
		log.Fatalf("user %s: %v", *actor, err)
	}
	st, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	in := &imageinbox.Ingestor{
		DB:      db,
		Store:   st,
		Rules:   storage.RulesFromConfig(cfg.Storage),
		Actor:   &user,
		Logger:  lg.With("component", "image_inbox"),
		Dir:     *dir,
		Workers: *workers,
	}
	if *once {
		n, err := in.Scan(ctx)
		if err != nil {
			log.Fatalf("scan: %v", err)
		}
		log.Printf("attached %d image(s)", n)
		return
	}
	if err := in.Watch(ctx); err != nil {
		log.Fatalf("watch: %v", err)
	}
}

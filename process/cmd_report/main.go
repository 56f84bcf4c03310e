package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"adoptm3/pkg/config"
	"adoptm3/pkg/database"
	"adoptm3/process/report"
)

func main() {
	username := flag.String("username", "admin", "username to report for")
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list the month's adoptions")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := report.RunReport(context.Background(), db, os.Stdout, *username, *month, *list); err != nil {
		fmt.Fprintf(os.Stderr, "report failed: %v\n", err)
		os.Exit(1)
	}
}

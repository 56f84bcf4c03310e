package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"adoptm3/pkg/config"
	"adoptm3/pkg/database"
	"adoptm3/pkg/records"

	"golang.org/x/term"
)

func main() {
	superuser := flag.Bool("superuser", false, "grant the administrator role")
	email := flag.String("email", "", "email address (required for regular users)")
	name := flag.String("name", "", "full name")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/create_user [-superuser] [-email addr] [-name full] <username> [password]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}
	username := flag.Arg(0)
	password := flag.Arg(1)
	if password == "" {
		var err error
		if password, err = promptPassword(); err != nil {
			log.Fatalf("read password: %v", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer database.Close(db)

	ctx := context.Background()
	if err := database.SeedRoles(ctx, db); err != nil {
		log.Fatalf("seed roles: %v", err)
	}
	user, client, err := records.RegisterUser(ctx, db, records.SignupInput{
		Username:  username,
		Email:     *email,
		Password:  password,
		Name:      *name,
		Superuser: *superuser,
	})
	if errors.Is(err, records.ErrUsernameTaken) {
		fmt.Printf("user %s already exists\n", username)
		return
	}
	if err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d client=%d superuser=%v\n", user.Username, user.ID, client.ID, *superuser)
}

// promptPassword reads the password twice without echo.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; pass the password as an argument")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Password (again): ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

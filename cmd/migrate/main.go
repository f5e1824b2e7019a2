package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ancestra.org/internal/auth"
	"ancestra.org/internal/migrate"
)

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("ANCESTRA_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "migrations", "Path to SQL migrations")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or ANCESTRA_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|status|seed-owner]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	mgr := migrate.NewManager(db, *migrationsPath)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	case "seed-owner":
		err = seedOwner(ctx, db)
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

// seedOwner creates the initial owner account so a fresh deployment has a
// login. Credentials come from ANCESTRA_OWNER_NAME / ANCESTRA_OWNER_PASSWORD.
func seedOwner(ctx context.Context, db *sql.DB) error {
	name := os.Getenv("ANCESTRA_OWNER_NAME")
	password := os.Getenv("ANCESTRA_OWNER_PASSWORD")
	if name == "" || password == "" {
		return fmt.Errorf("ANCESTRA_OWNER_NAME and ANCESTRA_OWNER_PASSWORD are required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	store := auth.NewPGStore(db)
	if err := store.Create(ctx, &auth.User{Name: name, PasswordHash: hash, Role: auth.RoleOwner}); err != nil {
		return err
	}
	log.Printf("seeded owner account %q", name)
	return nil
}

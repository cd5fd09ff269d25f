// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate up
//	migrate down [steps]
//	migrate version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"logistics-backoffice/internal/config"
	"logistics-backoffice/internal/db"
	"logistics-backoffice/internal/migrate"

	"github.com/labstack/gommon/log"
)

func main() {
	configPath := flag.String("config", ".", "directory containing app.env")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config dir] up | down [steps] | version\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to the database: %v", err)
	}
	defer pool.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		if err := migrate.Apply(ctx, pool); err != nil {
			log.Fatal(err)
		}
		log.Info("migrations applied")
	case "down":
		steps := 1
		if flag.NArg() > 1 {
			if steps, err = strconv.Atoi(flag.Arg(1)); err != nil {
				log.Fatalf("invalid step count %q", flag.Arg(1))
			}
		}
		if err := migrate.Down(ctx, pool, steps); err != nil {
			log.Fatal(err)
		}
		log.Infof("rolled back %d migration(s)", steps)
	case "version":
		v, dirty, err := migrate.Version(ctx, pool)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("version %d (dirty: %t)\n", v, dirty)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

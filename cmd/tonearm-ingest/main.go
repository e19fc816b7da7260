// Command tonearm-ingest loads a library manifest into the catalog
// database the bridge serves from.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/tonearmhq/tonearm/internal/bridge/ingest"
	"github.com/tonearmhq/tonearm/internal/bridge/store/drivers/sqlite"
)

func main() {
	_ = godotenv.Load()

	var (
		dbFile   = flag.String("db", "tonearm.db", "path to the catalog database")
		manifest = flag.String("manifest", "library.json", "path to the library manifest")
	)
	flag.Parse()

	m, err := ingest.LoadManifest(*manifest)
	if err != nil {
		log.Fatalf("failed to load manifest: %v", err)
	}

	st, err := sqlite.NewStore(fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", *dbFile))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer st.Close()

	if err := st.ApplyMigrations(); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	stats, err := ingest.Apply(context.Background(), st, m)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	log.Printf("ingested %d artists, %d albums, %d tracks", stats.Artists, stats.Albums, stats.Tracks)
}

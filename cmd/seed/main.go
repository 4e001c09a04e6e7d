package main

import (
	"context"
	"flag"
	"log"

	"github.com/burgerhub/api/internal/config"
	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/logging"
	"github.com/burgerhub/api/internal/storage"
	"github.com/burgerhub/api/internal/store"
)

func main() {
	cfg := config.Load()

	// CLI flags
	dataDir := flag.String("data", cfg.DataDir, "LevelDB directory (defaults to DATA_DIR)")
	reset := flag.Bool("reset", false, "Drop every collection and the order counter before seeding")
	flag.Parse()

	logging.Setup("burgerhub-seed", cfg.Env, cfg.LogLevel)

	if *dataDir == "" {
		log.Fatal("ERROR: no data directory; pass -data or set DATA_DIR")
	}

	db, err := storage.NewLevelDB(*dataDir)
	if err != nil {
		log.Fatalf("ERROR: open leveldb: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	st := store.New(db, nil)

	if *reset {
		log.Println("WARNING: resetting all collections to seed data")
		err = st.ClearAllData(ctx)
	} else {
		err = st.InitializeData(ctx)
	}
	if err != nil {
		log.Fatalf("ERROR: seed: %v", err)
	}

	for _, key := range enum.Collections {
		n, err := count(ctx, st, key)
		if err != nil {
			log.Fatalf("ERROR: read %s: %v", key, err)
		}
		log.Printf("%s: %d records", key, n)
	}
	next, err := st.PeekOrderNumber(ctx)
	if err != nil {
		log.Fatalf("ERROR: read order counter: %v", err)
	}
	log.Printf("Seed completed successfully, next order number %s", next)
}

func count(ctx context.Context, st *store.Store, key string) (int, error) {
	switch key {
	case enum.CollectionOrders:
		v, err := st.Orders(ctx)
		return len(v), err
	case enum.CollectionCustomers:
		v, err := st.Customers(ctx)
		return len(v), err
	case enum.CollectionCoupons:
		v, err := st.Coupons(ctx)
		return len(v), err
	case enum.CollectionMenus:
		v, err := st.Menus(ctx)
		return len(v), err
	}
	return 0, nil
}

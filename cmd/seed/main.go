// Command seed fills the configured document store with demo HeartBridge
// members, articles, comments and favorites.
package main

import (
	"context"
	"flag"
	"log"

	"heartbridge/internal/auth"
	"heartbridge/internal/bootstrap"
	"heartbridge/internal/config"
	"heartbridge/internal/seed"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	preset := flag.String("preset", "demo", "Seeding size: small, demo or stress")
	parents := flag.Int("parents", -1, "Override the number of parents")
	teens := flag.Int("teens", -1, "Override the number of teens")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible content (0 = time based)")
	shouldClean := flag.Bool("clean", false, "Delete previously seeded data first")
	dryRun := flag.Bool("dry-run", false, "Build the data without writing it")
	fastHash := flag.Bool("fast-hash", true, "Use the minimum bcrypt cost for seeded passwords")
	flag.Parse()

	log.Println("🌱 HeartBridge Seeder")
	log.Println("====================")

	opts, err := seed.Preset(*preset)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if *parents >= 0 {
		opts.Parents = *parents
	}
	if *teens >= 0 {
		opts.Teens = *teens
	}
	opts.RandSeed = *randSeed
	opts.DryRun = *dryRun

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.StoreDriver == "" || cfg.StoreDriver == "memory" {
		log.Println("⚠️  STORE_DRIVER=memory: seeded data is discarded when this process exits")
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = rt.Close() }()

	if local, ok := rt.Auth.(*auth.LocalBackend); ok && *fastHash {
		local.WithCost(bcrypt.MinCost)
	}

	s := seed.NewSeeder(rt.Store, rt.Auth, opts)
	if *shouldClean && !*dryRun {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	res, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Seeded %d members, %d articles, %d comments, %d favorites into the %s store.",
		len(res.Users), len(res.Articles), res.Comments, res.Favorites, cfg.StoreDriver)
	if len(res.Users) > 0 {
		log.Printf("📧 Sign in as %s (or any parentNN/teenNN address) with password %s",
			res.Users[0].Email, seed.DefaultPassword)
	}
}

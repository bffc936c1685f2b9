// Command main runs the database seeder for Wanderlust.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"wanderlust/internal/bootstrap"
	"wanderlust/internal/config"
	"wanderlust/internal/database"
	"wanderlust/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numCampgrounds := flag.Int("campgrounds", 60, "Number of campgrounds to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("fast", false, "Skip bcrypt hashing for faster seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d campgrounds, clean=%v\n", *numUsers, *numCampgrounds, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = database.Disconnect(ctx, rt.Client)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	seeder := seed.NewSeeder(rt.DB, seed.SeedOptions{SkipBcrypt: *skipBcrypt})

	if *shouldClean {
		if err := seeder.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		if err := database.EnsureIndexes(ctx, rt.DB); err != nil {
			log.Fatalf("Index creation failed: %v", err)
		}
	}

	if err := seeder.Populate(ctx, *numUsers, *numCampgrounds); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done! Your database is now populated with demo data.")
	log.Println("All seeded users have the password: password123")
}

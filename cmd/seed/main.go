// Command seed fills the database with sample profiles, posts and conversations.
package main

import (
	"context"
	"flag"
	"log"

	"encore/internal/config"
	"encore/internal/database"
	"encore/internal/seed"
)

func main() {
	profiles := flag.Int("profiles", 40, "Number of profiles to create")
	posts := flag.Int("posts", 10, "Posts per profile")
	clean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Seed a named preset from presets.yaml (minimal, scene, festival)")
	randSeed := flag.Int64("seed", 0, "Random seed; 0 picks one from the clock")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	s := seed.NewSeeder(db, *randSeed)
	if *clean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if *preset != "" {
		log.Printf("Applying preset %s", *preset)
		if _, err := s.ApplyPreset(*preset); err != nil {
			log.Fatalf("Preset seeding failed: %v", err)
		}
	} else {
		opts := seed.Options{
			Profiles:        *profiles,
			PostsPerProfile: *posts,
			FollowRatio:     0.2,
			PrivateRatio:    0.1,
			LikeRatio:       0.15,
			CommentsPerPost: 2,
			Conversations:   *profiles / 2,
			MessagesPerChat: 8,
			Seed:            *randSeed,
		}
		if _, err := s.Run(opts); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	log.Println("Seeding complete. Sign in with a token whose subject is a user id between 1 and the profile count.")
}

package main

import (
	"log"

	"gorm.io/gorm"

	"github.com/schoolpulse/api/config"
	"github.com/schoolpulse/api/database"
)

// Seeds the admin account and the default grade levels.
func main() {
	if err := config.LoadENV(); err != nil {
		log.Fatalf("failed to load environment: %v", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("failed to get GORM DB instance")
	}

	if err := database.RunSeeds(db); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding completed")
}

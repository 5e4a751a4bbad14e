package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/Jovan-creator/armaflex-sub001/internal/config"
	"github.com/Jovan-creator/armaflex-sub001/internal/database"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/availability"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/payment"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/lock"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

// One-shot maintenance pass for cron: release expired holds and repair
// payment rollups that drifted from their ledgers. The api binary runs the
// same sweeps continuously; this exists for deployments that prefer cron
// ownership of maintenance.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx := context.Background()
	reservationRepo := repository.NewReservationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	availabilityService := availability.NewService(reservationRepo, repository.NewResourceRepository(db), lock.NewKeyed(), cfg.HoldTTL, log.Printf)
	expired, err := availabilityService.ExpireHolds(ctx)
	if err != nil {
		log.Fatalf("hold sweep failed: %v", err)
	}

	paymentService := payment.NewService(paymentRepo, reservationRepo, reservationRepo, nil, lock.NewKeyed(), log.Printf)
	repaired, err := paymentService.Reconcile(ctx)
	if err != nil {
		log.Fatalf("rollup reconcile failed: %v", err)
	}

	log.Printf("sweep completed: expired_holds=%d repaired_rollups=%d", expired, repaired)
}

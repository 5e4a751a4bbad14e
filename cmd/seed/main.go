package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"github.com/Jovan-creator/armaflex-sub001/internal/config"
	"github.com/Jovan-creator/armaflex-sub001/internal/database"
	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

// Seeds a demo property: a handful of rooms, a dining table, an event
// space, and two connected channels with a split allocation. Intended for
// local development against a fresh database.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = "reservations.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM sync_events")
	db.Exec("DELETE FROM channel_allocations")
	db.Exec("DELETE FROM refunds")
	db.Exec("DELETE FROM payments")
	db.Exec("DELETE FROM reservations")
	db.Exec("DELETE FROM channels")
	db.Exec("DELETE FROM resources")

	ctx := context.Background()
	resources := repository.NewResourceRepository(db)
	channels := repository.NewChannelRepository(db)
	reservations := repository.NewReservationRepository(db)

	seedResources := []domain.Resource{
		{
			Kind:           domain.KindRoom,
			Name:           "Standard Double 101",
			Capacity:       2,
			BaseRate:       100,
			WeekendRate:    150,
			TotalInventory: 1,
			Currency:       cfg.Currency,
			Active:         true,
		},
		{
			Kind:           domain.KindRoom,
			Name:           "Deluxe Suite 301",
			Capacity:       4,
			BaseRate:       240,
			WeekendRate:    320,
			RateOverrides:  datatypes.JSONMap{"friday": 360.0},
			TotalInventory: 1,
			Currency:       cfg.Currency,
			Active:         true,
		},
		{
			Kind:           domain.KindDining,
			Name:           "Window Table 4",
			Capacity:       4,
			BaseRate:       25,
			TotalInventory: 1,
			Currency:       cfg.Currency,
			Active:         true,
		},
		{
			Kind:           domain.KindEvent,
			Name:           "Garden Pavilion",
			Capacity:       120,
			BaseRate:       500,
			RateOverrides:  datatypes.JSONMap{"per_hour": 150.0},
			TotalInventory: 1,
			Currency:       cfg.Currency,
			Active:         true,
		},
	}

	for i := range seedResources {
		if err := resources.Create(ctx, &seedResources[i]); err != nil {
			log.Fatalf("seed resource %q: %v", seedResources[i].Name, err)
		}
		log.Printf("resource %d: %s", seedResources[i].ID, seedResources[i].Name)
	}

	seedChannels := []struct {
		code string
		name string
	}{
		{"direct", "Direct Website"},
		{"globalstays", "GlobalStays OTA"},
	}

	channelIDs := make([]int64, 0, len(seedChannels))
	for _, sc := range seedChannels {
		key := uuid.NewString()
		hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal(err)
		}
		ch := &domain.Channel{
			Code:           sc.code,
			Name:           sc.name,
			Active:         true,
			WebhookKeyHash: string(hash),
		}
		if err := channels.CreateChannel(ctx, ch); err != nil {
			log.Fatalf("seed channel %q: %v", sc.code, err)
		}
		channelIDs = append(channelIDs, ch.ID)
		log.Printf("channel %s connected, webhook key: %s", ch.Code, key)
	}

	// split room 101 between the two channels
	roomID := seedResources[0].ID
	if _, err := channels.UpsertAllocation(ctx, roomID, channelIDs[0], 1); err != nil {
		log.Fatal(err)
	}

	// one confirmed stay next week so calendars are not empty
	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 7)
	r := &domain.Reservation{
		ResourceID:       roomID,
		BookingReference: "DEMO001",
		OperationID:      uuid.NewString(),
		StartAt:          start,
		EndAt:            start.AddDate(0, 0, 2),
		Adults:           2,
		Status:           domain.ReservationConfirmed,
		PaymentStatus:    domain.RollupPending,
		TotalAmount:      200,
		Currency:         cfg.Currency,
	}
	if err := reservations.Create(ctx, r); err != nil {
		log.Fatal(err)
	}

	log.Println("Seed complete.")
}

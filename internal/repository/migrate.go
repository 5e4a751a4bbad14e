package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates the schema for every table the core owns.
// Used by cmd/seed and the e2e suite; production schemas are managed with
// SQL migrations built from the same models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&resourceModel{},
		&reservationModel{},
		&paymentModel{},
		&refundModel{},
		&channelModel{},
		&channelAllocationModel{},
		&syncEventModel{},
	)
}

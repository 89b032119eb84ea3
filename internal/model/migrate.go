package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates custom indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Customer{},
		&Invoice{},
	); err != nil {
		return err
	}

	// Case-insensitive unique username.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users ((lower(username)))",
	).Error; err != nil {
		return err
	}

	// Customer search orders by each customer's latest invoice date.
	return db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_invoices_customer_date ON invoices (customer_id, date DESC)",
	).Error
}

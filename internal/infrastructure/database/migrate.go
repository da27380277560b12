package database

import (
	"errors"
	"fmt"

	"greenledger-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Migrate creates or updates every table of the schema, then applies the Postgres-only
// constraints AutoMigrate cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, m := range postgresMigrations {
		if err := db.Exec(m.sql).Error; err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		log.Debug().Str("migration", m.name).Msg("applied")
	}
	return nil
}

type customMigration struct {
	name string
	sql  string
}

var postgresMigrations = []customMigration{
	{"pgcrypto", `CREATE EXTENSION IF NOT EXISTS pgcrypto`},
	{"chk_asset_tenants_lease", `DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_asset_tenants_lease') THEN
    ALTER TABLE asset_tenants ADD CONSTRAINT chk_asset_tenants_lease
      CHECK (lease_end_date IS NULL OR lease_end_date >= lease_start_date);
  END IF;
END $$`},
	{"chk_credits_total", `DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_credits_total') THEN
    ALTER TABLE credits ADD CONSTRAINT chk_credits_total
      CHECK (total_amount = quantity * price_per_credit);
  END IF;
END $$`},
	{"credits_immutable_total", `CREATE OR REPLACE FUNCTION credits_keep_total() RETURNS trigger AS $$
BEGIN
  IF NEW.quantity <> OLD.quantity OR NEW.price_per_credit <> OLD.price_per_credit
     OR NEW.total_amount <> OLD.total_amount THEN
    RAISE EXCEPTION 'credit amounts are immutable';
  END IF;
  RETURN NEW;
END $$ LANGUAGE plpgsql`},
	{"trg_credits_immutable_total", `DROP TRIGGER IF EXISTS trg_credits_immutable_total ON credits;
CREATE TRIGGER trg_credits_immutable_total BEFORE UPDATE ON credits
  FOR EACH ROW EXECUTE FUNCTION credits_keep_total()`},
	{"idx_asset_documents_upload_date", `CREATE INDEX IF NOT EXISTS idx_asset_documents_asset_upload
  ON asset_documents (asset_id, upload_date DESC)`},
	{"idx_notifications_user_created", `CREATE INDEX IF NOT EXISTS idx_notifications_user_created
  ON notifications (user_id, created_at DESC)`},
}

// SeedProjects inserts the given projects when no project with the same name exists.
func SeedProjects(db *gorm.DB, projects []domain.Project) (int, error) {
	created := 0
	for i := range projects {
		p := projects[i]
		var existing domain.Project
		err := db.Where("name = ?", p.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}
		if err := db.Create(&p).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// Command migrate applies the schema and optionally seeds carbon projects from a JSON file.
//
//	go run ./cmd/migrate -seed projects.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"greenledger-backend/internal/config"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/infrastructure/database"
	"greenledger-backend/internal/pkg/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	seed := flag.String("seed", "", "path to a JSON array of projects to insert")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}
	logger.Setup(cfg.Env, cfg.LogLevel)

	db, err := database.Open(context.Background(), cfg.DatabaseURL, cfg.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	log.Info().Msg("Schema migrated")

	if *seed == "" {
		return
	}
	raw, err := os.ReadFile(*seed)
	if err != nil {
		log.Fatal().Err(err).Str("file", *seed).Msg("Seed file unreadable")
	}
	var projects []domain.Project
	if err := json.Unmarshal(raw, &projects); err != nil {
		log.Fatal().Err(err).Str("file", *seed).Msg("Seed file is not a JSON array of projects")
	}
	for i := range projects {
		if projects[i].Status == "" {
			projects[i].Status = domain.ProjectActive
		}
	}
	n, err := database.SeedProjects(db, projects)
	if err != nil {
		log.Fatal().Err(err).Int("created", n).Msg("Seeding failed")
	}
	log.Info().Int("created", n).Int("skipped", len(projects)-n).Msg("Projects seeded")
}

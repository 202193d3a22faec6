// Command seed populates a fresh database with demo users, projects
// and permission records for local development.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/aeroplan/collab/internal/adapters/store"
	"github.com/aeroplan/collab/internal/config"
	"github.com/aeroplan/collab/internal/domain"
)

type seedUser struct {
	screenname string
	email      string
	password   string
	grants     map[string]domain.AccessLevel // project name -> level
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open datastore")
	}
	defer db.Close()

	ctx := context.Background()

	projects := []string{"transatlantic-survey", "polar-route"}
	users := []seedUser{
		{
			screenname: "ada",
			email:      "ada@example.com",
			password:   "ada-dev-password",
			grants: map[string]domain.AccessLevel{
				"transatlantic-survey": domain.LevelAdmin,
				"polar-route":          domain.LevelCollaborator,
			},
		},
		{
			screenname: "brian",
			email:      "brian@example.com",
			password:   "brian-dev-password",
			grants: map[string]domain.AccessLevel{
				"transatlantic-survey": domain.LevelCollaborator,
				"polar-route":          domain.LevelViewer,
			},
		},
		{
			screenname: "carol",
			email:      "carol@example.com",
			password:   "carol-dev-password",
			grants: map[string]domain.AccessLevel{
				"polar-route": domain.LevelViewer,
			},
		},
	}

	byName := make(map[string]domain.ProjectID)
	for _, name := range projects {
		p, err := db.CreateProject(ctx, name)
		if err != nil {
			log.Fatal().Err(err).Str("project", name).Msg("create project")
		}
		byName[name] = p.ID
		log.Info().Str("project", name).Str("id", string(p.ID)).Msg("created project")
	}

	for _, su := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Msg("hash password")
		}
		u, err := db.CreateUser(ctx, su.screenname, su.email, string(hash))
		if err != nil {
			log.Fatal().Err(err).Str("email", su.email).Msg("create user")
		}
		for name, level := range su.grants {
			if err := db.SetPermission(ctx, u.ID, byName[name], level); err != nil {
				log.Fatal().Err(err).Str("project", name).Msg("set permission")
			}
		}
		log.Info().Str("email", su.email).Int64("uid", int64(u.ID)).Msg("created user")
	}

	log.Info().Msg("seed complete")
}

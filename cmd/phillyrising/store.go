package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"phillyrising/adapter/memory"
	"phillyrising/adapter/postgres"
	"phillyrising/domain"
	"phillyrising/internal/config"
)

// store bundles the persistence ports behind whichever backend the
// config selects.
type store struct {
	feeds         domain.FeedRepository
	profiles      domain.ProfileRepository
	neighborhoods domain.NeighborhoodRepository
	shortURLs     domain.ShortURLRepository
	revisions     domain.RevisionRepository
	sessions      domain.SessionRepository

	close func()
}

func openStore(ctx context.Context, cfg config.Config) (*store, error) {
	if cfg.Storage == "memory" {
		m := memory.NewStore()
		return &store{
			feeds:         m,
			profiles:      m,
			neighborhoods: m,
			shortURLs:     m,
			revisions:     m,
			sessions:      m,
			close:         func() {},
		}, nil
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	repo := postgres.New(db)
	if err := repo.Ensure(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ensure failed: %w", err)
	}
	return &store{
		feeds:         repo,
		profiles:      repo,
		neighborhoods: repo,
		shortURLs:     repo,
		revisions:     repo,
		sessions:      repo,
		close:         func() { db.Close() },
	}, nil
}

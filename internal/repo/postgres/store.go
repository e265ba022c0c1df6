package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/profilehub/profilehub/internal/observability"
)

// Store implements every service-facing store interface on top of a pgx
// pool. Mutations that need a pre-mutation check run inside a transaction
// with a row lock.
type Store struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewStore(pool *pgxpool.Pool, prom *observability.Prom) *Store {
	return &Store{pool: pool, prom: prom}
}

func (s *Store) observe(op string, fn func() error) error {
	if s.prom != nil {
		return s.prom.ObserveStore(op, fn)
	}
	return fn()
}

const schema = `
CREATE TABLE IF NOT EXISTS roles (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	value INT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role_name TEXT NOT NULL REFERENCES roles(name) ON UPDATE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	username TEXT NOT NULL,
	social TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS text_blocks (
	id UUID PRIMARY KEY,
	search_name TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	body TEXT NOT NULL,
	grp TEXT NOT NULL DEFAULT '',
	image TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS init_state (
	only_row BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (only_row),
	initialized BOOLEAN NOT NULL,
	initialized_at TIMESTAMPTZ
);
`

// EnsureSchema creates the tables on startup; everything is IF NOT EXISTS so
// it is safe to run on every boot.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/profilehub/profilehub/internal/domain/profile"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/domain/user"
)

func (s *Store) Initialized(ctx context.Context) (bool, error) {
	var done bool

	err := s.observe("init.read_state", func() error {
		return s.pool.QueryRow(ctx, `SELECT initialized FROM init_state WHERE only_row`).Scan(&done)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}

		return false, err
	}

	return done, nil
}

// Initialize seeds the role hierarchy, the owner account and its profile and
// flips the init flag in one transaction. A concurrent init loses on the
// init_state primary key and reads back as a no-op.
func (s *Store) Initialize(ctx context.Context, roles []role.Role, owner user.User, ownerProfile profile.Profile) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var inserted bool

	err = s.observe("init.claim", func() error {
		return tx.QueryRow(ctx,
			`INSERT INTO init_state (only_row, initialized, initialized_at)
			 VALUES (TRUE, TRUE, $1)
			 ON CONFLICT (only_row) DO NOTHING
			 RETURNING initialized`,
			time.Now().UTC(),
		).Scan(&inserted)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// someone else already claimed the bootstrap
			err = nil
			return
		}

		return
	}

	for _, r := range roles {
		err = s.observe("init.seed_role", func() error {
			_, e := tx.Exec(ctx,
				`INSERT INTO roles (id, name, value, description, created_at, updated_at)
				 VALUES ($1,$2,$3,$4,$5,$6)`,
				r.ID, r.Name, r.Value, r.Description, r.CreatedAt, r.UpdatedAt,
			)
			return e
		})

		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				err = role.ErrDuplicateName
			}

			return
		}
	}

	err = s.observe("init.create_owner", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, role_name, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			owner.ID, owner.Email, owner.PasswordHash, owner.Role, owner.CreatedAt, owner.UpdatedAt,
		)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			err = user.ErrDuplicateEmail
		}

		return
	}

	err = s.observe("init.create_owner_profile", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO profiles (id, user_id, username, social, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			ownerProfile.ID, ownerProfile.UserID, ownerProfile.Username, ownerProfile.Social, ownerProfile.CreatedAt, ownerProfile.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return
	}

	return tx.Commit(ctx)
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/profilehub/profilehub/internal/domain/profile"
	"github.com/profilehub/profilehub/internal/domain/user"
)

const profileViewQuery = `
	SELECT p.id, p.user_id, p.username, p.social, p.created_at, p.updated_at,
	       u.id, u.email, u.role_name
	FROM profiles p
	JOIN users u ON u.id = p.user_id
`

func scanProfileView(row pgx.Row) (profile.View, error) {
	var v profile.View

	err := row.Scan(
		&v.ID, &v.UserID, &v.Username, &v.Social, &v.CreatedAt, &v.UpdatedAt,
		&v.User.ID, &v.User.Email, &v.User.Role,
	)

	return v, err
}

// CreateUserWithProfile writes the account and its profile in one
// transaction so registration never leaves half a pair behind.
func (s *Store) CreateUserWithProfile(ctx context.Context, u user.User, p profile.Profile) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = s.observe("profiles.create.user", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, role_name, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			u.ID, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
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

	err = s.observe("profiles.create.profile", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO profiles (id, user_id, username, social, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			p.ID, p.UserID, p.Username, p.Social, p.CreatedAt, p.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return
	}

	return tx.Commit(ctx)
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (profile.View, error) {
	var v profile.View

	err := s.observe("profiles.get_by_email", func() error {
		var e error
		v, e = scanProfileView(s.pool.QueryRow(ctx, profileViewQuery+` WHERE u.email = $1`, email))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.View{}, profile.ErrNotFound
		}

		return profile.View{}, err
	}

	return v, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]profile.View, error) {
	var rows pgx.Rows

	err := s.observe("profiles.list", func() error {
		var e error
		rows, e = s.pool.Query(ctx, profileViewQuery+` ORDER BY p.created_at ASC, p.id ASC`)
		return e
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]profile.View, 0)

	for rows.Next() {
		v, e := scanProfileView(rows)

		if e != nil {
			return nil, e
		}

		out = append(out, v)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return out, nil
}

func (s *Store) UpdateProfile(ctx context.Context, email string, apply func(current profile.Profile) profile.Profile) (v profile.View, err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = s.observe("profiles.update.lock", func() error {
		var e error
		v, e = scanProfileView(tx.QueryRow(ctx, profileViewQuery+` WHERE u.email = $1 FOR UPDATE OF p`, email))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = profile.ErrNotFound
		}

		v = profile.View{}
		return
	}

	updated := apply(v.Profile)

	err = s.observe("profiles.update.write", func() error {
		_, e := tx.Exec(ctx,
			`UPDATE profiles
			 SET username = $1, social = $2, updated_at = $3
			 WHERE id = $4`,
			updated.Username, updated.Social, updated.UpdatedAt, updated.ID,
		)
		return e
	})

	if err != nil {
		v = profile.View{}
		return
	}

	err = tx.Commit(ctx)

	if err != nil {
		v = profile.View{}
		return
	}

	v.Profile = updated

	return
}

// DeleteProfileByEmail removes the account row; the profile goes with it via
// ON DELETE CASCADE.
func (s *Store) DeleteProfileByEmail(ctx context.Context, email string) error {
	var tag pgconn.CommandTag

	err := s.observe("profiles.delete", func() error {
		var e error
		tag, e = s.pool.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return profile.ErrNotFound
	}

	return nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/profilehub/profilehub/internal/domain/role"
)

func (s *Store) CreateRole(ctx context.Context, r role.Role) error {
	err := s.observe("roles.create", func() error {
		_, e := s.pool.Exec(ctx,
			`INSERT INTO roles (id, name, value, description, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			r.ID, r.Name, r.Value, r.Description, r.CreatedAt, r.UpdatedAt,
		)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return role.ErrDuplicateName
		}

		return err
	}

	return nil
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (role.Role, error) {
	var r role.Role

	err := s.observe("roles.get_by_name", func() error {
		return s.pool.QueryRow(ctx,
			`SELECT id, name, value, description, created_at, updated_at
			 FROM roles
			 WHERE name = $1`,
			name,
		).Scan(&r.ID, &r.Name, &r.Value, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return role.Role{}, role.ErrNotFound
		}

		return role.Role{}, err
	}

	return r, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]role.Role, error) {
	var rows pgx.Rows

	err := s.observe("roles.list", func() error {
		var e error
		rows, e = s.pool.Query(ctx,
			`SELECT id, name, value, description, created_at, updated_at
			 FROM roles
			 ORDER BY value ASC, name ASC`,
		)
		return e
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]role.Role, 0)

	for rows.Next() {
		var r role.Role

		e := rows.Scan(&r.ID, &r.Name, &r.Value, &r.Description, &r.CreatedAt, &r.UpdatedAt)

		if e != nil {
			return nil, e
		}

		out = append(out, r)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return out, nil
}

// UpdateRole locks the row, hands the current state to the caller's closure
// and writes back whatever it returns. The lock keeps the permission check
// anchored to the value immediately before the mutation.
func (s *Store) UpdateRole(ctx context.Context, name string, apply func(current role.Role) (role.Role, error)) (updated role.Role, err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current role.Role

	err = s.observe("roles.update.lock", func() error {
		return tx.QueryRow(ctx,
			`SELECT id, name, value, description, created_at, updated_at
			 FROM roles
			 WHERE name = $1
			 FOR UPDATE`,
			name,
		).Scan(&current.ID, &current.Name, &current.Value, &current.Description, &current.CreatedAt, &current.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = role.ErrNotFound
		}

		return
	}

	updated, err = apply(current)

	if err != nil {
		updated = role.Role{}
		return
	}

	err = s.observe("roles.update.write", func() error {
		_, e := tx.Exec(ctx,
			`UPDATE roles
			 SET name = $1, value = $2, description = $3, updated_at = $4
			 WHERE id = $5`,
			updated.Name, updated.Value, updated.Description, updated.UpdatedAt, updated.ID,
		)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			err = role.ErrDuplicateName
		}

		updated = role.Role{}
		return
	}

	err = tx.Commit(ctx)

	if err != nil {
		updated = role.Role{}
	}

	return
}

func (s *Store) DeleteRole(ctx context.Context, name string, allowed func(current role.Role) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current role.Role

	err = s.observe("roles.delete.lock", func() error {
		return tx.QueryRow(ctx,
			`SELECT id, name, value, description, created_at, updated_at
			 FROM roles
			 WHERE name = $1
			 FOR UPDATE`,
			name,
		).Scan(&current.ID, &current.Name, &current.Value, &current.Description, &current.CreatedAt, &current.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = role.ErrNotFound
		}

		return
	}

	err = allowed(current)

	if err != nil {
		return
	}

	var refs int

	err = s.observe("roles.delete.ref_check", func() error {
		return tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_name = $1`, name).Scan(&refs)
	})

	if err != nil {
		return
	}

	if refs > 0 {
		err = role.ErrInUse
		return
	}

	err = s.observe("roles.delete.write", func() error {
		_, e := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, current.ID)
		return e
	})

	if err != nil {
		return
	}

	return tx.Commit(ctx)
}

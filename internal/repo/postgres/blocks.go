package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/profilehub/profilehub/internal/domain/block"
)

func (s *Store) CreateBlock(ctx context.Context, b block.TextBlock) error {
	err := s.observe("blocks.create", func() error {
		_, e := s.pool.Exec(ctx,
			`INSERT INTO text_blocks (id, search_name, name, body, grp, image, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			b.ID, b.SearchName, b.Name, b.Text, b.Group, b.Image, b.CreatedAt, b.UpdatedAt,
		)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return block.ErrDuplicateSearchName
		}

		return err
	}

	return nil
}

func (s *Store) GetBlockBySearchName(ctx context.Context, searchName string) (block.TextBlock, error) {
	var b block.TextBlock

	err := s.observe("blocks.get", func() error {
		return s.pool.QueryRow(ctx,
			`SELECT id, search_name, name, body, grp, image, created_at, updated_at
			 FROM text_blocks
			 WHERE search_name = $1`,
			searchName,
		).Scan(&b.ID, &b.SearchName, &b.Name, &b.Text, &b.Group, &b.Image, &b.CreatedAt, &b.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return block.TextBlock{}, block.ErrNotFound
		}

		return block.TextBlock{}, err
	}

	return b, nil
}

func (s *Store) ListBlocks(ctx context.Context, group string) ([]block.TextBlock, error) {
	q := `SELECT id, search_name, name, body, grp, image, created_at, updated_at
	      FROM text_blocks`
	args := []any{}

	if group != "" {
		q += ` WHERE grp = $1`
		args = append(args, group)
	}

	q += ` ORDER BY created_at ASC, id ASC`

	var rows pgx.Rows

	err := s.observe("blocks.list", func() error {
		var e error
		rows, e = s.pool.Query(ctx, q, args...)
		return e
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]block.TextBlock, 0)

	for rows.Next() {
		var b block.TextBlock

		e := rows.Scan(&b.ID, &b.SearchName, &b.Name, &b.Text, &b.Group, &b.Image, &b.CreatedAt, &b.UpdatedAt)

		if e != nil {
			return nil, e
		}

		out = append(out, b)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return out, nil
}

func (s *Store) UpdateBlock(ctx context.Context, searchName string, apply func(current block.TextBlock) block.TextBlock) (updated block.TextBlock, err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current block.TextBlock

	err = s.observe("blocks.update.lock", func() error {
		return tx.QueryRow(ctx,
			`SELECT id, search_name, name, body, grp, image, created_at, updated_at
			 FROM text_blocks
			 WHERE search_name = $1
			 FOR UPDATE`,
			searchName,
		).Scan(&current.ID, &current.SearchName, &current.Name, &current.Text, &current.Group, &current.Image, &current.CreatedAt, &current.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = block.ErrNotFound
		}

		return
	}

	updated = apply(current)

	err = s.observe("blocks.update.write", func() error {
		_, e := tx.Exec(ctx,
			`UPDATE text_blocks
			 SET name = $1, body = $2, grp = $3, updated_at = $4
			 WHERE id = $5`,
			updated.Name, updated.Text, updated.Group, updated.UpdatedAt, updated.ID,
		)
		return e
	})

	if err != nil {
		updated = block.TextBlock{}
		return
	}

	err = tx.Commit(ctx)

	if err != nil {
		updated = block.TextBlock{}
	}

	return
}

func (s *Store) DeleteBlock(ctx context.Context, searchName string) error {
	var tag pgconn.CommandTag

	err := s.observe("blocks.delete", func() error {
		var e error
		tag, e = s.pool.Exec(ctx, `DELETE FROM text_blocks WHERE search_name = $1`, searchName)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return block.ErrNotFound
	}

	return nil
}

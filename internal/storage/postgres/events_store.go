package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/PredictChain/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ events.Store = (*Store)(nil)

const eventColumns = `id, wallet_id, name, category, description, resolution_date,
       image_link, event_public_key, is_approved`

// Every read orders by seq, an identity column, so pages follow insertion order.
const filterClause = `($1::text = '' OR id = $1::text)
   AND ($2::boolean IS NULL OR is_approved = $2::boolean)`

const uniqueViolation = "23505"

func filterArgs(filter events.Filter) []any {
	var approved any
	if filter.Approved != nil {
		approved = *filter.Approved
	}
	return []any{filter.ID, approved}
}

func (s *Store) Find(ctx context.Context, filter events.Filter, opts events.FindOptions) ([]events.Document, error) {
	var limit any
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	args := append(filterArgs(filter), limit, opts.Skip)
	rows, err := s.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE `+filterClause+`
 ORDER BY seq
 LIMIT $3 OFFSET $4`, args...)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer rows.Close()

	docs := make([]events.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return docs, nil
}

func (s *Store) Count(ctx context.Context, filter events.Filter) (int64, error) {
	var total int64
	err := s.queryer().QueryRow(ctx, `SELECT count(*) FROM events WHERE `+filterClause, filterArgs(filter)...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return total, nil
}

func (s *Store) FindOne(ctx context.Context, filter events.Filter) (*events.Document, error) {
	row := s.queryer().QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE `+filterClause+`
 ORDER BY seq
 LIMIT 1`, filterArgs(filter)...)
	return scanOne(row, "find event")
}

func (s *Store) InsertOne(ctx context.Context, doc events.Document) error {
	_, err := s.queryer().Exec(ctx, `
INSERT INTO events (`+eventColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.WalletID, doc.Name, doc.Category, doc.Description, doc.ResolutionDate,
		doc.ImageLink, doc.EventPublicKey, doc.IsApproved,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert event %s: %w", doc.ID, events.ErrConflict)
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// UpdateOne applies the approval transition in a single statement; the
// filter is part of the WHERE clause so concurrent approvals cannot both
// match a pending row.
func (s *Store) UpdateOne(ctx context.Context, filter events.Filter, update events.Update) (*events.Document, error) {
	if filter.ID == "" {
		return nil, fmt.Errorf("update event: id filter required")
	}
	args := append(filterArgs(filter), update.IsApproved, update.EventPublicKey)
	row := s.queryer().QueryRow(ctx, `
UPDATE events
   SET is_approved = $3, event_public_key = $4
 WHERE `+filterClause+`
RETURNING `+eventColumns, args...)
	return scanOne(row, "update event")
}

func (s *Store) DeleteOne(ctx context.Context, filter events.Filter) (*events.Document, error) {
	if filter.ID == "" {
		return nil, fmt.Errorf("delete event: id filter required")
	}
	row := s.queryer().QueryRow(ctx, `
DELETE FROM events
 WHERE `+filterClause+`
RETURNING `+eventColumns, filterArgs(filter)...)
	return scanOne(row, "delete event")
}

func (s *Store) ReplaceAll(ctx context.Context, docs []events.Document) error {
	return s.WithTx(ctx, func(ctx context.Context, tx *Store) error {
		if _, err := tx.queryer().Exec(ctx, `TRUNCATE events RESTART IDENTITY`); err != nil {
			return fmt.Errorf("truncate events: %w", err)
		}
		for _, doc := range docs {
			if err := tx.InsertOne(ctx, doc); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanOne(row pgx.Row, op string) (*events.Document, error) {
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &doc, nil
}

func scanDocument(row pgx.Row) (events.Document, error) {
	var doc events.Document
	err := row.Scan(
		&doc.ID,
		&doc.WalletID,
		&doc.Name,
		&doc.Category,
		&doc.Description,
		&doc.ResolutionDate,
		&doc.ImageLink,
		&doc.EventPublicKey,
		&doc.IsApproved,
	)
	return doc, err
}

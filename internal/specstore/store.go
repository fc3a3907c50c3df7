// Package specstore reads candidate specification attributes for a
// product category from the relational spec-mapping table.
package specstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrUnavailable marks a connectivity failure, as opposed to a genuine
// empty template. Callers offer a retry for the former and proceed with a
// generated template for the latter.
var ErrUnavailable = errors.New("specstore: database unavailable")

// sentinelCategoryID marks an AI-generated category with no lookup key.
const sentinelCategoryID = "0"

const specQuery = `SELECT spec_name
FROM tbl_spec_mapping
WHERE psv_node_id = $1
  AND spec_active_flag = 1
  AND display_active_flag = 1
  AND dc_flag = 1`

// Store looks up spec templates with an LRU cache in front of Postgres.
type Store struct {
	db    *sql.DB
	cache *lru.Cache[string, []string]
}

func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	cache, err := lru.New[string, []string](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

// Lookup returns the attribute names mapped to categoryID. The sentinel
// id short-circuits to an empty list without touching the database. An
// empty result is returned as an empty slice with a nil error; only
// connectivity problems produce ErrUnavailable.
func (s *Store) Lookup(ctx context.Context, categoryID string) ([]string, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" || categoryID == sentinelCategoryID {
		return []string{}, nil
	}
	if s.cache != nil {
		if specs, ok := s.cache.Get(categoryID); ok {
			return specs, nil
		}
	}
	if s.db == nil {
		return nil, ErrUnavailable
	}

	rows, err := s.db.QueryContext(ctx, specQuery, categoryID)
	if err != nil {
		log.Printf("specstore: query failed (category=%s): %v", categoryID, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	specs := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		specs = append(specs, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if s.cache != nil {
		s.cache.Add(categoryID, specs)
	}
	return specs, nil
}

// Disabled is a lookup with no backing database: every category gets an
// empty template, so analysis falls back to AI-generated specs.
type Disabled struct{}

func (Disabled) Lookup(ctx context.Context, categoryID string) ([]string, error) {
	return []string{}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

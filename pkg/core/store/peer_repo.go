package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"valuation_synthesis/pkg/core/metrics"
	"valuation_synthesis/pkg/core/valuation"
)

var (
	// ErrPeerSetNotFound is returned when no peer set exists under a name.
	ErrPeerSetNotFound = errors.New("peer set not found")
	// ErrInvalidPeerSet is returned by Save for a set that cannot be stored.
	ErrInvalidPeerSet = errors.New("invalid peer set")
)

// SetKind distinguishes trading peers from precedent deals.
type SetKind string

const (
	SetPeers SetKind = "peers"
	SetDeals SetKind = "deals"
)

// PeerSet is a named comparable universe produced by the data-collection side.
type PeerSet struct {
	ID        string                      `json:"id" yaml:"id"`
	Name      string                      `json:"name" yaml:"name"`
	Kind      SetKind                     `json:"kind" yaml:"kind"`
	Entities  []valuation.FinancialEntity `json:"entities" yaml:"entities"`
	UpdatedAt time.Time                   `json:"updated_at" yaml:"updated_at"`
}

// PeerSetRepo stores peer sets.
// Supports Hybrid Vault: DB (Primary) + File System (Fallback/Local)
type PeerSetRepo struct {
	pool    *pgxpool.Pool
	fileDir string
	now     func() time.Time
}

// NewPeerSetRepo creates a repository. If pool is nil, sets are kept as JSON files in dir
// (default .cache/peer_sets).
func NewPeerSetRepo(pool *pgxpool.Pool, dir string) (*PeerSetRepo, error) {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "peer_sets")
	}
	if pool == nil {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create peer set dir: %w", err)
		}
	}
	return &PeerSetRepo{pool: pool, fileDir: dir, now: time.Now}, nil
}

func (r *PeerSetRepo) backend() string {
	if r.pool != nil {
		return "postgres"
	}
	return "file"
}

func (r *PeerSetRepo) record(op string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, ErrPeerSetNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	metrics.PeerSetOperations.WithLabelValues(op, r.backend(), result).Inc()
}

// Get loads a peer set by name.
func (r *PeerSetRepo) Get(ctx context.Context, name string) (set *PeerSet, err error) {
	defer func() { r.record("get", err) }()

	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("%w: empty name", ErrPeerSetNotFound)
	}

	if r.pool != nil {
		query := `
			SELECT id::text, name, kind, entities, updated_at
			FROM peer_sets
			WHERE name = $1
		`
		var (
			dataJSON []byte
			loaded   PeerSet
		)
		err := r.pool.QueryRow(ctx, query, key).Scan(&loaded.ID, &loaded.Name, &loaded.Kind, &dataJSON, &loaded.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPeerSetNotFound, key)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load peer set %s: %w", key, err)
		}
		if err := json.Unmarshal(dataJSON, &loaded.Entities); err != nil {
			return nil, fmt.Errorf("failed to unmarshal peer set %s: %w", key, err)
		}
		return &loaded, nil
	}

	bytes, err := os.ReadFile(r.path(key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrPeerSetNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read peer set %s: %w", key, err)
	}
	var loaded PeerSet
	if err := json.Unmarshal(bytes, &loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal peer set %s: %w", key, err)
	}
	return &loaded, nil
}

// Save validates and upserts set, assigning an ID on first save. The stored name is normalised.
func (r *PeerSetRepo) Save(ctx context.Context, set *PeerSet) (err error) {
	defer func() { r.record("save", err) }()

	set.Name = normalizeName(set.Name)
	if set.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPeerSet)
	}
	if set.Kind == "" {
		set.Kind = SetPeers
	}
	if set.Kind != SetPeers && set.Kind != SetDeals {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPeerSet, set.Kind)
	}
	entityKind := valuation.KindPeer
	if set.Kind == SetDeals {
		entityKind = valuation.KindDeal
	}
	entities, err := valuation.NewEntities(set.Entities, entityKind)
	if err != nil {
		return fmt.Errorf("peer set %s: %w", set.Name, err)
	}
	set.Entities = entities
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	set.UpdatedAt = r.now().UTC()

	if r.pool != nil {
		dataJSON, err := json.Marshal(set.Entities)
		if err != nil {
			return fmt.Errorf("failed to marshal peer set: %w", err)
		}
		query := `
			INSERT INTO peer_sets (id, name, kind, entities, updated_at)
			VALUES ($1::uuid, $2, $3, $4, $5)
			ON CONFLICT (name)
			DO UPDATE SET
				kind = EXCLUDED.kind,
				entities = EXCLUDED.entities,
				updated_at = EXCLUDED.updated_at
			RETURNING id::text
		`
		if err := r.pool.QueryRow(ctx, query, set.ID, set.Name, string(set.Kind), dataJSON, set.UpdatedAt).Scan(&set.ID); err != nil {
			return fmt.Errorf("failed to save peer set %s: %w", set.Name, err)
		}
		return nil
	}

	// Keep the original ID when overwriting a file
	if existing, err := r.Get(ctx, set.Name); err == nil {
		set.ID = existing.ID
	}
	bytes, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal peer set: %w", err)
	}
	tmp := r.path(set.Name) + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return fmt.Errorf("failed to write peer set %s: %w", set.Name, err)
	}
	if err := os.Rename(tmp, r.path(set.Name)); err != nil {
		return fmt.Errorf("failed to write peer set %s: %w", set.Name, err)
	}
	return nil
}

// List returns the stored set names in alphabetical order.
func (r *PeerSetRepo) List(ctx context.Context) ([]string, error) {
	if r.pool != nil {
		rows, err := r.pool.Query(ctx, `SELECT name FROM peer_sets ORDER BY name`)
		if err != nil {
			return nil, fmt.Errorf("failed to list peer sets: %w", err)
		}
		names, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return nil, fmt.Errorf("failed to list peer sets: %w", err)
		}
		return names, nil
	}

	files, err := os.ReadDir(r.fileDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list peer sets: %w", err)
	}
	names := []string{}
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(f.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a set. Deleting a missing set returns ErrPeerSetNotFound.
func (r *PeerSetRepo) Delete(ctx context.Context, name string) (err error) {
	defer func() { r.record("delete", err) }()

	key := normalizeName(name)
	if r.pool != nil {
		tag, err := r.pool.Exec(ctx, `DELETE FROM peer_sets WHERE name = $1`, key)
		if err != nil {
			return fmt.Errorf("failed to delete peer set %s: %w", key, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrPeerSetNotFound, key)
		}
		return nil
	}

	if err := os.Remove(r.path(key)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrPeerSetNotFound, key)
		}
		return fmt.Errorf("failed to delete peer set %s: %w", key, err)
	}
	return nil
}

// Entities returns the comparables of a stored set.
func (r *PeerSetRepo) Entities(ctx context.Context, name string) ([]valuation.FinancialEntity, error) {
	set, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return set.Entities, nil
}

// Internal File Helpers

var unsafeName = regexp.MustCompile(`[^a-z0-9._-]+`)

// normalizeName lowercases and slugs a set name so it is safe as a file name and DB key.
func normalizeName(name string) string {
	slug := unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-.")
}

func (r *PeerSetRepo) path(name string) string {
	return filepath.Join(r.fileDir, name+".json")
}

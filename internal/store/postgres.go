package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses. Tests substitute a mock
// pool.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to the database at databaseURL and verifies the
// connection.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id              TEXT PRIMARY KEY,
	category_id     TEXT NOT NULL,
	location_id     TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	price           DOUBLE PRECISION NOT NULL,
	payment_type    TEXT NOT NULL DEFAULT '',
	rooms           INTEGER,
	area            DOUBLE PRECISION NOT NULL,
	floor           INTEGER,
	building_floors INTEGER,
	renovation      TEXT,
	document_types  JSONB NOT NULL DEFAULT '[]',
	utilities       JSONB NOT NULL DEFAULT '{}',
	heating         TEXT,
	is_vip          BOOLEAN NOT NULL DEFAULT FALSE,
	priority_score  INTEGER NOT NULL DEFAULT 0,
	image_hashes    JSONB NOT NULL DEFAULT '[]',
	status          TEXT NOT NULL DEFAULT 'active',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS requirements (
	id              TEXT PRIMARY KEY,
	category_id     TEXT NOT NULL,
	location_ids    JSONB NOT NULL DEFAULT '[]',
	price_min       DOUBLE PRECISION,
	price_max       DOUBLE PRECISION,
	rooms_min       INTEGER,
	rooms_max       INTEGER,
	area_min        DOUBLE PRECISION,
	area_max        DOUBLE PRECISION,
	floor_min       INTEGER,
	floor_max       INTEGER,
	not_first_floor BOOLEAN NOT NULL DEFAULT FALSE,
	not_last_floor  BOOLEAN NOT NULL DEFAULT FALSE,
	renovations     JSONB NOT NULL DEFAULT '[]',
	document_types  JSONB NOT NULL DEFAULT '[]',
	heating_types   JSONB NOT NULL DEFAULT '[]',
	utilities       JSONB NOT NULL DEFAULT '{}',
	status          TEXT NOT NULL DEFAULT 'active',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	id             TEXT PRIMARY KEY,
	listing_id     TEXT NOT NULL REFERENCES listings(id),
	requirement_id TEXT NOT NULL REFERENCES requirements(id),
	score          INTEGER NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	UNIQUE (listing_id, requirement_id)
);

CREATE INDEX IF NOT EXISTS idx_listings_category_status ON listings(category_id, status);
CREATE INDEX IF NOT EXISTS idx_requirements_category_status ON requirements(category_id, status);
CREATE INDEX IF NOT EXISTS idx_matches_listing ON matches(listing_id);
CREATE INDEX IF NOT EXISTS idx_matches_requirement ON matches(requirement_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateListing(ctx context.Context, l *Listing) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Status == "" {
		l.Status = StatusActive
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO listings (
			id, category_id, location_id, title, price, payment_type,
			rooms, area, floor, building_floors, renovation,
			document_types, utilities, heating, is_vip, priority_score,
			image_hashes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		l.ID, l.CategoryID, l.LocationID, l.Title, l.Price, l.PaymentType,
		l.Rooms, l.Area, l.Floor, l.BuildingFloors, l.Renovation,
		jsonText(l.DocumentTypes), jsonText(l.Utilities), l.Heating, l.IsVIP, l.PriorityScore,
		jsonText(l.ImageHashes), l.Status, l.CreatedAt, l.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert listing")
}

func (s *PostgresStore) GetListing(ctx context.Context, id string) (*Listing, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, category_id, location_id, title, price, payment_type,
			rooms, area, floor, building_floors, renovation,
			document_types, utilities, heating, is_vip, priority_score,
			image_hashes, status, created_at, updated_at
		FROM listings WHERE id = $1`, id)

	l, err := scanPgListing(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: get listing")
	}
	return l, nil
}

func (s *PostgresStore) ListActiveListings(ctx context.Context, categoryID string) ([]Listing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, category_id, location_id, title, price, payment_type,
			rooms, area, floor, building_floors, renovation,
			document_types, utilities, heating, is_vip, priority_score,
			image_hashes, status, created_at, updated_at
		FROM listings WHERE status = $1 AND category_id = $2
		ORDER BY created_at DESC`, StatusActive, categoryID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list listings")
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		l, err := scanPgListing(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan listing")
		}
		listings = append(listings, *l)
	}
	return listings, eris.Wrap(rows.Err(), "postgres: iterate listings")
}

func (s *PostgresStore) UpdateListingStatus(ctx context.Context, id, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE listings SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrap(err, "postgres: update listing status")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateRequirement(ctx context.Context, r *Requirement) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO requirements (
			id, category_id, location_ids, price_min, price_max,
			rooms_min, rooms_max, area_min, area_max, floor_min, floor_max,
			not_first_floor, not_last_floor, renovations, document_types,
			heating_types, utilities, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		r.ID, r.CategoryID, jsonText(r.LocationIDs), r.PriceMin, r.PriceMax,
		r.RoomsMin, r.RoomsMax, r.AreaMin, r.AreaMax, r.FloorMin, r.FloorMax,
		r.NotFirstFloor, r.NotLastFloor, jsonText(r.Renovations), jsonText(r.DocumentTypes),
		jsonText(r.HeatingTypes), jsonText(r.Utilities), r.Status, r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert requirement")
}

func (s *PostgresStore) GetRequirement(ctx context.Context, id string) (*Requirement, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, category_id, location_ids, price_min, price_max,
			rooms_min, rooms_max, area_min, area_max, floor_min, floor_max,
			not_first_floor, not_last_floor, renovations, document_types,
			heating_types, utilities, status, created_at, updated_at
		FROM requirements WHERE id = $1`, id)

	r, err := scanPgRequirement(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: get requirement")
	}
	return r, nil
}

func (s *PostgresStore) ListActiveRequirements(ctx context.Context, categoryID string) ([]Requirement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, category_id, location_ids, price_min, price_max,
			rooms_min, rooms_max, area_min, area_max, floor_min, floor_max,
			not_first_floor, not_last_floor, renovations, document_types,
			heating_types, utilities, status, created_at, updated_at
		FROM requirements WHERE status = $1 AND category_id = $2
		ORDER BY created_at DESC`, StatusActive, categoryID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list requirements")
	}
	defer rows.Close()

	var requirements []Requirement
	for rows.Next() {
		r, err := scanPgRequirement(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan requirement")
		}
		requirements = append(requirements, *r)
	}
	return requirements, eris.Wrap(rows.Err(), "postgres: iterate requirements")
}

func (s *PostgresStore) UpsertMatch(ctx context.Context, m *Match) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = MatchStatusPending
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO matches (id, listing_id, requirement_id, score, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (listing_id, requirement_id)
		DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`,
		m.ID, m.ListingID, m.RequirementID, m.Score, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: upsert match")
}

func (s *PostgresStore) ListMatches(ctx context.Context, filter MatchFilter) ([]Match, error) {
	query := `SELECT id, listing_id, requirement_id, score, status, created_at, updated_at FROM matches WHERE 1=1`
	var args []any
	if filter.ListingID != "" {
		args = append(args, filter.ListingID)
		query += fmt.Sprintf(" AND listing_id = $%d", len(args))
	}
	if filter.RequirementID != "" {
		args = append(args, filter.RequirementID)
		query += fmt.Sprintf(" AND requirement_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY score DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list matches")
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.ListingID, &m.RequirementID, &m.Score, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan match")
		}
		matches = append(matches, m)
	}
	return matches, eris.Wrap(rows.Err(), "postgres: iterate matches")
}

func (s *PostgresStore) RejectMatch(ctx context.Context, listingID, requirementID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE matches SET status = $1, updated_at = $2
		WHERE listing_id = $3 AND requirement_id = $4`,
		MatchStatusRejected, time.Now().UTC(), listingID, requirementID)
	if err != nil {
		return eris.Wrap(err, "postgres: reject match")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPgListing(row pgx.Row) (*Listing, error) {
	var l Listing
	var documentTypes, utilities, imageHashes []byte

	err := row.Scan(
		&l.ID, &l.CategoryID, &l.LocationID, &l.Title, &l.Price, &l.PaymentType,
		&l.Rooms, &l.Area, &l.Floor, &l.BuildingFloors, &l.Renovation,
		&documentTypes, &utilities, &l.Heating, &l.IsVIP, &l.PriorityScore,
		&imageHashes, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(documentTypes, &l.DocumentTypes); err != nil {
		return nil, eris.Wrap(err, "decode document_types")
	}
	if err := json.Unmarshal(utilities, &l.Utilities); err != nil {
		return nil, eris.Wrap(err, "decode utilities")
	}
	if err := json.Unmarshal(imageHashes, &l.ImageHashes); err != nil {
		return nil, eris.Wrap(err, "decode image_hashes")
	}
	return &l, nil
}

func scanPgRequirement(row pgx.Row) (*Requirement, error) {
	var r Requirement
	var locationIDs, renovations, documentTypes, heatingTypes, utilities []byte

	err := row.Scan(
		&r.ID, &r.CategoryID, &locationIDs, &r.PriceMin, &r.PriceMax,
		&r.RoomsMin, &r.RoomsMax, &r.AreaMin, &r.AreaMax, &r.FloorMin, &r.FloorMax,
		&r.NotFirstFloor, &r.NotLastFloor, &renovations, &documentTypes,
		&heatingTypes, &utilities, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(locationIDs, &r.LocationIDs); err != nil {
		return nil, eris.Wrap(err, "decode location_ids")
	}
	if err := json.Unmarshal(renovations, &r.Renovations); err != nil {
		return nil, eris.Wrap(err, "decode renovations")
	}
	if err := json.Unmarshal(documentTypes, &r.DocumentTypes); err != nil {
		return nil, eris.Wrap(err, "decode document_types")
	}
	if err := json.Unmarshal(heatingTypes, &r.HeatingTypes); err != nil {
		return nil, eris.Wrap(err, "decode heating_types")
	}
	if err := json.Unmarshal(utilities, &r.Utilities); err != nil {
		return nil, eris.Wrap(err, "decode utilities")
	}
	return &r, nil
}

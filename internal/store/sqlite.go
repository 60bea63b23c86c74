package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id              TEXT PRIMARY KEY,
	category_id     TEXT NOT NULL,
	location_id     TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	price           REAL NOT NULL,
	payment_type    TEXT NOT NULL DEFAULT '',
	rooms           INTEGER,
	area            REAL NOT NULL,
	floor           INTEGER,
	building_floors INTEGER,
	renovation      TEXT,
	document_types  TEXT NOT NULL DEFAULT '[]',
	utilities       TEXT NOT NULL DEFAULT '{}',
	heating         TEXT,
	is_vip          INTEGER NOT NULL DEFAULT 0,
	priority_score  INTEGER NOT NULL DEFAULT 0,
	image_hashes    TEXT NOT NULL DEFAULT '[]',
	status          TEXT NOT NULL DEFAULT 'active',
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS requirements (
	id              TEXT PRIMARY KEY,
	category_id     TEXT NOT NULL,
	location_ids    TEXT NOT NULL DEFAULT '[]',
	price_min       REAL,
	price_max       REAL,
	rooms_min       INTEGER,
	rooms_max       INTEGER,
	area_min        REAL,
	area_max        REAL,
	floor_min       INTEGER,
	floor_max       INTEGER,
	not_first_floor INTEGER NOT NULL DEFAULT 0,
	not_last_floor  INTEGER NOT NULL DEFAULT 0,
	renovations     TEXT NOT NULL DEFAULT '[]',
	document_types  TEXT NOT NULL DEFAULT '[]',
	heating_types   TEXT NOT NULL DEFAULT '[]',
	utilities       TEXT NOT NULL DEFAULT '{}',
	status          TEXT NOT NULL DEFAULT 'active',
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	id             TEXT PRIMARY KEY,
	listing_id     TEXT NOT NULL REFERENCES listings(id),
	requirement_id TEXT NOT NULL REFERENCES requirements(id),
	score          INTEGER NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL,
	UNIQUE (listing_id, requirement_id)
);

CREATE INDEX IF NOT EXISTS idx_listings_category_status ON listings(category_id, status);
CREATE INDEX IF NOT EXISTS idx_requirements_category_status ON requirements(category_id, status);
CREATE INDEX IF NOT EXISTS idx_matches_listing ON matches(listing_id);
CREATE INDEX IF NOT EXISTS idx_matches_requirement ON matches(requirement_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateListing(ctx context.Context, l *Listing) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Status == "" {
		l.Status = StatusActive
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO listings (
			id, category_id, location_id, title, price, payment_type,
			rooms, area, floor, building_floors, renovation,
			document_types, utilities, heating, is_vip, priority_score,
			image_hashes, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.CategoryID, l.LocationID, l.Title, l.Price, l.PaymentType,
		nullInt(l.Rooms), l.Area, nullInt(l.Floor), nullInt(l.BuildingFloors), nullString(l.Renovation),
		jsonText(l.DocumentTypes), jsonText(l.Utilities), nullString(l.Heating), l.IsVIP, l.PriorityScore,
		jsonText(l.ImageHashes), l.Status, l.CreatedAt, l.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert listing")
}

func (s *SQLiteStore) GetListing(ctx context.Context, id string) (*Listing, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, category_id, location_id, title, price, payment_type,
			rooms, area, floor, building_floors, renovation,
			document_types, utilities, heating, is_vip, priority_score,
			image_hashes, status, created_at, updated_at
		FROM listings WHERE id = ?`, id)

	l, err := scanListing(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "sqlite: get listing")
	}
	return l, nil
}

func (s *SQLiteStore) ListActiveListings(ctx context.Context, categoryID string) ([]Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, location_id, title, price, payment_type,
			rooms, area, floor, building_floors, renovation,
			document_types, utilities, heating, is_vip, priority_score,
			image_hashes, status, created_at, updated_at
		FROM listings WHERE status = ? AND category_id = ?
		ORDER BY created_at DESC`, StatusActive, categoryID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list listings")
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan listing")
		}
		listings = append(listings, *l)
	}
	return listings, eris.Wrap(rows.Err(), "sqlite: iterate listings")
}

func (s *SQLiteStore) UpdateListingStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE listings SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrap(err, "sqlite: update listing status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CreateRequirement(ctx context.Context, r *Requirement) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requirements (
			id, category_id, location_ids, price_min, price_max,
			rooms_min, rooms_max, area_min, area_max, floor_min, floor_max,
			not_first_floor, not_last_floor, renovations, document_types,
			heating_types, utilities, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CategoryID, jsonText(r.LocationIDs), nullFloat(r.PriceMin), nullFloat(r.PriceMax),
		nullInt(r.RoomsMin), nullInt(r.RoomsMax), nullFloat(r.AreaMin), nullFloat(r.AreaMax),
		nullInt(r.FloorMin), nullInt(r.FloorMax),
		r.NotFirstFloor, r.NotLastFloor, jsonText(r.Renovations), jsonText(r.DocumentTypes),
		jsonText(r.HeatingTypes), jsonText(r.Utilities), r.Status, r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert requirement")
}

func (s *SQLiteStore) GetRequirement(ctx context.Context, id string) (*Requirement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, category_id, location_ids, price_min, price_max,
			rooms_min, rooms_max, area_min, area_max, floor_min, floor_max,
			not_first_floor, not_last_floor, renovations, document_types,
			heating_types, utilities, status, created_at, updated_at
		FROM requirements WHERE id = ?`, id)

	r, err := scanRequirement(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "sqlite: get requirement")
	}
	return r, nil
}

func (s *SQLiteStore) ListActiveRequirements(ctx context.Context, categoryID string) ([]Requirement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, location_ids, price_min, price_max,
			rooms_min, rooms_max, area_min, area_max, floor_min, floor_max,
			not_first_floor, not_last_floor, renovations, document_types,
			heating_types, utilities, status, created_at, updated_at
		FROM requirements WHERE status = ? AND category_id = ?
		ORDER BY created_at DESC`, StatusActive, categoryID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list requirements")
	}
	defer rows.Close()

	var requirements []Requirement
	for rows.Next() {
		r, err := scanRequirement(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan requirement")
		}
		requirements = append(requirements, *r)
	}
	return requirements, eris.Wrap(rows.Err(), "sqlite: iterate requirements")
}

func (s *SQLiteStore) UpsertMatch(ctx context.Context, m *Match) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = MatchStatusPending
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (id, listing_id, requirement_id, score, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (listing_id, requirement_id)
		DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`,
		m.ID, m.ListingID, m.RequirementID, m.Score, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: upsert match")
}

func (s *SQLiteStore) ListMatches(ctx context.Context, filter MatchFilter) ([]Match, error) {
	query := `SELECT id, listing_id, requirement_id, score, status, created_at, updated_at FROM matches WHERE 1=1`
	var args []any
	if filter.ListingID != "" {
		query += " AND listing_id = ?"
		args = append(args, filter.ListingID)
	}
	if filter.RequirementID != "" {
		query += " AND requirement_id = ?"
		args = append(args, filter.RequirementID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY score DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list matches")
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.ListingID, &m.RequirementID, &m.Score, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan match")
		}
		matches = append(matches, m)
	}
	return matches, eris.Wrap(rows.Err(), "sqlite: iterate matches")
}

func (s *SQLiteStore) RejectMatch(ctx context.Context, listingID, requirementID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE matches SET status = ?, updated_at = ?
		WHERE listing_id = ? AND requirement_id = ?`,
		MatchStatusRejected, time.Now().UTC(), listingID, requirementID)
	if err != nil {
		return eris.Wrap(err, "sqlite: reject match")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*Listing, error) {
	var l Listing
	var rooms, floor, buildingFloors sql.NullInt64
	var renovation, heating sql.NullString
	var documentTypes, utilities, imageHashes string

	err := row.Scan(
		&l.ID, &l.CategoryID, &l.LocationID, &l.Title, &l.Price, &l.PaymentType,
		&rooms, &l.Area, &floor, &buildingFloors, &renovation,
		&documentTypes, &utilities, &heating, &l.IsVIP, &l.PriorityScore,
		&imageHashes, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Rooms = intFromNull(rooms)
	l.Floor = intFromNull(floor)
	l.BuildingFloors = intFromNull(buildingFloors)
	l.Renovation = stringFromNull(renovation)
	l.Heating = stringFromNull(heating)

	if err := json.Unmarshal([]byte(documentTypes), &l.DocumentTypes); err != nil {
		return nil, eris.Wrap(err, "decode document_types")
	}
	if err := json.Unmarshal([]byte(utilities), &l.Utilities); err != nil {
		return nil, eris.Wrap(err, "decode utilities")
	}
	if err := json.Unmarshal([]byte(imageHashes), &l.ImageHashes); err != nil {
		return nil, eris.Wrap(err, "decode image_hashes")
	}
	return &l, nil
}

func scanRequirement(row scanner) (*Requirement, error) {
	var r Requirement
	var priceMin, priceMax, areaMin, areaMax sql.NullFloat64
	var roomsMin, roomsMax, floorMin, floorMax sql.NullInt64
	var locationIDs, renovations, documentTypes, heatingTypes, utilities string

	err := row.Scan(
		&r.ID, &r.CategoryID, &locationIDs, &priceMin, &priceMax,
		&roomsMin, &roomsMax, &areaMin, &areaMax, &floorMin, &floorMax,
		&r.NotFirstFloor, &r.NotLastFloor, &renovations, &documentTypes,
		&heatingTypes, &utilities, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.PriceMin = floatFromNull(priceMin)
	r.PriceMax = floatFromNull(priceMax)
	r.AreaMin = floatFromNull(areaMin)
	r.AreaMax = floatFromNull(areaMax)
	r.RoomsMin = intFromNull(roomsMin)
	r.RoomsMax = intFromNull(roomsMax)
	r.FloorMin = intFromNull(floorMin)
	r.FloorMax = intFromNull(floorMax)

	if err := json.Unmarshal([]byte(locationIDs), &r.LocationIDs); err != nil {
		return nil, eris.Wrap(err, "decode location_ids")
	}
	if err := json.Unmarshal([]byte(renovations), &r.Renovations); err != nil {
		return nil, eris.Wrap(err, "decode renovations")
	}
	if err := json.Unmarshal([]byte(documentTypes), &r.DocumentTypes); err != nil {
		return nil, eris.Wrap(err, "decode document_types")
	}
	if err := json.Unmarshal([]byte(heatingTypes), &r.HeatingTypes); err != nil {
		return nil, eris.Wrap(err, "decode heating_types")
	}
	if err := json.Unmarshal([]byte(utilities), &r.Utilities); err != nil {
		return nil, eris.Wrap(err, "decode utilities")
	}
	return &r, nil
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func floatFromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func stringFromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

package plant

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS plants (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	type              TEXT NOT NULL DEFAULT '',
	location          TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	photo_url         TEXT NOT NULL DEFAULT '',
	planted_date      INTEGER,
	last_watered      INTEGER,
	last_fertilized   INTEGER,
	care_instructions TEXT NOT NULL DEFAULT '{}',
	created_at        INTEGER NOT NULL,
	updated_at        INTEGER NOT NULL
);
`

// SQLiteRepository implements Repository using an sqlite database file
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLiteRepository opens (creating if necessary) an sqlite-backed plant repository
func OpenSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]Plant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, location, description, photo_url,
		       planted_date, last_watered, last_fertilized, care_instructions,
		       created_at, updated_at
		FROM plants
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plants: %w", err)
	}
	defer rows.Close()

	var plants []Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		plants = append(plants, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plants: %w", err)
	}
	return plants, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Plant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, location, description, photo_url,
		       planted_date, last_watered, last_fertilized, care_instructions,
		       created_at, updated_at
		FROM plants WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query plant: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanPlant(rows)
}

func (r *SQLiteRepository) Add(ctx context.Context, p Plant) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	instructions := p.CareInstructions
	if instructions == nil {
		instructions = map[string]string{}
	}
	instructionsJSON, err := json.Marshal(instructions)
	if err != nil {
		return "", fmt.Errorf("failed to marshal care instructions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO plants (id, name, type, location, description, photo_url,
			planted_date, last_watered, last_fertilized, care_instructions,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Name, p.Type, p.Location, p.Description, p.PhotoURL,
		unixOrNil(p.PlantedDate), unixOrNil(p.LastWatered), unixOrNil(p.LastFertilized),
		string(instructionsJSON), now.UnixNano(), now.UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to insert plant: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) RecordWatering(ctx context.Context, id string) error {
	return r.touchTimestamp(ctx, id, "last_watered")
}

func (r *SQLiteRepository) RecordFertilizing(ctx context.Context, id string) error {
	return r.touchTimestamp(ctx, id, "last_fertilized")
}

func (r *SQLiteRepository) touchTimestamp(ctx context.Context, id string, column string) error {
	now := time.Now().UTC()
	// column is one of two fixed names, never user input
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE plants SET %s = ?, updated_at = ? WHERE id = ?", column),
		now.Unix(), now.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to update plant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("plant with ID %s not found", id)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM plants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete plant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("plant with ID %s not found", id)
	}
	return nil
}

func scanPlant(rows *sql.Rows) (*Plant, error) {
	var p Plant
	var planted, watered, fertilized sql.NullInt64
	var instructionsJSON string
	var createdAt, updatedAt int64

	err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.Location, &p.Description, &p.PhotoURL,
		&planted, &watered, &fertilized, &instructionsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan plant: %w", err)
	}

	p.PlantedDate = timeOrNil(planted)
	p.LastWatered = timeOrNil(watered)
	p.LastFertilized = timeOrNil(fertilized)
	p.CreatedAt = time.Unix(0, createdAt).UTC()
	p.UpdatedAt = time.Unix(0, updatedAt).UTC()

	if err := json.Unmarshal([]byte(instructionsJSON), &p.CareInstructions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal care instructions: %w", err)
	}
	return &p, nil
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

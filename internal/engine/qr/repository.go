package qr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Record is the persisted metadata for a generated QR code. Payload holds the
// original typed data as JSON; for dynamic codes it is what the short-URL
// resolver serves.
type Record struct {
	ID        string `json:"id"`
	ShortCode string `json:"short_code,omitempty"`
	Type      string `json:"type"`
	Mode      string `json:"mode"`
	Payload   string `json:"payload,omitempty"`
	Format    string `json:"format"`
	Size      int    `json:"size"`
	Version   int    `json:"version"`
	Modules   int    `json:"modules"`
	ByteSize  int    `json:"byte_size"`
	ImageRef  string `json:"image_ref"`
	Label     string `json:"label,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(record *Record) error {
	query := `
		INSERT INTO qr_codes (
			id, short_code, type, mode, payload, format, size,
			version, modules, byte_size, image_ref, label, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		record.ID,
		record.ShortCode,
		record.Type,
		record.Mode,
		record.Payload,
		record.Format,
		record.Size,
		record.Version,
		record.Modules,
		record.ByteSize,
		record.ImageRef,
		record.Label,
		record.CreatedBy,
		record.CreatedAt,
	)
	return err
}

func (r *Repository) GetByID(id string) (*Record, error) {
	query := `
		SELECT id, short_code, type, mode, payload, format, size,
		       version, modules, byte_size, image_ref, label, created_by, created_at
		FROM qr_codes WHERE id = ?
	`
	row := r.db.QueryRow(query, id)
	return scanRecord(row)
}

func (r *Repository) GetByShortCode(code string) (*Record, error) {
	query := `
		SELECT id, short_code, type, mode, payload, format, size,
		       version, modules, byte_size, image_ref, label, created_by, created_at
		FROM qr_codes WHERE short_code = ?
	`
	row := r.db.QueryRow(query, code)
	return scanRecord(row)
}

func (r *Repository) List(limit, offset int) ([]*Record, error) {
	query := `
		SELECT id, short_code, type, mode, payload, format, size,
		       version, modules, byte_size, image_ref, label, created_by, created_at
		FROM qr_codes
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ReserveShortCode claims a code by inserting it; the primary key makes the
// claim atomic, so there is no separate existence pre-check to race against.
// Implements CodeReserver.
func (r *Repository) ReserveShortCode(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO short_codes (code, created_at) VALUES (?, ?)",
		code, time.Now().Unix(),
	)
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s", ErrCodeTaken, code)
	}
	return err
}

func scanRecord(s interface {
	Scan(dest ...interface{}) error
}) (*Record, error) {
	var record Record
	err := s.Scan(
		&record.ID,
		&record.ShortCode,
		&record.Type,
		&record.Mode,
		&record.Payload,
		&record.Format,
		&record.Size,
		&record.Version,
		&record.Modules,
		&record.ByteSize,
		&record.ImageRef,
		&record.Label,
		&record.CreatedBy,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

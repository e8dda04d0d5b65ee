package qr

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func testRecord(id, shortCode string) *Record {
	return &Record{
		ID:        id,
		ShortCode: shortCode,
		Type:      "url",
		Mode:      "static",
		Payload:   `{"url":{"url":"https://example.com/"}}`,
		Format:    "png",
		Size:      512,
		Version:   2,
		Modules:   25,
		ByteSize:  1024,
		ImageRef:  "/api/qr/image/" + id + ".png",
		CreatedAt: time.Now().Unix(),
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	record := testRecord("qr-1", "abc12345")
	if err := repo.Create(record); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := repo.GetByID("qr-1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Type != "url" || got.Format != "png" || got.Modules != 25 {
		t.Errorf("GetByID() = %+v", got)
	}

	got, err = repo.GetByShortCode("abc12345")
	if err != nil {
		t.Fatalf("GetByShortCode() error: %v", err)
	}
	if got.ID != "qr-1" {
		t.Errorf("GetByShortCode() id = %q", got.ID)
	}

	if _, err := repo.GetByID("missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByID(missing) error = %v, want sql.ErrNoRows", err)
	}
}

func TestRepositoryList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	for i, id := range []string{"qr-a", "qr-b", "qr-c"} {
		record := testRecord(id, "")
		record.CreatedAt = int64(1000 + i)
		if err := repo.Create(record); err != nil {
			t.Fatalf("Create(%s) error: %v", id, err)
		}
	}

	records, err := repo.List(10, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("List() returned %d records", len(records))
	}
	// Newest first.
	if records[0].ID != "qr-c" {
		t.Errorf("List()[0] = %q, want qr-c", records[0].ID)
	}

	records, err = repo.List(1, 1)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(records) != 1 || records[0].ID != "qr-b" {
		t.Errorf("List(1, 1) = %+v", records)
	}
}

func TestRepositoryReserveShortCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	if err := repo.ReserveShortCode(ctx, "unique01"); err != nil {
		t.Fatalf("ReserveShortCode() error: %v", err)
	}

	err := repo.ReserveShortCode(ctx, "unique01")
	if !errors.Is(err, ErrCodeTaken) {
		t.Fatalf("duplicate reservation error = %v, want ErrCodeTaken", err)
	}

	// Other codes remain reservable after a conflict.
	if err := repo.ReserveShortCode(ctx, "unique02"); err != nil {
		t.Errorf("ReserveShortCode() after conflict error: %v", err)
	}
}

func TestRepositoryCreatePropagatesDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	dbErr := errors.New("database is locked")
	mock.ExpectExec("INSERT INTO qr_codes").WillReturnError(dbErr)

	repo := NewRepository(db)
	if err := repo.Create(testRecord("qr-1", "")); !errors.Is(err, dbErr) {
		t.Errorf("Create() error = %v, want %v", err, dbErr)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

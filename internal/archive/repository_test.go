package archive

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/newcubes/Living-Synthesizer/internal/wx"
)

func setupTestArchive(t *testing.T) ReadingArchive {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("close db: %v", closeErr)
		}
	})
	store := NewArchive(db)
	if err := store.Init(); err != nil {
		t.Fatalf("init archive: %v", err)
	}
	return store
}

func sampleReading(sec int) wx.Reading {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return wx.Reading{
		Timestamp:    base.Add(time.Duration(sec) * time.Second),
		WindSpeedMPH: 8.5,
		WindDirDeg:   225,
		TemperatureC: 17.2,
		HumidityPct:  61,
	}
}

func TestArchive_InsertAndCount(t *testing.T) {
	store := setupTestArchive(t)

	for i := 0; i < 3; i++ {
		if err := store.Insert(sampleReading(i * 16)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	n, err := store.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestArchive_DuplicateTimestampIgnored(t *testing.T) {
	store := setupTestArchive(t)

	r := sampleReading(0)
	if err := store.Insert(r); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := store.Insert(r); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}

	n, err := store.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1 (duplicate ts ignored)", n)
	}
}

func TestArchive_LatestNewestFirst(t *testing.T) {
	store := setupTestArchive(t)

	for i := 0; i < 5; i++ {
		r := sampleReading(i * 16)
		r.WindSpeedMPH = float64(i)
		if err := store.Insert(r); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	got, err := store.Latest(2)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d readings, want 2", len(got))
	}
	if got[0].WindSpeedMPH != 4 || got[1].WindSpeedMPH != 3 {
		t.Errorf("latest order = [%g %g], want [4 3]", got[0].WindSpeedMPH, got[1].WindSpeedMPH)
	}
	if !got[0].Timestamp.After(got[1].Timestamp) {
		t.Error("latest[0] not newer than latest[1]")
	}
}

func TestArchive_LatestEmpty(t *testing.T) {
	store := setupTestArchive(t)

	got, err := store.Latest(10)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d readings, want 0", len(got))
	}
}

func TestArchive_InitIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("close db: %v", closeErr)
		}
	}()

	store := NewArchive(db)
	if err := store.Init(); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if err := store.Init(); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

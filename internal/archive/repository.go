package archive

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/newcubes/Living-Synthesizer/internal/wx"
)

//go:embed sql/create-schema.sql
var createSchemaSQL string

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/get-latest-readings.sql
var getLatestReadingsSQL string

//go:embed sql/get-readings-count.sql
var getReadingsCountSQL string

// ReadingArchive persists raw readings so the status API can show recent
// history. It stores what arrived, not what the smoother derived.
type ReadingArchive interface {
	Init() error
	Insert(r wx.Reading) error
	Latest(limit int) ([]wx.Reading, error)
	Count() (int, error)
}

type archiveImpl struct {
	db *sql.DB
}

func NewArchive(db *sql.DB) ReadingArchive {
	return &archiveImpl{db: db}
}

// Init applies the schema. Idempotent.
func (a *archiveImpl) Init() error {
	if _, err := a.db.Exec(createSchemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Insert stores one reading. A duplicate timestamp is ignored; the primary
// key carries the same dedupe contract the pipeline applies.
func (a *archiveImpl) Insert(r wx.Reading) error {
	tsStr := r.Timestamp.UTC().Format(time.RFC3339Nano)
	_, err := a.db.Exec(insertReadingSQL, tsStr, r.WindSpeedMPH, r.WindDirDeg, r.TemperatureC, r.HumidityPct)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (a *archiveImpl) Latest(limit int) ([]wx.Reading, error) {
	rows, err := a.db.Query(getLatestReadingsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()

	var out []wx.Reading
	for rows.Next() {
		var r wx.Reading
		var ts string
		if err := rows.Scan(&ts, &r.WindSpeedMPH, &r.WindDirDeg, &r.TemperatureC, &r.HumidityPct); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		r.Timestamp = t
		out = append(out, r)
	}
	return out, rows.Err()
}

func (a *archiveImpl) Count() (int, error) {
	var n int
	err := a.db.QueryRow(getReadingsCountSQL).Scan(&n)
	return n, err
}

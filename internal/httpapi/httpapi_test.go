package httpapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/newcubes/Living-Synthesizer/internal/archive"
	"github.com/newcubes/Living-Synthesizer/internal/pipeline"
	"github.com/newcubes/Living-Synthesizer/internal/wx"
)

// fakeController records SetProfile calls and serves a canned snapshot.
type fakeController struct {
	snapshot   pipeline.Snapshot
	setErr     error
	setProfile *pipeline.Profile
}

func (f *fakeController) Snapshot() pipeline.Snapshot { return f.snapshot }

func (f *fakeController) SetProfile(p pipeline.Profile) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setProfile = &p
	return nil
}

func setupMux(t *testing.T, ctrl PipelineController) (*http.ServeMux, archive.ReadingArchive) {
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
	store := archive.NewArchive(db)
	if err := store.Init(); err != nil {
		t.Fatalf("init archive: %v", err)
	}
	return NewMux(db, store, ctrl), store
}

func defaultSnapshot() pipeline.Snapshot {
	p, _ := pipeline.NamedProfile("balanced")
	return pipeline.Snapshot{
		Profile:       p,
		LastReadingAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		BufferFill:    3,
		Stabilized: []pipeline.Stabilized{
			{Channel: pipeline.ChannelWindSpeed, Value: 8, Normalized: 0.4},
		},
		LastSent: map[uint8]uint8{28: 51},
	}
}

func TestHealthz(t *testing.T) {
	mux, _ := setupMux(t, &fakeController{snapshot: defaultSnapshot()})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestStatus(t *testing.T) {
	mux, store := setupMux(t, &fakeController{snapshot: defaultSnapshot()})

	r := wx.Reading{
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		WindSpeedMPH: 8,
		WindDirDeg:   225,
		TemperatureC: 17,
		HumidityPct:  60,
	}
	if err := store.Insert(r); err != nil {
		t.Fatalf("insert: %v", err)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", w.Code, http.StatusOK, w.Body)
	}
	var body struct {
		Pipeline     pipeline.Snapshot `json:"pipeline"`
		ReadingCount int               `json:"reading_count"`
		Recent       []wx.Reading      `json:"recent"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ReadingCount != 1 || len(body.Recent) != 1 {
		t.Errorf("reading_count = %d, recent = %d; want 1 and 1", body.ReadingCount, len(body.Recent))
	}
	if body.Pipeline.Profile.Name != "balanced" {
		t.Errorf("profile = %q, want balanced", body.Pipeline.Profile.Name)
	}
}

func TestGetProfile(t *testing.T) {
	mux, _ := setupMux(t, &fakeController{snapshot: defaultSnapshot()})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got pipeline.Profile
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "balanced" || got.BufferSize != 8 {
		t.Errorf("profile = %+v, want balanced preset", got)
	}
}

func TestPutProfile(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantName   string
	}{
		{name: "named", body: `{"name":"ambient"}`, wantStatus: http.StatusOK, wantName: "ambient"},
		{
			name:       "named with algorithm override",
			body:       `{"name":"responsive","algorithm":"gaussian"}`,
			wantStatus: http.StatusOK,
			wantName:   "responsive",
		},
		{
			name:       "custom tuple",
			body:       `{"buffer_size":6,"response_speed":0.4,"interpolation_steps":80,"algorithm":"exponential"}`,
			wantStatus: http.StatusOK,
			wantName:   "custom",
		},
		{name: "unknown name", body: `{"name":"turbo"}`, wantStatus: http.StatusBadRequest},
		{name: "invalid custom", body: `{"buffer_size":0,"response_speed":0.4,"interpolation_steps":80}`, wantStatus: http.StatusBadRequest},
		{name: "bad algorithm", body: `{"name":"balanced","algorithm":"cubic"}`, wantStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{snapshot: defaultSnapshot()}
			mux, _ := setupMux(t, ctrl)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(tt.body))
			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.wantStatus, w.Body)
			}
			if tt.wantStatus != http.StatusOK {
				if ctrl.setProfile != nil {
					t.Errorf("SetProfile called with %+v on a rejected request", *ctrl.setProfile)
				}
				return
			}
			if ctrl.setProfile == nil {
				t.Fatal("SetProfile not called")
			}
			if ctrl.setProfile.Name != tt.wantName {
				t.Errorf("applied profile = %q, want %q", ctrl.setProfile.Name, tt.wantName)
			}
		})
	}
}

func TestPutProfile_ControllerRejection(t *testing.T) {
	ctrl := &fakeController{snapshot: defaultSnapshot(), setErr: errInvalid}
	mux, _ := setupMux(t, ctrl)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(`{"name":"balanced"}`))
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

var errInvalid = errTest("profile rejected")

type errTest string

func (e errTest) Error() string { return string(e) }

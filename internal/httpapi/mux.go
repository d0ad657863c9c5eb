package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/newcubes/Living-Synthesizer/internal/archive"
)

func NewMux(db *sql.DB, store archive.ReadingArchive, ctrl PipelineController) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	registerPipelineRoutes(mux, store, ctrl)
	return mux
}

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/newcubes/Living-Synthesizer/internal/archive"
	"github.com/newcubes/Living-Synthesizer/internal/pipeline"
	"github.com/newcubes/Living-Synthesizer/internal/utils"
	"github.com/newcubes/Living-Synthesizer/internal/wx"
)

// PipelineController is the serialized view of the running pipeline the
// HTTP surface talks to. The app guards it with a mutex so handlers never
// race the ingest loop.
type PipelineController interface {
	Snapshot() pipeline.Snapshot
	SetProfile(p pipeline.Profile) error
}

type pipelineRoutes struct {
	store archive.ReadingArchive
	ctrl  PipelineController
}

func registerPipelineRoutes(mux *http.ServeMux, store archive.ReadingArchive, ctrl PipelineController) {
	routes := &pipelineRoutes{store: store, ctrl: ctrl}
	mux.HandleFunc("GET /api/status", routes.handleStatus)
	mux.HandleFunc("GET /api/profile", routes.handleGetProfile)
	mux.HandleFunc("PUT /api/profile", routes.handlePutProfile)
}

type statusResponse struct {
	Pipeline     pipeline.Snapshot `json:"pipeline"`
	ReadingCount int               `json:"reading_count"`
	Recent       []wx.Reading      `json:"recent"`
}

func (pr *pipelineRoutes) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := pr.store.Count()
	if err != nil {
		slog.Error("status: count readings failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to count readings")
		return
	}
	recent, err := pr.store.Latest(5)
	if err != nil {
		slog.Error("status: latest readings failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}
	utils.WriteJSON(w, http.StatusOK, statusResponse{
		Pipeline:     pr.ctrl.Snapshot(),
		ReadingCount: count,
		Recent:       recent,
	})
}

func (pr *pipelineRoutes) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, pr.ctrl.Snapshot().Profile)
}

// profileRequest selects a built-in profile by name or sets a fully custom
// tuple. Name wins when both are present.
type profileRequest struct {
	Name               string  `json:"name"`
	BufferSize         int     `json:"buffer_size"`
	ResponseSpeed      float64 `json:"response_speed"`
	InterpolationSteps int     `json:"interpolation_steps"`
	Algorithm          string  `json:"algorithm"`
}

func (pr *pipelineRoutes) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var profile pipeline.Profile
	if req.Name != "" {
		named, err := pipeline.NamedProfile(req.Name)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		profile = named
		if req.Algorithm != "" {
			algo, err := pipeline.ParseAlgorithm(req.Algorithm)
			if err != nil {
				utils.WriteError(w, http.StatusBadRequest, err.Error())
				return
			}
			profile.Algorithm = algo
		}
	} else {
		algo := pipeline.AlgorithmLinear
		if req.Algorithm != "" {
			parsed, err := pipeline.ParseAlgorithm(req.Algorithm)
			if err != nil {
				utils.WriteError(w, http.StatusBadRequest, err.Error())
				return
			}
			algo = parsed
		}
		profile = pipeline.Profile{
			Name:               "custom",
			BufferSize:         req.BufferSize,
			ResponseSpeed:      req.ResponseSpeed,
			InterpolationSteps: req.InterpolationSteps,
			Algorithm:          algo,
		}
	}

	if err := profile.Validate(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := pr.ctrl.SetProfile(profile); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("profile switched",
		"name", profile.Name,
		"buffer_size", profile.BufferSize,
		"response_speed", profile.ResponseSpeed,
		"interpolation_steps", profile.InterpolationSteps,
		"algorithm", profile.Algorithm,
	)
	utils.WriteJSON(w, http.StatusOK, profile)
}

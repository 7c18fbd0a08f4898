package handler

import (
	"net/http"
	"strconv"

	"rfid-asset-tracker/internal/repository"
	"rfid-asset-tracker/pkg/apierror"
	"rfid-asset-tracker/pkg/response"

	"github.com/go-chi/chi/v5"
)

const defaultMovementLimit = 50

// AssetHandler serves read-only asset lookups for dashboards.
type AssetHandler struct {
	repo repository.TrackingRepository
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(repo repository.TrackingRepository) *AssetHandler {
	return &AssetHandler{repo: repo}
}

// GetAsset handles GET /api/v1/assets/{tag_id}
func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	tagID := chi.URLParam(r, "tag_id")
	if tagID == "" {
		response.Error(w, apierror.BadRequest("tag_id is required"))
		return
	}

	asset, err := h.repo.GetAsset(r.Context(), tagID)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to load asset"))
		return
	}
	if asset == nil {
		response.Error(w, apierror.NotFound("asset not found"))
		return
	}

	response.OK(w, asset)
}

// GetMovements handles GET /api/v1/assets/{tag_id}/movements?limit=N
func (h *AssetHandler) GetMovements(w http.ResponseWriter, r *http.Request) {
	tagID := chi.URLParam(r, "tag_id")
	if tagID == "" {
		response.Error(w, apierror.BadRequest("tag_id is required"))
		return
	}

	limit := defaultMovementLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			response.Error(w, apierror.BadRequest("limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	movements, err := h.repo.ListMovements(r.Context(), tagID, limit)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to load movements"))
		return
	}

	response.OK(w, movements)
}

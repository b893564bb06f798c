package handlers

import (
	"net/http"

	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/services"
)

const maxFixturesLimit = 200

type PortalHandler struct {
	portalService services.PortalService
}

func NewPortalHandler(portalService services.PortalService) *PortalHandler {
	return &PortalHandler{portalService: portalService}
}

func (h *PortalHandler) Home(w http.ResponseWriter, r *http.Request) {
	scope, err := portalScopeFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	home, err := h.portalService.Home(r.Context(), scope)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, home, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PortalHandler) Standings(w http.ResponseWriter, r *http.Request) {
	scope, err := portalScopeFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	rows, err := h.portalService.Standings(r.Context(), scope)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PortalHandler) Fixtures(w http.ResponseWriter, r *http.Request) {
	scope, err := portalScopeFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	query := services.FixtureQuery{Scope: scope}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.MatchStatus(raw)
		query.Status = &status
	}
	if query.FacultyID, err = queryInt(r, "faculty_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if query.From, err = queryTime(r, "from"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if query.To, err = queryTime(r, "to"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if limit != nil {
		query.Limit = min(*limit, maxFixturesLimit)
	}

	matches, err := h.portalService.Fixtures(r.Context(), query)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

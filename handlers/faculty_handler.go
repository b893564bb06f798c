package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/faculty-league/middleware"
	"github.com/Dosada05/faculty-league/services"
)

const maxCrestSize = 5 << 20

type FacultyHandler struct {
	facultyService services.FacultyService
}

func NewFacultyHandler(facultyService services.FacultyService) *FacultyHandler {
	return &FacultyHandler{facultyService: facultyService}
}

func (h *FacultyHandler) ListFaculties(w http.ResponseWriter, r *http.Request) {
	faculties, err := h.facultyService.ListFaculties(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"faculties": faculties}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FacultyHandler) GetFaculty(w http.ResponseWriter, r *http.Request) {
	facultyID, err := getIDFromURL(r, "facultyID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	faculty, err := h.facultyService.GetFaculty(r.Context(), facultyID, queryCategory(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"faculty": faculty}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FacultyHandler) CreateFaculty(w http.ResponseWriter, r *http.Request) {
	var input services.FacultyInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor := middleware.GetIdentityFromContext(r.Context())
	faculty, err := h.facultyService.CreateFaculty(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"faculty": faculty}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FacultyHandler) UpdateFaculty(w http.ResponseWriter, r *http.Request) {
	facultyID, err := getIDFromURL(r, "facultyID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.FacultyInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor := middleware.GetIdentityFromContext(r.Context())
	faculty, err := h.facultyService.UpdateFaculty(r.Context(), actor, facultyID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"faculty": faculty}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *FacultyHandler) UploadCrest(w http.ResponseWriter, r *http.Request) {
	facultyID, err := getIDFromURL(r, "facultyID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCrestSize+1024)
	if err := r.ParseMultipartForm(maxCrestSize); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}
	file, header, err := r.FormFile("crest")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get crest file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content-type header is required for crest"))
		return
	}

	actor := middleware.GetIdentityFromContext(r.Context())
	faculty, err := h.facultyService.UploadCrest(r.Context(), actor, facultyID, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"faculty": faculty}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/repositories"
	"github.com/Dosada05/faculty-league/storage"
)

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// requireAdmin rejects anonymous and non-admin callers before any store access.
func requireAdmin(actor models.Identity) error {
	if actor.UserID <= 0 {
		return ErrAuthenticationFailed
	}
	if !actor.IsAdmin() {
		return ErrForbiddenOperation
	}
	return nil
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}

// handleRepositoryError translates repository sentinels into service errors.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrFacultyNotFound):
		return ErrFacultyNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrSeasonNotFound):
		return ErrSeasonNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrFacultyNameConflict):
		return ErrFacultyNameConflict
	case errors.Is(err, repositories.ErrUserEmailConflict):
		return ErrUserEmailConflict
	case errors.Is(err, repositories.ErrSeasonActiveExists):
		return ErrSeasonAlreadyActive
	case errors.Is(err, repositories.ErrMatchFacultyInvalid):
		return fmt.Errorf("%w: unknown faculty or season", ErrValidationFailed)
	}
	return err
}

func populateCrestURL(f *models.Faculty, uploader storage.FileUploader) {
	if f == nil || f.CrestKey == nil || *f.CrestKey == "" || uploader == nil {
		return
	}
	if url := uploader.GetPublicURL(*f.CrestKey); url != "" {
		f.CrestURL = &url
	}
}

func GetExtensionFromContentType(contentType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	case "image/svg+xml":
		return ".svg", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
}

func matchValues(ptrs []*models.Match) []models.Match {
	out := make([]models.Match, 0, len(ptrs))
	for _, m := range ptrs {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}

func facultyValues(ptrs []*models.Faculty) []models.Faculty {
	out := make([]models.Faculty, 0, len(ptrs))
	for _, f := range ptrs {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out
}

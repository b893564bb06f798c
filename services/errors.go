package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrSameFaculty             = errors.New("home and away faculty must differ")
	ErrInvalidStatusTransition = errors.New("invalid match status transition")
	ErrMatchFinished           = errors.New("finished match details cannot be changed")
	ErrSeasonAlreadyActive     = errors.New("a season is already active")
	ErrSeasonNotActive         = errors.New("season is not active")
	ErrUnsupportedImage        = errors.New("unsupported image content type")
	ErrStatsReversalRejected   = errors.New("score correction rejected: reversal would make faculty counters negative")

	// Ошибки конфликтов
	ErrFacultyNameConflict = errors.New("faculty name is already in use")
	ErrUserEmailConflict   = errors.New("email address is already in use")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrOAuthNotConfigured   = errors.New("google sign-in is not configured")
	ErrStorageNotConfigured = errors.New("crest uploads are not configured")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound    = errors.New("user not found")
	ErrFacultyNotFound = errors.New("faculty not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrSeasonNotFound  = errors.New("season not found")
)

package errx

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Category is the user-facing failure class a turn can degrade to.
type Category string

const (
	CategoryValidation   Category = "validation_error"
	CategoryAIService    Category = "ai_service_error"
	CategoryDatabase     Category = "database_error"
	CategoryFileNotFound Category = "file_not_found"
	CategoryTimeout      Category = "timeout_error"
	CategoryRateLimit    Category = "rate_limit_error"
	CategoryGeneral      Category = "general_error"
)

var (
	// ErrDataSourceNotFound is returned by dataset runners when the backing store
	// of a data source does not exist.
	ErrDataSourceNotFound = errors.New("data source not found")

	// ErrUnknownRoute marks a transition to a data source that was never
	// registered. It is a configuration defect and is not folded into a response.
	ErrUnknownRoute = errors.New("unknown route")
)

var userMessages = map[Category]string{
	CategoryValidation:   "Maaf, pesan Anda tidak dapat diproses. Mohon periksa kembali pertanyaan Anda.",
	CategoryAIService:    "Maaf, layanan AI sedang mengalami gangguan. Silakan coba beberapa saat lagi.",
	CategoryDatabase:     "Maaf, terjadi kesalahan saat mengakses data. Silakan coba beberapa saat lagi.",
	CategoryFileNotFound: "Maaf, data yang Anda cari tidak ditemukan.",
	CategoryTimeout:      "Maaf, permintaan Anda memakan waktu terlalu lama. Silakan coba lagi.",
	CategoryRateLimit:    "Maaf, terlalu banyak permintaan saat ini. Silakan coba beberapa saat lagi.",
	CategoryGeneral:      "Maaf, terjadi kesalahan. Silakan coba beberapa saat lagi.",
}

// UserMessage returns the fixed user-facing template for a category. Unknown
// categories fall back to the general template.
func UserMessage(c Category) string {
	if m, ok := userMessages[c]; ok {
		return m
	}
	return userMessages[CategoryGeneral]
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// Status maps a category to the HTTP status a transport layer would use.
func (c Category) Status() int {
	switch c {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryFileNotFound:
		return http.StatusNotFound
	case CategoryRateLimit:
		return http.StatusTooManyRequests
	case CategoryTimeout:
		return http.StatusGatewayTimeout
	case CategoryAIService, CategoryDatabase:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Classify maps an arbitrary error to a category. fallback is used when the
// error carries no recognisable signal.
func Classify(err error, fallback Category) Category {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Category != "" {
		return e.Category
	}
	if errors.Is(err, ErrDataSourceNotFound) {
		return CategoryFileNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "resource_exhausted"),
		strings.Contains(msg, "quota"):
		return CategoryRateLimit
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"):
		return CategoryTimeout
	}
	if fallback == "" {
		return CategoryGeneral
	}
	return fallback
}

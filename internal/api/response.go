package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/event-ticketing/internal/auth"
	"github.com/example/event-ticketing/internal/domain/banner"
	"github.com/example/event-ticketing/internal/domain/category"
	"github.com/example/event-ticketing/internal/domain/event"
	"github.com/example/event-ticketing/internal/domain/order"
	"github.com/example/event-ticketing/internal/domain/region"
	"github.com/example/event-ticketing/internal/domain/ticket"
	"github.com/example/event-ticketing/internal/domain/user"
	"github.com/example/event-ticketing/internal/infrastructure/store"
	"github.com/example/event-ticketing/internal/logging"
	"github.com/example/event-ticketing/internal/media"
	"go.uber.org/zap"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type envelope struct {
	Message    string      `json:"message"`
	Data       any         `json:"data"`
	Pagination *pagination `json:"pagination,omitempty"`
}

type pagination struct {
	Total      int64 `json:"total"`
	Current    int   `json:"current"`
	TotalPages int   `json:"totalPages"`
}

// validationError is a malformed request detected before reaching a service.
type validationError struct{ message string }

func (e *validationError) Error() string { return e.message }

func invalidRequest(format string, args ...any) error {
	return &validationError{message: fmt.Sprintf(format, args...)}
}

var (
	notFoundErrors = []error{
		order.ErrOrderNotFound, order.ErrTicketNotFound, ticket.ErrTicketNotFound,
		event.ErrEventNotFound, category.ErrCategoryNotFound, banner.ErrBannerNotFound,
		region.ErrRegionNotFound, user.ErrUserNotFound, media.ErrMediaNotFound,
	}
	badRequestErrors = []error{
		order.ErrInvalidQuantity, order.ErrInsufficientInventory, order.ErrInvalidTransition,
		ticket.ErrInvalidName, ticket.ErrInvalidPrice, ticket.ErrInvalidQuantity, ticket.ErrInvalidEventID,
		event.ErrInvalidName, event.ErrInvalidCategory, event.ErrInvalidSlug, event.ErrInvalidDateRange, event.ErrInvalidLocation,
		category.ErrInvalidName, banner.ErrInvalidTitle, banner.ErrInvalidImage, region.ErrInvalidSearch,
		user.ErrInvalidFullName, user.ErrInvalidUsername, user.ErrInvalidEmail, user.ErrPasswordMismatch,
		user.ErrInvalidActivationCode,
		auth.ErrPasswordTooShort, auth.ErrPasswordNoUpper, auth.ErrPasswordNoDigit,
		media.ErrInvalidURL, media.ErrEmptyFile, media.ErrNoFiles,
	}
	conflictErrors = []error{
		order.ErrTerminalConflict, order.ErrConcurrentUpdate,
		user.ErrEmailTaken, user.ErrUsernameTaken, event.ErrSlugTaken, store.ErrDuplicate,
	}
)

func statusFor(err error) int {
	var ve *validationError
	switch {
	case errors.As(err, &ve), isAny(err, badRequestErrors):
		return http.StatusBadRequest
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, conflictErrors):
		return http.StatusConflict
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, user.ErrUserNotActive):
		return http.StatusForbidden
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func respondJSON(w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(w, status, envelope{Message: message, Data: data})
}

func respondList(w http.ResponseWriter, message string, data any, total int64, page store.Page) {
	totalPages := 0
	if page.Limit > 0 {
		totalPages = int((total + int64(page.Limit) - 1) / int64(page.Limit))
	}
	writeEnvelope(w, http.StatusOK, envelope{
		Message:    message,
		Data:       data,
		Pagination: &pagination{Total: total, Current: page.Page, TotalPages: totalPages},
	})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError maps a domain error to its HTTP status. Unexpected errors are
// logged and hidden behind a generic message.
func respondError(w http.ResponseWriter, r *http.Request, fallback *zap.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context(), fallback).Error("request failed", zap.Error(err))
		if !errors.Is(err, order.ErrInconsistentState) {
			message = "internal server error"
		}
	}
	writeEnvelope(w, status, envelope{Message: message})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return invalidRequest("request body is required")
		}
		return invalidRequest("invalid request body: %v", err)
	}
	return nil
}

// pageFromRequest reads page and limit, falling back to the defaults for
// missing or non-positive values and capping limit.
func pageFromRequest(r *http.Request) store.Page {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = defaultPage
	}
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return store.Page{Page: page, Limit: limit}
}

func searchFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("search"))
}

// boolParam returns nil when the parameter is absent.
func boolParam(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, invalidRequest("%s must be true or false", name)
	}
	return &v, nil
}

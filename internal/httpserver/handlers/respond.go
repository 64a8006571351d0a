package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
)

// maxBodyBytes bounds admin payloads, bulk imports included.
const maxBodyBytes = 8 << 20

var validate = newValidator()

// newValidator reports fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrStudentNotFound),
		errors.Is(err, domain.ErrDomainNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRejected):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {"success":false,"error":...}. Store failures are
// reported without their cause, which the service has already logged.
func writeError(w http.ResponseWriter, d deps.Deps, err error) {
	status := statusFor(err)

	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		msg = domain.ErrStoreUnavailable.Error()
	case http.StatusInternalServerError:
		d.Logger.Error("unhandled error", logger.Error(err))
		msg = http.StatusText(status)
	case http.StatusNotFound:
		msg = notFoundMessage(err)
	}

	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

func notFoundMessage(err error) string {
	for _, target := range []error{domain.ErrNotFound, domain.ErrStudentNotFound, domain.ErrDomainNotFound} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

// decodeJSON reads a JSON body into dst and runs presence checks on it.
// Every failure wraps domain.ErrInvalidInput.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body: %w", domain.ErrInvalidInput)
		}
		return fmt.Errorf("invalid JSON: %w", domain.ErrInvalidInput)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s is required: %w", verrs[0].Field(), domain.ErrInvalidInput)
		}
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			return fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
		}
	}
	return nil
}

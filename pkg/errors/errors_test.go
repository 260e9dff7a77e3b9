package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   NotFound("Booking"),
			expected: "NOT_FOUND: Booking not found",
		},
		{
			name:     "with underlying error",
			appErr:   StoreFailure("failed to insert booking", errors.New("connection reset")),
			expected: "STORE_FAILURE: failed to insert booking (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Product"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"invalid interval", InvalidInterval("from must be before to"), CodeInvalidInterval, http.StatusBadRequest},
		{"self booking", SelfBookingForbidden("own product"), CodeSelfBookingForbidden, http.StatusBadRequest},
		{"too late", TooLateToCancel("already started"), CodeTooLateToCancel, http.StatusBadRequest},
		{"unauthorized", Unauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("not yours"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("overlap"), CodeConflict, http.StatusConflict},
		{"too many requests", TooManyRequests("slow down"), CodeTooManyRequests, http.StatusTooManyRequests},
		{"store failure", StoreFailure("db", errors.New("x")), CodeStoreFailure, http.StatusInternalServerError},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("SMS gateway"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.StatusCode())
			}
		})
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	original := errors.New("database connection failed")
	wrapped := Wrap(original, CodeInternal, "internal error", http.StatusInternalServerError)

	if errors.Unwrap(wrapped) != original {
		t.Errorf("Unwrap() should return original error")
	}
	if !errors.Is(wrapped, original) {
		t.Errorf("errors.Is should see the original error through AppError")
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Booking", "65f1c0ffee")

	if err.Details["id"] != "65f1c0ffee" {
		t.Errorf("expected id detail, got %v", err.Details["id"])
	}
	if err.Details["resource"] != "Booking" {
		t.Errorf("expected resource detail, got %v", err.Details["resource"])
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("overlap")
	wrapped := fmt.Errorf("transaction failed: %w", appErr)
	regular := errors.New("regular error")

	if got := AsAppError(wrapped); got != appErr {
		t.Errorf("AsAppError() should find the AppError inside a wrapped error")
	}
	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should be true for a wrapped AppError")
	}

	got := AsAppError(regular)
	if got.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if got.Err != regular {
		t.Errorf("AsAppError() should keep the original error")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("admit: %w", TooLateToCancel("started"))

	if !HasCode(err, CodeTooLateToCancel) {
		t.Errorf("HasCode() should match the wrapped code")
	}
	if HasCode(err, CodeConflict) {
		t.Errorf("HasCode() should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Errorf("HasCode() should be false for non AppError values")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	err := NotFoundWithID("Product", "12345").WithDetails(map[string]any{"id": "12345"})
	body := string(err.ToJSON())

	if !strings.Contains(body, CodeNotFound) {
		t.Errorf("ToJSON() should contain error code, got %s", body)
	}
	if !strings.Contains(body, "Product not found") {
		t.Errorf("ToJSON() should contain error message, got %s", body)
	}
}

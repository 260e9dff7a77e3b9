package middleware

import (
	"net/http"
	apperrors "rentals/pkg/errors"
	httputil "rentals/pkg/http"
)

func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.WriteError(w, apperrors.New(
					apperrors.CodeInvalidInput,
					"Request body too large",
					http.StatusRequestEntityTooLarge,
				))
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}

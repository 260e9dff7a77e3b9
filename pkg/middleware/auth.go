package middleware

import (
	"context"
	"errors"
	"net/http"
	"rentals/pkg/auth"
	apperrors "rentals/pkg/errors"
	httputil "rentals/pkg/http"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"slices"
	"strings"

	"github.com/julienschmidt/httprouter"
)

const identityKey contextKey = "identity"

// TokenVerifier resolves a bearer token to the caller's identity.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// Authenticate rejects the request unless it carries a valid bearer token.
func Authenticate(verifier TokenVerifier, log *logger.Logger) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				httputil.WriteError(w, apperrors.Unauthorized("Missing bearer token"))
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				log.Debug("Rejected access token",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				message := "Invalid access token"
				if errors.Is(err, auth.ErrTokenExpired) {
					message = "Access token expired"
				}
				httputil.WriteError(w, apperrors.Unauthorized(message))
				return
			}

			next(w, r.WithContext(WithIdentity(r.Context(), identity)), ps)
		}
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...model.Role) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
				return
			}
			if !slices.Contains(roles, identity.Role) {
				httputil.WriteError(w, apperrors.Forbidden("This action requires role "+joinRoles(roles)))
				return
			}
			next(w, r, ps)
		}
	}
}

// Protect authenticates the request and, when roles are given, requires one
// of them.
func Protect(verifier TokenVerifier, log *logger.Logger, roles ...model.Role) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		if len(roles) > 0 {
			next = RequireRole(roles...)(next)
		}
		return Authenticate(verifier, log)(next)
	}
}

func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*auth.Identity)
	return identity, ok && identity != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func joinRoles(roles []model.Role) string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return strings.Join(names, " or ")
}

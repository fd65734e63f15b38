package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/crudkit/identity/internal/auth"
	"github.com/crudkit/identity/internal/repository"
	"github.com/crudkit/identity/pkg/httputil"
	"github.com/crudkit/identity/pkg/logger"
	"github.com/crudkit/identity/pkg/middleware"
)

// AccessChecker answers permission questions for the authorization
// middleware. Implemented by service.AccessService.
type AccessChecker interface {
	UserHasPermission(ctx context.Context, userID int64, permission string) (bool, error)
	UserHasAnyPermission(ctx context.Context, userID int64, permissions ...string) (bool, error)
	UserHasAllPermissions(ctx context.Context, userID int64, permissions ...string) (bool, error)
}

// Authenticate verifies the bearer token and loads the current account
// state. The token alone is not trusted for liveness: a user deleted or
// deactivated after the token was issued is rejected here.
func Authenticate(tokens *auth.TokenManager, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "missing or malformed authorization header")
				return
			}

			claims, err := tokens.VerifyAccessToken(raw)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					writeUnauthorized(w, "token expired")
				} else {
					writeUnauthorized(w, "invalid token")
				}
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil || !user.IsActive {
				writeUnauthorized(w, "account not found or deactivated")
				return
			}

			// The role comes from the database, not the token, so a role
			// change takes effect without waiting for token expiry.
			ctx := middleware.WithIdentity(r.Context(), middleware.Identity{
				UserID: user.ID,
				Email:  user.Email,
				Role:   user.RoleName,
			})
			ctx = logger.WithUserID(ctx, strconv.FormatInt(user.ID, 10))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate attaches the identity when a valid bearer token is
// presented and silently continues without one otherwise. Handlers behind it
// must treat a missing identity as an anonymous request.
func OptionalAuthenticate(tokens *auth.TokenManager, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.VerifyAccessToken(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil || !user.IsActive {
				next.ServeHTTP(w, r)
				return
			}

			ctx := middleware.WithIdentity(r.Context(), middleware.Identity{
				UserID: user.ID,
				Email:  user.Email,
				Role:   user.RoleName,
			})
			ctx = logger.WithUserID(ctx, strconv.FormatInt(user.ID, 10))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects requests whose user does not hold the named
// permission. Must be mounted after Authenticate.
func RequirePermission(access AccessChecker, permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := middleware.IdentityFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "authentication required")
				return
			}

			held, err := access.UserHasPermission(r.Context(), id.UserID, permission)
			if err != nil || !held {
				writeForbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission rejects requests whose user holds none of the named
// permissions.
func RequireAnyPermission(access AccessChecker, permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := middleware.IdentityFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "authentication required")
				return
			}

			held, err := access.UserHasAnyPermission(r.Context(), id.UserID, permissions...)
			if err != nil || !held {
				writeForbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAllPermissions rejects requests whose user is missing any of the
// named permissions.
func RequireAllPermissions(access AccessChecker, permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := middleware.IdentityFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "authentication required")
				return
			}

			held, err := access.UserHasAllPermissions(r.Context(), id.UserID, permissions...)
			if err != nil || !held {
				writeForbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests whose user's role is not one of the named
// roles. Role names match exactly.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := middleware.IdentityFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "authentication required")
				return
			}

			if _, ok := allowed[id.Role]; !ok {
				writeForbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	AllowedOrigins []string
	Environment    string
}

// CORS returns a middleware that sets Cross-Origin Resource Sharing headers.
// In development mode (or when AllowedOrigins contains "*"), a wildcard
// origin is used; otherwise the request Origin is validated against the list.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowWildcard := cfg.Environment == "development"
	originSet := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowWildcard = true
		}
		originSet[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if allowWildcard {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if origin != "" {
				if _, ok := originSet[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
				}
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Correlation-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: message},
	})
}

func writeForbidden(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "FORBIDDEN", Message: "insufficient permissions"},
	})
}

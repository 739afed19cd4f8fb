package middleware

import (
	"net/http"
	"strings"

	"github.com/troupekit/troupe-backend/api/responses"
	pkgAuth "github.com/troupekit/troupe-backend/pkg/auth"
	"github.com/troupekit/troupe-backend/pkg/config"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the acting
// director. Token issuance lives in the identity service; this middleware
// only verifies and extracts.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithDirectorID(r.Context(), claims.DirectorID.String())
			if logg != nil {
				ctx = logg.WithDirectorID(ctx, claims.DirectorID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

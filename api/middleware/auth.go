package middleware

import (
	"net/http"
	"strings"

	"github.com/eventloom/finance-backend/api/responses"
	pkgAuth "github.com/eventloom/finance-backend/pkg/auth"
	"github.com/eventloom/finance-backend/pkg/config"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// operator identity.
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

			ctx := WithOperator(r.Context(), claims.OperatorID, claims.Role)
			if logg != nil {
				ctx = logg.WithOperatorID(ctx, claims.OperatorID.String())
				ctx = logg.WithField(ctx, "actor_role", claims.Role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

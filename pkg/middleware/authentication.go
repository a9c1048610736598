package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/labstack/echo/v4"

	appctx "github.com/owid/lc-reconcile/pkg/context"
	"github.com/owid/lc-reconcile/pkg/tracing"
)

type UserClaims struct {
	Sub         string `json:"sub"`
	Email       string `json:"email"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// TokenVerifier checks a raw bearer token and returns its claims
type TokenVerifier func(ctx context.Context, rawToken string) (UserClaims, error)

// NewOIDCVerifier discovers the issuer and verifies ID tokens issued to clientID
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (TokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: clientID,
	})

	return func(ctx context.Context, rawToken string) (UserClaims, error) {
		var claims UserClaims
		idToken, err := verifier.Verify(ctx, rawToken)
		if err != nil {
			return claims, err
		}
		err = idToken.Claims(&claims)
		return claims, err
	}, nil
}

// Authentication requires a valid bearer token. When role is set the token must carry it.
func Authentication(logger ectologger.Logger, verify TokenVerifier, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracing.StartSpan(c.Request().Context(), "middleware.Authentication")
			defer span.End()

			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				logger.WithContext(ctx).Warn("request is missing bearer token")
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer")
			}

			verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			claims, err := verify(verifyCtx, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				logger.WithContext(ctx).WithError(err).Warn("token is invalid")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if role != "" && !slices.Contains(claims.RealmAccess.Roles, role) {
				logger.WithContext(ctx).WithField("sub", claims.Sub).Warn("token is missing the admin role")
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}

			ctx = appctx.SetUserID(ctx, claims.Sub)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

package routes

import (
	"strings"

	"villabook/cmd/internal/utils"
	"villabook/cmd/internal/utils/apierror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// Claims is the subset of a Cognito access or id token we rely on.
type Claims struct {
	Email    string `json:"email"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// RequireAuth verifies the bearer token with keyFunc and stores its subject
// on the context for utils.ParseTokenDataCtx.
func RequireAuth(keyFunc jwt.Keyfunc, issuer string) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return c.JSON(401, apierror.InvalidAuthTokenError)
			}

			var claims Claims
			token, err := parser.ParseWithClaims(strings.TrimSpace(raw), &claims, keyFunc)
			if err != nil || !token.Valid {
				log.Debugf("rejected token: %v", err)
				return c.JSON(401, apierror.InvalidAuthTokenError)
			}
			if claims.Subject == "" {
				return c.JSON(401, apierror.InvalidAuthTokenError)
			}
			switch claims.TokenUse {
			case "", "access", "id":
			default:
				return c.JSON(401, apierror.InvalidAuthTokenError)
			}

			utils.SetTokenDataCtx(c, &utils.TokenData{Sub: claims.Subject, Email: claims.Email})
			return next(c)
		}
	}
}

package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/diet-coach/utils/log"
)

const (
	ContextMemberID = "member_id"
	ContextRole     = "role"

	tokenIssuer = "diet-coach"
)

type JWTClaims struct {
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 session tokens carried either as a
// Bearer header or in the session cookie.
type Authenticator struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	now        func() time.Time
}

func NewAuthenticator(secret string, ttl time.Duration, cookieName string) *Authenticator {
	return &Authenticator{
		secret:     []byte(secret),
		ttl:        ttl,
		cookieName: cookieName,
		now:        time.Now,
	}
}

// GenerateJWT signs a session token for memberID.
func (a *Authenticator) GenerateJWT(memberID, role string) (string, time.Time, error) {
	now := a.now()
	expires := now.Add(a.ttl)
	claims := &JWTClaims{
		MemberID: memberID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   memberID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

func (a *Authenticator) ParseJWT(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.MemberID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func (a *Authenticator) SessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (a *Authenticator) ClearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (a *Authenticator) tokenFrom(c echo.Context) string {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		if token, found := strings.CutPrefix(header, "Bearer "); found {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(a.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// JWTMiddleware rejects requests without a valid session and stores the
// caller's id under ContextMemberID.
func (a *Authenticator) JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := a.tokenFrom(c)
		if tokenString == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
		}

		claims, err := a.ParseJWT(tokenString)
		if err != nil {
			log.WithCtx(c.Request().Context()).Debug("JWT validation error", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		c.Set(ContextMemberID, claims.MemberID)
		c.Set(ContextRole, claims.Role)
		ctx := log.WithMemberID(c.Request().Context(), claims.MemberID)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// currentMemberID is the id JWTMiddleware stored for this request.
func currentMemberID(c echo.Context) string {
	id, _ := c.Get(ContextMemberID).(string)
	return id
}

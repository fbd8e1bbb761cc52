package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/diet-coach/domain"
	"github.com/satriahrh/diet-coach/utils/log"
)

type LoginRequest struct {
	MemberID string `json:"memberId" form:"memberId"`
	Password string `json:"password" form:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	MemberID string `json:"memberId"`
	Name     string `json:"name"`
}

// Signup accepts JSON or form bodies.
func (h *Handler) Signup(c echo.Context) error {
	var in domain.SignupInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed signup request")
	}

	m, err := h.members.Signup(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, "signup completed", map[string]string{"memberId": m.MemberID})
}

// CheckID answers data=true when the id is already taken.
func (h *Handler) CheckID(c echo.Context) error {
	memberID := strings.TrimSpace(c.QueryParam("memberId"))
	if memberID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "memberId is required")
	}

	duplicate, err := h.members.CheckIDDuplicate(c.Request().Context(), memberID)
	if err != nil {
		return err
	}
	message := "member id is available"
	if duplicate {
		message = "member id is already taken"
	}
	return ok(c, message, duplicate)
}

func (h *Handler) Login(c echo.Context) error {
	var in LoginRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed login request")
	}
	if strings.TrimSpace(in.MemberID) == "" || in.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "memberId and password are required")
	}

	ctx := c.Request().Context()
	m, err := h.members.Authenticate(ctx, in.MemberID, in.Password)
	if err != nil {
		log.WithCtx(ctx).Info("login failed", zap.String("login_id", in.MemberID), zap.Error(err))
		return err
	}

	token, expires, err := h.auth.GenerateJWT(m.MemberID, m.Role)
	if err != nil {
		return err
	}
	c.SetCookie(h.auth.SessionCookie(token, expires))

	log.WithCtx(log.WithMemberID(ctx, m.MemberID)).Info("member logged in")
	return ok(c, "login succeeded", LoginResponse{
		Token:    token,
		Type:     "Bearer",
		MemberID: m.MemberID,
		Name:     m.Name,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(h.auth.ClearedCookie())
	return ok(c, "logged out", nil)
}

func (h *Handler) MemberInfo(c echo.Context) error {
	info, err := h.members.Info(c.Request().Context(), currentMemberID(c))
	if err != nil {
		return err
	}
	return ok(c, "member info", info)
}

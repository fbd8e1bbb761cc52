package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/satriahrh/diet-coach/usecase"
)

// ClientCounter reports how many push connections are open.
type ClientCounter interface {
	ClientCount() int
}

type Handler struct {
	members *usecase.MemberService
	foods   *usecase.FoodService
	records *usecase.FoodRecordService
	advice  *usecase.AdviceService
	auth    *Authenticator
	clients ClientCounter
}

func NewHandler(
	members *usecase.MemberService,
	foods *usecase.FoodService,
	records *usecase.FoodRecordService,
	advice *usecase.AdviceService,
	auth *Authenticator,
	clients ClientCounter,
) *Handler {
	return &Handler{
		members: members,
		foods:   foods,
		records: records,
		advice:  advice,
		auth:    auth,
		clients: clients,
	}
}

// HealthCheck is unauthenticated.
func (h *Handler) HealthCheck(c echo.Context) error {
	data := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "diet-coach",
	}
	if h.clients != nil {
		data["websocket_clients"] = h.clients.ClientCount()
	}
	return c.JSON(http.StatusOK, Response{
		Success: true,
		Code:    http.StatusOK,
		Message: "ok",
		Data:    data,
	})
}

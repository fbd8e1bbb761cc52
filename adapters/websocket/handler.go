package websocket

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves the "/ws" endpoint. It expects the auth middleware to have
// stored the caller's id under "member_id".
func (s *Server) Handler(c echo.Context) error {
	memberID, _ := c.Get("member_id").(string)
	if memberID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing member identity")
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	s.serve(c.Request().Context(), conn, memberID)
	return nil
}

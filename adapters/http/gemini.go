package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/diet-coach/utils/log"
)

// ChatStream relays the model's reply as a text/event-stream, one event per
// fragment, flushed as soon as it arrives.
func (h *Handler) ChatStream(c echo.Context) error {
	prompt := c.QueryParam("prompt")

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	fragments, err := h.advice.ChatStream(ctx, prompt)
	if err != nil {
		return err
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	logger := log.WithCtx(ctx)
	sent, gone := 0, false
	for fragment := range fragments {
		if gone {
			continue
		}
		if err := writeEvent(w, fragment); err != nil {
			// cancel releases the producer; the range then ends when it closes.
			logger.Info("SSE client went away", zap.Error(err))
			gone = true
			cancel()
			continue
		}
		w.Flush()
		sent++
	}
	logger.Debug("SSE stream finished", zap.Int("fragments", sent))
	return nil
}

// writeEvent frames one fragment as an SSE event. Multi-line fragments become
// one data field per line.
func writeEvent(w io.Writer, fragment string) error {
	var b strings.Builder
	for _, line := range strings.Split(fragment, "\n") {
		b.WriteString("data:")
		b.WriteString(strings.TrimSuffix(line, "\r"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	_, err := fmt.Fprint(w, b.String())
	return err
}

func (h *Handler) TodayAdvice(c echo.Context) error {
	advice, err := h.advice.TodayAdvice(c.Request().Context(), currentMemberID(c))
	if err != nil {
		return err
	}
	return ok(c, "advice generated", map[string]string{"advice": advice})
}

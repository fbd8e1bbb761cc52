package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/satriahrh/diet-coach/adapters/message_broker"
	"github.com/satriahrh/diet-coach/domain"
)

func newTestServer(t *testing.T) (*Server, *message_broker.ChannelMessageBroker, string) {
	t.Helper()
	broker := message_broker.NewChannelMessageBroker()
	srv := NewServer(broker, nil)

	e := echo.New()
	e.GET("/ws", srv.Handler, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := c.QueryParam("as"); id != "" {
				c.Set("member_id", id)
			}
			return next(c)
		}
	})
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	return srv, broker, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestFoodRecordEventsArePushedToOwner(t *testing.T) {
	srv, broker, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?as=alice", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return srv.GetHub().IsMemberConnected("alice") && broker.GetTopicCount() == 1 })

	evt := domain.FoodRecordEvent{Type: domain.FoodRecordAdded, UserID: "alice", RecordID: 7, FoodName: "Kimchi"}
	payload, _ := json.Marshal(evt)
	if err := broker.Publish(context.Background(), domain.FoodRecordTopic, "bob", []byte(`{"type":"food_record_added","user_id":"bob"}`)); err != nil {
		t.Fatalf("Publish bob: %v", err)
	}
	if err := broker.Publish(context.Background(), domain.FoodRecordTopic, "alice", payload); err != nil {
		t.Fatalf("Publish alice: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var got domain.FoodRecordEvent
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.UserID != "alice" || got.RecordID != 7 {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestClientIsUnregisteredOnDisconnect(t *testing.T) {
	srv, broker, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?as=alice", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	waitFor(t, func() bool { return srv.GetHub().ClientCount() == 1 })

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	waitFor(t, func() bool { return srv.GetHub().ClientCount() == 0 && broker.GetTopicCount() == 0 })
}

func TestHandlerRequiresIdentity(t *testing.T) {
	_, _, url := newTestServer(t)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial to fail without identity")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

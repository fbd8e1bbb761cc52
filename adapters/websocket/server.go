package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/diet-coach/domain"
	"github.com/satriahrh/diet-coach/utils/log"
)

type Server struct {
	upgrader      websocket.Upgrader
	messageBroker domain.MessageBroker
	hub           *Hub
}

// NewServer builds the push server. checkOrigin may be nil to accept any origin.
func NewServer(messageBroker domain.MessageBroker, checkOrigin func(r *http.Request) bool) *Server {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Server{
		upgrader:      websocket.Upgrader{CheckOrigin: checkOrigin},
		messageBroker: messageBroker,
		hub:           NewHub(),
	}
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// forwardFoodRecords pushes the member's food-record events to client until
// either the client or the subscription ends.
func (s *Server) forwardFoodRecords(client *Client) {
	ctx := client.Context()
	messages, err := s.messageBroker.Subscribe(ctx, domain.FoodRecordTopic, client.MemberID())
	if err != nil {
		log.WithCtx(ctx).Error("❌ Failed to subscribe to food record topic", zap.Error(err))
		client.Close()
		return
	}

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				client.Close()
				return
			}
			var evt domain.FoodRecordEvent
			if err := json.Unmarshal(msg.Payload, &evt); err != nil {
				log.WithCtx(ctx).Error("❌ Failed to unmarshal food record event", zap.Error(err))
				continue
			}
			if err := client.SendMessage(msg.Payload); err != nil {
				log.WithCtx(ctx).Warn("Failed to push food record event", zap.Error(err))
				return
			}
			log.WithCtx(ctx).Debug("📤 Pushed food record event",
				zap.String("type", string(evt.Type)),
				zap.Int64("record_id", evt.RecordID))

		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn, memberID string) {
	client := NewClient(ctx, conn, memberID)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	client.Run()
	s.forwardFoodRecords(client)

	// Wait for the client context to be done (connection closed)
	<-client.Context().Done()
}

package wshandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/pkg/logger"
	wrap "github.com/hubride/ride-pool-system/pkg/logger/wrapper"
	ws "github.com/hubride/ride-pool-system/pkg/wsHub"
)

// Feed upgrades authenticated clients to WebSocket and pushes committed
// change events to them. Node updates go to everyone watching the board;
// ledger movements go only to the account they belong to.
type Feed struct {
	hub      *ws.ConnectionHub
	upgrader websocket.Upgrader
	l        logger.Logger
}

func NewFeed(hub *ws.ConnectionHub, l logger.Logger) *Feed {
	return &Feed{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		l: l,
	}
}

type frame struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

// Serve godoc
// @Summary      Subscribe to the live change feed
// @Tags         Feed
// @Security     BearerAuth
// @Success      101
// @Router       /ws [get]
func (f *Feed) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ws_subscribe")
	user := models.UserFromContext(ctx)

	raw, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.l.Error(ctx, "websocket upgrade failed", err)
		return
	}

	conn := ws.NewConn(context.Background(), user.ID, raw)
	if err := f.hub.Add(conn); err != nil {
		f.l.Error(ctx, "failed to register connection", err)
		_ = raw.Close()
		return
	}

	f.l.Info(ctx, "websocket client connected", "user_id", user.ID)

	go func() {
		// Clients only send pings and acks; the read loop exists to
		// notice the close.
		err := conn.Listen(nil)
		if err != nil {
			f.l.Debug(ctx, "websocket listen ended", "user_id", user.ID, "err", err.Error())
		}
		_ = f.hub.Delete(user.ID)
	}()
}

// PushNodeEvent fans a node change out to every connected client.
func (f *Feed) PushNodeEvent(ctx context.Context, msg models.NodeEventMessage) error {
	f.hub.Broadcast(frame{Kind: "node", Payload: msg})
	return nil
}

// PushLedgerEvent delivers a wallet movement to its account holder. A
// holder who is not connected is not an error; they will see the
// transaction in their history.
func (f *Feed) PushLedgerEvent(ctx context.Context, msg models.LedgerEventMessage) error {
	err := f.hub.SendTo(msg.AccountID, frame{Kind: "ledger", Payload: msg})
	if err != nil && !errors.Is(err, ws.ErrConnIsNotFound) {
		f.l.Debug(ctx, "ledger push failed", "account_id", msg.AccountID, "err", err.Error())
	}
	return nil
}

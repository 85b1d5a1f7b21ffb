package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/DoyleJ11/mlbb-draft/internal/hub"
	"github.com/DoyleJ11/mlbb-draft/internal/lobby"
	"github.com/DoyleJ11/mlbb-draft/internal/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Options struct {
	// OriginPatterns is passed to websocket.Accept. Empty means same-origin only.
	OriginPatterns []string
	WriteTimeout   time.Duration
	OutboxSize     int
	ReadLimit      int64

	// Inbound events per second and burst allowed per connection.
	EventRate  rate.Limit
	EventBurst int
}

func DefaultOptions() Options {
	return Options{
		WriteTimeout: 3 * time.Second,
		OutboxSize:   32,
		ReadLimit:    16 << 10,
		EventRate:    10,
		EventBurst:   20,
	}
}

// Handler serves one draft board client per connection. The "side" query
// parameter (blue, red, admin) sets the client's role; anything else watches.
func Handler(l *lobby.Lobby, opts Options, log *zap.Logger) http.HandlerFunc {
	log = log.Named("ws")
	return func(w http.ResponseWriter, r *http.Request) {
		role := lobby.ParseRole(r.URL.Query().Get("side"))

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		conn.SetReadLimit(opts.ReadLimit)

		clientID := uuid.NewString()
		clog := log.With(zap.String("client_id", clientID), zap.String("role", string(role)))

		out := make(chan hub.Update, opts.OutboxSize)
		if err := l.Send(r.Context(), lobby.Join{ClientID: clientID, Outbox: out}); err != nil {
			clog.Warn("could not join lobby", zap.Error(err))
			return
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = l.Send(ctx, lobby.Leave{ClientID: clientID})
		}()
		clog.Info("client connected")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go writeLoop(writeCtx, conn, out, opts.WriteTimeout, clog)

		// Reader loop
		limiter := rate.NewLimiter(opts.EventRate, opts.EventBurst)
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					clog.Info("client disconnected")
				default:
					clog.Debug("read ended", zap.Error(err))
				}
				return
			}

			if !limiter.Allow() {
				clog.Debug("dropping event over rate limit")
				continue
			}

			cmd, err := types.DecodeClientMessage(data)
			if err != nil {
				// No error channel in the protocol: malformed events are dropped
				clog.Debug("dropping malformed event", zap.Error(err))
				continue
			}

			if err := l.Send(r.Context(), lobby.FromClient{ClientID: clientID, Role: role, Cmd: cmd}); err != nil {
				return
			}
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan hub.Update, timeout time.Duration, log *zap.Logger) {
	for u := range out {
		payload, err := types.EncodeUpdate(u)
		if err != nil {
			log.Error("encode update", zap.Error(err))
			continue
		}
		wctx, cancel := context.WithTimeout(ctx, timeout)
		err = conn.Write(wctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			log.Debug("write failed", zap.Error(err))
			return
		}
	}

	// Outbox closed by the hub: too slow, or the server is stopping
	if ctx.Err() == nil {
		conn.Close(websocket.StatusGoingAway, "update stream closed")
	}
}

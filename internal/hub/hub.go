// Package hub fans draft updates out to every connected subscriber in the
// order they were published.
package hub

import (
	"context"

	"github.com/DoyleJ11/mlbb-draft/internal/engine"
	"go.uber.org/zap"
)

type UpdateKind string

const (
	KindState UpdateKind = "update_state"
	KindTimer UpdateKind = "timer_update"
)

// Update is one outbound message. State is set for KindState, Timer for KindTimer.
type Update struct {
	Kind    UpdateKind
	Version int
	State   engine.State
	Timer   int
}

type HubMsg interface{ isHubMsg() }

// Subscribe registers Outbox and delivers Initial to it before any later Publish.
type Subscribe struct {
	ClientID string
	Outbox   chan Update
	Initial  Update
}

type Unsubscribe struct {
	ClientID string
}

type Publish struct {
	Update Update
}

type Stats struct {
	Reply chan int
}

type ShutdownHub struct{}

func (Subscribe) isHubMsg()   {}
func (Unsubscribe) isHubMsg() {}
func (Publish) isHubMsg()     {}
func (Stats) isHubMsg()       {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox   chan HubMsg
	clients map[string]chan Update
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 256),
		clients: make(map[string]chan Update),
		log:     log.Named("hub"),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub has shut down and closed every outbox.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Subscribe:
				if old, ok := h.clients[msg.ClientID]; ok {
					close(old)
				}
				h.clients[msg.ClientID] = msg.Outbox
				h.send(msg.ClientID, msg.Outbox, msg.Initial)

			case Unsubscribe:
				if ch, ok := h.clients[msg.ClientID]; ok {
					close(ch)
					delete(h.clients, msg.ClientID)
				}

			case Publish:
				for id, ch := range h.clients {
					h.send(id, ch, msg.Update)
				}

			case Stats:
				msg.Reply <- len(h.clients)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) send(id string, ch chan Update, u Update) {
	select {
	case ch <- u:
		//ok
	default:
		// Client is slow/full - drop them.
		h.log.Warn("dropping slow subscriber", zap.String("client_id", id))
		close(ch)
		delete(h.clients, id)
	}
}

func (h *Hub) shutdown() {
	for id, ch := range h.clients {
		close(ch) // Tell client no more updates
		delete(h.clients, id)
	}
	h.cancel()
}

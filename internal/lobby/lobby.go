// Package lobby owns the one live draft. Every mutation goes through a single
// goroutine, which also decides when the turn timer runs.
package lobby

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/mlbb-draft/internal/engine"
	"github.com/DoyleJ11/mlbb-draft/internal/hub"
	"github.com/DoyleJ11/mlbb-draft/internal/turntimer"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("lobby closed")

type Msg interface{ isLobbyMsg() }

type FromClient struct {
	ClientID string
	Role     Role
	Cmd      engine.Command
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan hub.Update // where this client wants to receive updates
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

// TimerFired is posted by the turn timer. Epoch is the countdown it belongs to.
type TimerFired struct{ Epoch uint64 }

func (TimerFired) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type View struct {
	Version      int
	Epoch        uint64
	TimerRunning bool
	State        engine.State
	History      []engine.Event
}

type Options struct {
	Rules        engine.Rules
	Clock        clockwork.Clock
	TickInterval time.Duration
	Logger       *zap.Logger

	// OnExpire runs inside the lobby goroutine when a turn's countdown reaches
	// zero. Nil means expiry has no effect beyond the zero shown to clients.
	OnExpire func(engine.State)
}

type Lobby struct {
	inbox    chan Msg
	state    engine.State
	version  int
	epoch    uint64
	history  []engine.Event
	hub      *hub.Hub
	timer    *turntimer.Timer
	log      *zap.Logger
	onExpire func(engine.State)
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewLobby(parent context.Context, h *hub.Hub, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	interval := opts.TickInterval
	if interval <= 0 {
		interval = time.Second
	}

	l := &Lobby{
		inbox:    make(chan Msg, 64), // Small buffer
		state:    engine.NewEmptyState(opts.Rules),
		hub:      h,
		log:      log.Named("lobby"),
		onExpire: opts.OnExpire,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	l.timer = turntimer.New(opts.Clock, interval, l.postTick)

	go l.loop()
	return l
}

// Expose the inbox so tests or the WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed when the lobby goroutine has exited.
func (l *Lobby) Done() <-chan struct{} { return l.done }

// Send delivers m unless ctx ends or the lobby is gone first.
func (l *Lobby) Send(ctx context.Context, m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot asks the lobby goroutine for its current view.
func (l *Lobby) Snapshot(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := l.Send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-l.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// The hub delivers the current snapshot before any later broadcast
				l.toHub(hub.Subscribe{ClientID: msg.ClientID, Outbox: msg.Outbox, Initial: l.stateUpdate()})
				l.log.Debug("client joined", zap.String("client_id", msg.ClientID))

			case Leave:
				l.toHub(hub.Unsubscribe{ClientID: msg.ClientID})
				l.log.Debug("client left", zap.String("client_id", msg.ClientID))

			case FromClient:
				cmd, err := Resolve(msg.Role, l.state, msg.Cmd)
				if err != nil {
					l.log.Debug("command not permitted",
						zap.String("client_id", msg.ClientID),
						zap.String("role", string(msg.Role)),
						zap.String("command", string(msg.Cmd.Type)))
					break
				}
				l.apply(msg.ClientID, cmd)

			case TimerFired:
				if msg.Epoch != l.epoch {
					// Countdown was replaced by an advance or reset since this tick was sent
					l.log.Debug("dropping stale tick", zap.Uint64("tick_epoch", msg.Epoch), zap.Uint64("epoch", l.epoch))
					break
				}
				l.apply("", engine.Command{Type: engine.CmdTimerTick})

			case GetState:
				msg.Reply <- View{
					Version:      l.version,
					Epoch:        l.epoch,
					TimerRunning: l.timer.Running(),
					State:        l.state.Clone(),
					History:      append([]engine.Event(nil), l.history...),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) apply(clientID string, cmd engine.Command) {
	events, newState, err := engine.Apply(l.state, cmd)
	if err == nil {
		err = engine.Validate(newState)
	}
	if err != nil {
		if engine.IsRejection(err) {
			if errors.Is(err, engine.ErrAlreadyStarted) {
				l.log.Info("draft already started, ignoring", zap.String("client_id", clientID))
				return
			}
			l.log.Debug("command rejected",
				zap.String("client_id", clientID),
				zap.String("command", string(cmd.Type)),
				zap.String("team", string(cmd.Team)),
				zap.String("hero", string(cmd.Hero.ID)),
				zap.Int("step", l.state.StepIndex),
				zap.Error(err))
			return
		}
		// State stays as it was; a broken draft is worse than a stuck one
		l.log.Error("draft state invariant violated, command aborted",
			zap.String("command", string(cmd.Type)),
			zap.Int("step", l.state.StepIndex),
			zap.Error(err))
		return
	}

	l.state = newState
	if cmd.Type == engine.CmdResetDraft {
		l.history = l.history[:0]
	}
	l.history = append(l.history, events...)

	for _, evt := range events {
		switch evt.Type {
		case engine.EvtTimerStarted:
			l.epoch++
			l.timer.Start(l.ctx, l.epoch)
		case engine.EvtDraftCompleted:
			l.epoch++
			l.timer.Stop()
			l.log.Info("draft completed")
		case engine.EvtDraftReset:
			l.epoch++
			l.timer.Stop()
			l.log.Info("draft reset", zap.String("client_id", clientID))
		case engine.EvtTimerExpired:
			l.timer.Stop()
			l.log.Info("turn timer expired", zap.Int("step", evt.Step))
			if l.onExpire != nil {
				l.onExpire(l.state.Clone())
			}
		case engine.EvtDraftStarted:
			l.log.Info("draft started", zap.String("client_id", clientID))
		case engine.EvtHeroBanned, engine.EvtHeroPicked:
			l.log.Info("hero locked",
				zap.String("event", string(evt.Type)),
				zap.String("team", string(evt.Team)),
				zap.String("hero", string(evt.Hero.ID)),
				zap.Int("step", evt.Step))
		}
	}

	if cmd.Type == engine.CmdTimerTick {
		l.toHub(hub.Publish{Update: hub.Update{Kind: hub.KindTimer, Timer: l.state.Timer}})
		return
	}
	l.version++
	l.toHub(hub.Publish{Update: l.stateUpdate()})
}

func (l *Lobby) stateUpdate() hub.Update {
	return hub.Update{Kind: hub.KindState, Version: l.version, State: l.state.Clone()}
}

func (l *Lobby) toHub(m hub.HubMsg) {
	select {
	case l.hub.Inbox() <- m:
	case <-l.hub.Done():
	case <-l.ctx.Done():
	}
}

// postTick is the timer sink. It runs on the timer goroutine.
func (l *Lobby) postTick(ctx context.Context, tick turntimer.Tick) {
	select {
	case l.inbox <- TimerFired{Epoch: tick.Epoch}:
	case <-ctx.Done():
	}
}

func (l *Lobby) shutdown() {
	l.timer.Stop()
	l.cancel()
	l.log.Info("lobby stopped", zap.Int("version", l.version))
}

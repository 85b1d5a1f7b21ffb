// Package types holds the JSON messages exchanged with draft board clients.
//
// Client -> Server
//
//	start_draft:   {}
//	hero_selected: hero, team     (locks immediately)
//	hero_hover:    hero, team     (provisional, shown as tempHover)
//	confirm_lock:  {}             (locks the hovered hero)
//	reset_draft:   {}
//
// Any of them may carry "step" to pin the request to a step index.
//
// Server -> Client
//
//	update_state: version, state  (on connect and after every change)
//	timer_update: timer           (every countdown tick)
package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/mlbb-draft/internal/engine"
	"github.com/DoyleJ11/mlbb-draft/internal/hub"
)

var ErrUnknownType = errors.New("unknown message type")

const (
	MsgStartDraft   = "start_draft"
	MsgHeroSelected = "hero_selected"
	MsgHeroHover    = "hero_hover"
	MsgConfirmLock  = "confirm_lock"
	MsgResetDraft   = "reset_draft"
)

type ClientMessage struct {
	Type string       `json:"type"`
	Hero *engine.Hero `json:"hero,omitempty"`
	Team string       `json:"team,omitempty"`
	Step *int         `json:"step,omitempty"`
}

type ServerMessage struct {
	Type    string        `json:"type"` // "update_state" | "timer_update"
	Version int           `json:"version,omitempty"`
	State   *engine.State `json:"state,omitempty"`
	Timer   *int          `json:"timer,omitempty"`
}

// DecodeClientMessage parses raw and maps it to an engine command. The team in
// the payload is carried as asserted; the lobby decides who may act.
func DecodeClientMessage(raw []byte) (engine.Command, error) {
	var cm ClientMessage
	if err := json.Unmarshal(raw, &cm); err != nil {
		return engine.Command{}, fmt.Errorf("decode client message: %w", err)
	}
	return ToEngineCommand(cm)
}

func ToEngineCommand(m ClientMessage) (engine.Command, error) {
	cmd := engine.Command{Team: engine.Team(m.Team), Step: m.Step}
	if m.Hero != nil {
		cmd.Hero = *m.Hero
	}

	switch m.Type {
	case MsgStartDraft:
		cmd.Type = engine.CmdStartDraft
	case MsgHeroSelected:
		cmd.Type = engine.CmdLockHero
	case MsgHeroHover:
		cmd.Type = engine.CmdHoverHero
	case MsgConfirmLock:
		cmd.Type = engine.CmdConfirmHover
	case MsgResetDraft:
		cmd.Type = engine.CmdResetDraft
	default:
		return engine.Command{}, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}

	if (cmd.Type == engine.CmdLockHero || cmd.Type == engine.CmdHoverHero) && cmd.Hero.ID == "" {
		return engine.Command{}, fmt.Errorf("%s: %w", m.Type, engine.ErrInvalidHero)
	}
	return cmd, nil
}

// EncodeUpdate renders a hub update as the message clients expect.
func EncodeUpdate(u hub.Update) ([]byte, error) {
	msg := ServerMessage{Type: string(u.Kind)}
	switch u.Kind {
	case hub.KindState:
		state := u.State
		msg.Version = u.Version
		msg.State = &state
	case hub.KindTimer:
		timer := u.Timer
		msg.Timer = &timer
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, u.Kind)
	}
	return json.Marshal(msg)
}

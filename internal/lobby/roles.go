package lobby

import (
	"errors"
	"strings"

	"github.com/DoyleJ11/mlbb-draft/internal/engine"
)

var ErrNotPermitted = errors.New("role may not issue this command")

// Role is the side a client claims when it connects. It is trusted as asserted.
type Role string

const (
	RoleBlue      Role = "blue"
	RoleRed       Role = "red"
	RoleAdmin     Role = "admin"
	RoleSpectator Role = "spectator"
)

func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleBlue:
		return RoleBlue
	case RoleRed:
		return RoleRed
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleSpectator
	}
}

// Resolve turns a client command into the command the engine sees. Team sides
// always act as themselves, the admin acts for whichever team is on the clock,
// and only the admin may start or reset the draft.
func Resolve(role Role, s engine.State, cmd engine.Command) (engine.Command, error) {
	switch cmd.Type {
	case engine.CmdStartDraft, engine.CmdResetDraft:
		if role != RoleAdmin {
			return cmd, ErrNotPermitted
		}
		return cmd, nil

	case engine.CmdHoverHero, engine.CmdLockHero, engine.CmdConfirmHover:
		switch role {
		case RoleBlue:
			cmd.Team = engine.TeamBlue
		case RoleRed:
			cmd.Team = engine.TeamRed
		case RoleAdmin:
			if step, done := engine.CurrentStep(s); !done {
				cmd.Team = step.Team
			}
		default:
			return cmd, ErrNotPermitted
		}
		return cmd, nil

	default:
		return cmd, ErrNotPermitted
	}
}

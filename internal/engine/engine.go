package engine

import (
	"errors"
	"fmt"
)

var ErrWrongTurn = errors.New("invalid turn")
var ErrHeroUnavailable = errors.New("hero already banned or picked")
var ErrInvalidHero = errors.New("hero id required")
var ErrNotRunning = errors.New("draft not running")
var ErrAlreadyStarted = errors.New("draft already started")
var ErrStaleStep = errors.New("command targets a past step")
var ErrNoPendingHover = errors.New("no hovered hero to confirm")
var ErrTimerExpired = errors.New("turn timer already at zero")
var ErrUnsupportedCommand = errors.New("unsupported command")

// ErrCorruptState is returned when the state itself is inconsistent. Unlike the
// other errors it signals a bug, not a rejected command.
var ErrCorruptState = errors.New("corrupt draft state")

// IsRejection reports whether err is an ordinary refusal of a command that the
// caller should drop silently.
func IsRejection(err error) bool {
	return err != nil && !errors.Is(err, ErrCorruptState)
}

type Team string

const (
	TeamBlue Team = "blue"
	TeamRed  Team = "red"
)

type Action string

const (
	ActionBan  Action = "ban"
	ActionPick Action = "pick"
)

type Phase string

const (
	PhaseBan1  Phase = "ban1"
	PhasePick1 Phase = "pick1"
	PhaseBan2  Phase = "ban2"
	PhasePick2 Phase = "pick2"
	PhaseDone  Phase = "done"
)

type TurnStep struct {
	Team   Team
	Action Action
}

// State is the draft session snapshot. JSON names match what the draft board
// client renders.
type State struct {
	BluePicks    []Hero `json:"blueTeam"`
	RedPicks     []Hero `json:"redTeam"`
	BlueBans     []Hero `json:"blueBans"`
	RedBans      []Hero `json:"redBans"`
	StepIndex    int    `json:"stepIndex"`
	Phase        Phase  `json:"phase"`
	PendingHover *Hero  `json:"tempHover"`
	PendingTeam  Team   `json:"hoverTeam,omitempty"`
	Timer        int    `json:"timer"`
	Started      bool   `json:"started"`
	Finished     bool   `json:"finished"`
	Rules        Rules  `json:"rules"`
}

type Rules struct {
	TurnSeconds int `json:"turnSeconds"`
}

type CommandType string

const (
	CmdStartDraft   CommandType = "StartDraft"
	CmdHoverHero    CommandType = "HoverHero"
	CmdLockHero     CommandType = "LockHero"
	CmdConfirmHover CommandType = "ConfirmHover"
	CmdResetDraft   CommandType = "ResetDraft"
	CmdTimerTick    CommandType = "TimerTick"
)

/*
	CmdStartDraft   -> EvtDraftStarted -> EvtTimerStarted
	CmdHoverHero    -> EvtHeroHovered
	CmdLockHero     -> EvtHeroBanned|EvtHeroPicked -> EvtTurnAdvanced -> EvtTimerStarted
	                                               -> EvtDraftCompleted (last step)
	CmdConfirmHover -> same as CmdLockHero, using the hovered hero
	CmdResetDraft   -> EvtDraftReset
	CmdTimerTick    -> EvtTimerTicked (-> EvtTimerExpired when it hits zero)
*/

// Command is a request against the draft. Team is the acting team after role
// resolution. Step, when set, pins the command to a step index so a request
// sent for an earlier turn is not applied to a later one.
type Command struct {
	Type CommandType
	Team Team
	Hero Hero
	Step *int
}

type EventType string

const (
	EvtDraftStarted   EventType = "DraftStarted"
	EvtHeroHovered    EventType = "HeroHovered"
	EvtHeroBanned     EventType = "HeroBanned"
	EvtHeroPicked     EventType = "HeroPicked"
	EvtTurnAdvanced   EventType = "TurnAdvanced"
	EvtTimerStarted   EventType = "TimerStarted"
	EvtTimerTicked    EventType = "TimerTicked"
	EvtTimerExpired   EventType = "TimerExpired"
	EvtDraftCompleted EventType = "DraftCompleted"
	EvtDraftReset     EventType = "DraftReset"
)

type Event struct {
	Type    EventType `json:"type"`
	Team    Team      `json:"team,omitempty"`
	Hero    Hero      `json:"hero"`
	Step    int       `json:"step"`
	Seconds int       `json:"seconds,omitempty"`
}

// Apply validates cmd against s and returns the resulting events and state.
// s is never modified; on error the returned state is s.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdStartDraft:
		if s.Started {
			return nil, s, ErrAlreadyStarted
		}
		newState := s.Clone()
		newState.Started = true
		newState.Timer = s.Rules.TurnSeconds
		newState.Phase = DerivePhase(newState.StepIndex)

		events := []Event{
			{Type: EvtDraftStarted, Step: newState.StepIndex},
			{Type: EvtTimerStarted, Step: newState.StepIndex, Seconds: newState.Timer},
		}
		return events, newState, nil

	case CmdHoverHero:
		step, err := activeStep(s, cmd)
		if err != nil {
			return nil, s, err
		}
		if step.Team != cmd.Team {
			return nil, s, ErrWrongTurn
		}
		if err := checkHero(s, cmd.Hero); err != nil {
			return nil, s, err
		}

		newState := s.Clone()
		hero := cmd.Hero
		newState.PendingHover = &hero
		newState.PendingTeam = step.Team
		return []Event{{Type: EvtHeroHovered, Team: step.Team, Hero: hero, Step: s.StepIndex}}, newState, nil

	case CmdLockHero:
		return commit(s, cmd, cmd.Hero)

	case CmdConfirmHover:
		if _, err := activeStep(s, cmd); err != nil {
			return nil, s, err
		}
		if s.PendingHover == nil {
			return nil, s, ErrNoPendingHover
		}
		return commit(s, cmd, *s.PendingHover)

	case CmdResetDraft:
		return []Event{{Type: EvtDraftReset}}, NewEmptyState(s.Rules), nil

	case CmdTimerTick:
		if _, err := activeStep(s, cmd); err != nil {
			return nil, s, err
		}
		if s.Timer <= 0 {
			return nil, s, ErrTimerExpired
		}

		newState := s.Clone()
		newState.Timer--
		events := []Event{{Type: EvtTimerTicked, Step: s.StepIndex, Seconds: newState.Timer}}
		if newState.Timer == 0 {
			events = append(events, Event{Type: EvtTimerExpired, Step: s.StepIndex})
		}
		return events, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// commit locks hero in for the active step and advances the draft.
func commit(s State, cmd Command, hero Hero) ([]Event, State, error) {
	step, err := activeStep(s, cmd)
	if err != nil {
		return nil, s, err
	}

	// Turn must match the team on the clock
	if step.Team != cmd.Team {
		return nil, s, ErrWrongTurn
	}

	// Clients filter used heroes too, but they are not trusted
	if err := checkHero(s, hero); err != nil {
		return nil, s, err
	}

	newState := s.Clone()
	slot := newState.collection(step.Team, step.Action)
	*slot = append(*slot, hero)
	newState.PendingHover = nil
	newState.PendingTeam = ""

	evt := EvtHeroPicked
	if step.Action == ActionBan {
		evt = EvtHeroBanned
	}
	events := []Event{{Type: evt, Team: step.Team, Hero: hero, Step: s.StepIndex}}

	newState.StepIndex++
	newState.Phase = DerivePhase(newState.StepIndex)

	// Completion: the timer keeps whatever it showed when the last hero locked in
	if newState.StepIndex == len(GameOrder) {
		newState.Finished = true
		return append(events, Event{Type: EvtDraftCompleted, Step: newState.StepIndex}), newState, nil
	}

	newState.Timer = newState.Rules.TurnSeconds
	events = append(events,
		Event{Type: EvtTurnAdvanced, Step: newState.StepIndex},
		Event{Type: EvtTimerStarted, Step: newState.StepIndex, Seconds: newState.Timer},
	)
	return events, newState, nil
}

func activeStep(s State, cmd Command) (TurnStep, error) {
	if !s.Started || s.Finished {
		return TurnStep{}, ErrNotRunning
	}
	step, done := CurrentStep(s)
	if done || s.StepIndex < 0 {
		return TurnStep{}, fmt.Errorf("%w: step index %d on a running draft", ErrCorruptState, s.StepIndex)
	}
	if cmd.Step != nil && *cmd.Step != s.StepIndex {
		return TurnStep{}, ErrStaleStep
	}
	return step, nil
}

func checkHero(s State, hero Hero) error {
	if hero.ID == "" {
		return ErrInvalidHero
	}
	if s.Used(hero.ID) {
		return ErrHeroUnavailable
	}
	return nil
}

// Reduce rebuilds a state by replaying events from an empty draft.
func Reduce(rules Rules, events []Event) State {
	s := NewEmptyState(rules)
	for _, event := range events {
		switch event.Type {
		case EvtDraftStarted:
			s.Started = true
		case EvtHeroHovered:
			hero := event.Hero
			s.PendingHover = &hero
			s.PendingTeam = event.Team
		case EvtHeroBanned:
			slot := s.collection(event.Team, ActionBan)
			*slot = append(*slot, event.Hero)
			s.PendingHover, s.PendingTeam = nil, ""
		case EvtHeroPicked:
			slot := s.collection(event.Team, ActionPick)
			*slot = append(*slot, event.Hero)
			s.PendingHover, s.PendingTeam = nil, ""
		case EvtTurnAdvanced:
			s.StepIndex = event.Step
		case EvtDraftCompleted:
			s.StepIndex = event.Step
			s.Finished = true
		case EvtTimerStarted, EvtTimerTicked:
			s.Timer = event.Seconds
		case EvtDraftReset:
			s = NewEmptyState(rules)
		}
	}

	s.Phase = DerivePhase(s.StepIndex)
	return s
}

// Validate checks the structural invariants of s and returns an error wrapping
// ErrCorruptState if any is broken.
func Validate(s State) error {
	if s.StepIndex < 0 || s.StepIndex > len(GameOrder) {
		return fmt.Errorf("%w: step index %d out of range", ErrCorruptState, s.StepIndex)
	}
	if s.Finished != (s.StepIndex == len(GameOrder)) {
		return fmt.Errorf("%w: finished=%v at step %d", ErrCorruptState, s.Finished, s.StepIndex)
	}
	if !s.Started && s.StepIndex != 0 {
		return fmt.Errorf("%w: step %d on a draft that never started", ErrCorruptState, s.StepIndex)
	}

	// Each collection must hold exactly as many heroes as the order assigned it so far
	want := map[TurnStep]int{}
	for _, step := range GameOrder[:s.StepIndex] {
		want[step]++
	}
	for _, team := range []Team{TeamBlue, TeamRed} {
		for _, action := range []Action{ActionBan, ActionPick} {
			got := len(*s.collection(team, action))
			if got != want[TurnStep{Team: team, Action: action}] {
				return fmt.Errorf("%w: %s %s has %d heroes at step %d", ErrCorruptState, team, action, got, s.StepIndex)
			}
		}
	}

	seen := map[HeroID]bool{}
	for _, hero := range s.allHeroes() {
		if seen[hero.ID] {
			return fmt.Errorf("%w: hero %q used twice", ErrCorruptState, hero.ID)
		}
		seen[hero.ID] = true
	}
	return nil
}

package engine

func NewEmptyState(rules Rules) State {
	s := State{
		BluePicks: []Hero{},
		RedPicks:  []Hero{},
		BlueBans:  []Hero{},
		RedBans:   []Hero{},
		Timer:     rules.TurnSeconds,
		Rules:     rules,
		StepIndex: 0,
	}
	s.Phase = DerivePhase(s.StepIndex) // Ensure "ban1" shows up on join
	return s
}

// Clone returns a deep copy so snapshots handed to subscribers never alias the
// live state.
func (s State) Clone() State {
	c := s
	c.BluePicks = cloneHeroes(s.BluePicks)
	c.RedPicks = cloneHeroes(s.RedPicks)
	c.BlueBans = cloneHeroes(s.BlueBans)
	c.RedBans = cloneHeroes(s.RedBans)
	if s.PendingHover != nil {
		hero := cloneHero(*s.PendingHover)
		c.PendingHover = &hero
	}
	return c
}

// Used reports whether the hero has already been banned or picked by either team.
func (s State) Used(id HeroID) bool {
	for _, hero := range s.allHeroes() {
		if hero.ID == id {
			return true
		}
	}
	return false
}

// ActionCount is the number of bans and picks committed so far.
func (s State) ActionCount() int {
	return len(s.BluePicks) + len(s.RedPicks) + len(s.BlueBans) + len(s.RedBans)
}

func (s *State) collection(team Team, action Action) *[]Hero {
	switch {
	case team == TeamBlue && action == ActionPick:
		return &s.BluePicks
	case team == TeamRed && action == ActionPick:
		return &s.RedPicks
	case team == TeamBlue:
		return &s.BlueBans
	default:
		return &s.RedBans
	}
}

func (s State) allHeroes() []Hero {
	all := make([]Hero, 0, s.ActionCount())
	all = append(all, s.BlueBans...)
	all = append(all, s.RedBans...)
	all = append(all, s.BluePicks...)
	all = append(all, s.RedPicks...)
	return all
}

func cloneHeroes(heroes []Hero) []Hero {
	out := make([]Hero, 0, len(heroes))
	for _, hero := range heroes {
		out = append(out, cloneHero(hero))
	}
	return out
}

func cloneHero(h Hero) Hero {
	if h.Roles != nil {
		h.Roles = append([]string(nil), h.Roles...)
	}
	return h
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// CurrentStep returns the step on the clock, or done=true once the order is exhausted.
func CurrentStep(s State) (TurnStep, bool) {
	if s.StepIndex < 0 || s.StepIndex >= len(GameOrder) {
		return TurnStep{}, true
	}
	return GameOrder[s.StepIndex], false
}

func DerivePhase(cursor int) Phase {
	if cursor >= len(GameOrder) {
		return PhaseDone
	} else if cursor >= 0 && cursor <= 5 {
		return PhaseBan1
	} else if cursor > 5 && cursor <= 11 {
		return PhasePick1
	} else if cursor > 11 && cursor <= 15 {
		return PhaseBan2
	} else {
		return PhasePick2
	}
}

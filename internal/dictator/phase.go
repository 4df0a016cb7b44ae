package dictator

// Phase is the engine's position within a round.
type Phase int

const (
	PhaseIdle            Phase = iota // constructed, not started
	PhaseCountdown                    // waiting for the prompt; presses are early
	PhasePromptAppearing              // prompt animating in; presses are still early
	PhasePromptActive                 // reaction window open
	PhaseEliminating                  // showing who was knocked out
	PhaseRoundEnd                     // pause before the next round
	PhaseGameEnd                      // terminal
)

var phaseNames = map[Phase]string{
	PhaseIdle:            "idle",
	PhaseCountdown:       "countdown",
	PhasePromptAppearing: "prompt_appearing",
	PhasePromptActive:    "prompt_active",
	PhaseEliminating:     "eliminating",
	PhaseRoundEnd:        "round_end",
	PhaseGameEnd:         "game_end",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

package session

type State int

const (
	StateLobby State = iota
	StateSelection
	StateLoading
	StatePlaying
	StateRoundResults
	StateGameResults
)

var stateNames = map[State]string{
	StateLobby:        "lobby",
	StateSelection:    "minigame_selection",
	StateLoading:      "minigame_loading",
	StatePlaying:      "minigame_playing",
	StateRoundResults: "round_results",
	StateGameResults:  "game_results",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

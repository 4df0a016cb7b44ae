package session

import "github.com/playperu/animaparty/internal/party"

// Observer receives fire-and-forget notifications from the session loop.
// Implementations must not call back into the session.
type Observer interface {
	RoundStateChanged(round, totalRounds int, minigame string)
	RoundResultsReady(round int, result party.RoundResult, winner int)
	SessionEnded(score party.Scores, winner int)
}

type NopObserver struct{}

func (NopObserver) RoundStateChanged(int, int, string)            {}
func (NopObserver) RoundResultsReady(int, party.RoundResult, int) {}
func (NopObserver) SessionEnded(party.Scores, int)                {}

// Observers fans a notification out to several observers in order.
type Observers []Observer

func (o Observers) RoundStateChanged(round, totalRounds int, minigame string) {
	for _, ob := range o {
		ob.RoundStateChanged(round, totalRounds, minigame)
	}
}

func (o Observers) RoundResultsReady(round int, result party.RoundResult, winner int) {
	for _, ob := range o {
		ob.RoundResultsReady(round, result.Clone(), winner)
	}
}

func (o Observers) SessionEnded(score party.Scores, winner int) {
	for _, ob := range o {
		ob.SessionEnded(score.Clone(), winner)
	}
}

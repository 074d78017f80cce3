/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

// Phase is the position of a room in its round cycle.
type Phase string

const (
	PhaseWaiting          Phase = "waiting"
	PhaseReady            Phase = "ready"
	PhaseRoundStarted     Phase = "round_started"
	PhaseVotingAccusation Phase = "voting_accusation"
	PhaseVotingGuess      Phase = "voting_guess"
	PhaseReviewResults    Phase = "review_results"
)

// inRound reports whether an accused participant is currently in play.
func (p Phase) inRound() bool {
	switch p {
	case PhaseRoundStarted, PhaseVotingAccusation, PhaseVotingGuess:
		return true
	}
	return false
}

// canAdvance reports whether a new round may be dealt from p.
func (p Phase) canAdvance() bool {
	switch p {
	case PhaseReady, PhaseRoundStarted, PhaseReviewResults:
		return true
	}
	return false
}

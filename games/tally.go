/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"maps"
	"slices"
)

const (
	pointsAccusedEscapes = 2
	pointsRightVote      = 1
	pointsRightGuess     = 1
	pointsWrongGuess     = 2
)

// countVotes returns every target sharing the highest vote count, sorted.
func countVotes(votes map[string]string) (leaders []string, top int) {
	counts := make(map[string]int, len(votes))
	for _, target := range votes {
		counts[target]++
	}

	for target, n := range counts {
		switch {
		case n > top:
			top = n
			leaders = []string{target}
		case n == top:
			leaders = append(leaders, target)
		}
	}
	slices.Sort(leaders)

	return leaders, top
}

// tallyLocked resolves a complete vote. If the room singled out the accused
// they get to guess the secret; otherwise the accused escapes and scoring
// happens immediately. Assumes c.mu is held.
func (c *Coordinator) tallyLocked() {
	s := c.state

	leaders, top := countVotes(s.Votes)
	if len(leaders) == 1 && leaders[0] == s.AccusedID {
		s.Phase = PhaseVotingGuess
		c.opts.Logf("GAMES: Room %s caught the accused with %d votes", s.ID, top)
		return
	}

	s.award(escapeAwards(s))
	s.Phase = PhaseReviewResults
	c.opts.Logf("GAMES: Accused escaped in %s (leaders=%v)", s.ID, leaders)
}

// escapeAwards gives the accused their escape bonus and a point to every
// voter who named them, the accused included.
func escapeAwards(s *State) []Award {
	awards := []Award{{ParticipantID: s.AccusedID, Points: pointsAccusedEscapes}}

	for _, voter := range slices.Sorted(maps.Keys(s.Votes)) {
		if s.Votes[voter] != s.AccusedID {
			continue
		}
		awards = append(awards, Award{ParticipantID: voter, Points: pointsRightVote})
	}

	return awards
}

func guessAwards(s *State, correct bool) []Award {
	if correct {
		return []Award{{ParticipantID: s.AccusedID, Points: pointsRightGuess}}
	}

	var awards []Award
	for _, id := range s.participantIDs() {
		if id == s.AccusedID {
			continue
		}
		awards = append(awards, Award{ParticipantID: id, Points: pointsWrongGuess})
	}

	return awards
}

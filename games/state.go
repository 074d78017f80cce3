/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"maps"
	"slices"
	"time"
)

// Participant holds the data we keep per player in a room.
type Participant struct {
	DisplayName string
	Score       int
	LastSkipAt  time.Time // zero if the participant never skipped
}

// Award is one entry of a scoring event.
type Award struct {
	ParticipantID string `json:"participant_id"`
	Points        int    `json:"points"`
}

// State is the authoritative record for one room. It is only touched while
// the owning Coordinator's lock is held.
type State struct {
	ID                string
	Phase             Phase
	Participants      map[string]*Participant
	RoundWords        []string
	SecretWord        string
	AccusedID         string
	Votes             map[string]string // voter -> target
	LastPointsAwarded []Award
}

func newState(id string) *State {
	return &State{
		ID:           id,
		Phase:        PhaseWaiting,
		Participants: make(map[string]*Participant),
		Votes:        make(map[string]string),
	}
}

// participantIDs returns the roster keys in a stable order.
func (s *State) participantIDs() []string {
	return slices.Sorted(maps.Keys(s.Participants))
}

// award applies points and records them as the latest scoring event.
func (s *State) award(awards []Award) {
	for _, a := range awards {
		if p, ok := s.Participants[a.ParticipantID]; ok {
			p.Score += a.Points
		}
	}
	s.LastPointsAwarded = awards
}

func (s *State) snapshot() *Snapshot {
	roster := make(map[string]ParticipantView, len(s.Participants))
	for id, p := range s.Participants {
		v := ParticipantView{
			Name:  p.DisplayName,
			Score: p.Score,
		}
		if !p.LastSkipAt.IsZero() {
			v.LastSkipAt = p.LastSkipAt.UnixMilli()
		}
		roster[id] = v
	}

	return &Snapshot{
		RoomID:        s.ID,
		Phase:         s.Phase,
		Participants:  roster,
		Words:         slices.Clone(s.RoundWords),
		SecretWord:    s.SecretWord,
		AccusedID:     s.AccusedID,
		Votes:         maps.Clone(s.Votes),
		PointsAwarded: slices.Clone(s.LastPointsAwarded),
	}
}

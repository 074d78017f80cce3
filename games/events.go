/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

// Event types sent to connections.
const (
	EventSnapshot     = "snapshot"      // sent to one connection right after it joins
	EventRoster       = "roster"        // participants changed
	EventState        = "state"         // phase, votes or scores changed
	EventRoundStarted = "round_started" // a new round was dealt
	EventError        = "error"         // a socket action failed, sent to the caller only
)

// ParticipantView is the wire form of a Participant.
type ParticipantView struct {
	Name       string `json:"name"`
	Score      int    `json:"score"`
	LastSkipAt int64  `json:"last_skip_at,omitempty"` // unix milliseconds
}

// Snapshot is a full copy of a room's state at one instant.
type Snapshot struct {
	RoomID        string                     `json:"room_id"`
	Phase         Phase                      `json:"phase"`
	Participants  map[string]ParticipantView `json:"participants"`
	Words         []string                   `json:"words,omitempty"`
	SecretWord    string                     `json:"secret_word,omitempty"`
	AccusedID     string                     `json:"accused_id,omitempty"`
	Votes         map[string]string          `json:"votes,omitempty"`
	PointsAwarded []Award                    `json:"points_awarded,omitempty"`
}

// Event is everything the server pushes over a real-time connection.
// State events embed a Snapshot; error events carry Code and Message.
type Event struct {
	Type string `json:"type"`
	*Snapshot
	Code       Kind   `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// ClientMessage is everything a connection may send.
type ClientMessage struct {
	Type          string `json:"type"`                     // "join", "start", "next", "vote", "guess"
	RoomID        string `json:"room_id,omitempty"`        // join
	ParticipantID string `json:"participant_id,omitempty"` // join
	DisplayName   string `json:"display_name,omitempty"`   // join
	TargetID      string `json:"target_id,omitempty"`      // vote
	Word          string `json:"word,omitempty"`           // guess
}

// Round is returned to the participant who dealt a new round.
type Round struct {
	Words      []string `json:"words"`
	SecretWord string   `json:"secret_word"`
	AccusedID  string   `json:"accused_id"`
}

func errorEvent(err error) Event {
	msg := "an internal error occurred"
	if KindOf(err) != KindInternal {
		msg = err.Error()
	}
	return Event{
		Type:       EventError,
		Code:       KindOf(err),
		Message:    msg,
		RetryAfter: RetryAfter(err),
	}
}

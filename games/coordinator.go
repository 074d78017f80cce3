/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"
)

const (
	defaultWordCount    = 4
	defaultSkipCooldown = 5 * time.Minute
	defaultWordTimeout  = 10 * time.Second
	defaultPingInterval = 10 * time.Second
	defaultQueueSize    = 256
)

// Options configures every room created by a Directory.
type Options struct {
	Words        WordSource
	Clock        Clock
	WordCount    int
	WordTimeout  time.Duration
	SkipCooldown time.Duration
	PingInterval time.Duration
	IdleTimeout  time.Duration // 0 keeps rooms for the life of the process
	QueueSize    int
	Pick         func(n int) int
	Logf         func(format string, args ...any)
}

func (o Options) withDefaults() Options {
	if o.Words == nil {
		o.Words = NewListWords()
	}
	if o.Clock == nil {
		o.Clock = systemClock{}
	}
	if o.WordCount <= 0 {
		o.WordCount = defaultWordCount
	}
	if o.WordTimeout <= 0 {
		o.WordTimeout = defaultWordTimeout
	}
	if o.SkipCooldown <= 0 {
		o.SkipCooldown = defaultSkipCooldown
	}
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	if o.Pick == nil {
		o.Pick = cryptoPick
	}
	if o.Logf == nil {
		o.Logf = func(string, ...any) {}
	}
	return o
}

// Notifier receives every event a room emits. Publish is called with the
// room lock held and must not block.
type Notifier interface {
	Publish(ev Event)
}

// Coordinator owns one room's State and applies actions to it one at a time.
type Coordinator struct {
	mu         sync.Mutex
	state      *State
	dealing    bool
	lastActive time.Time

	opts   Options
	notify Notifier
}

func NewCoordinator(id string, opts Options, notify Notifier) *Coordinator {
	opts = opts.withDefaults()
	return &Coordinator{
		state:      newState(id),
		lastActive: opts.Clock.Now(),
		opts:       opts,
		notify:     notify,
	}
}

func (c *Coordinator) ID() string {
	return c.state.ID
}

// publishLocked assumes c.mu is already held.
func (c *Coordinator) publishLocked(eventType string) {
	c.notify.Publish(Event{Type: eventType, Snapshot: c.state.snapshot()})
}

func (c *Coordinator) touchLocked() time.Time {
	now := c.opts.Clock.Now()
	c.lastActive = now
	return now
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.snapshot()
}

// Has reports whether participantID is on the roster.
func (c *Coordinator) Has(participantID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.state.Participants[participantID]
	return ok
}

func (c *Coordinator) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastActive
}

// Join adds a participant, or renames one that is already present while
// keeping their score. Valid in every phase.
func (c *Coordinator) Join(participantID, displayName string) (*Snapshot, error) {
	if participantID == "" {
		return nil, missing("participant_id")
	}
	if displayName == "" {
		return nil, missing("display_name")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.touchLocked()

	if p, ok := c.state.Participants[participantID]; ok {
		p.DisplayName = displayName
	} else {
		c.state.Participants[participantID] = &Participant{DisplayName: displayName}
		c.opts.Logf("GAMES: Player %q joined %s", displayName, c.state.ID)
	}

	c.publishLocked(EventRoster)

	return c.state.snapshot(), nil
}

// Start moves a waiting room to Ready.
func (c *Coordinator) Start() (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.touchLocked()

	if c.state.Phase != PhaseWaiting {
		return nil, ErrWrongPhase
	}

	c.state.Phase = PhaseReady
	c.opts.Logf("GAMES: Room %s is ready", c.state.ID)

	c.publishLocked(EventState)

	return c.state.snapshot(), nil
}

// AdvanceRound deals a new round. From RoundStarted it counts as a skip and
// is subject to the requester's cooldown.
//
// The word source is called without the lock held. Nothing is written to
// the room until the words have arrived, so a failed call leaves the room
// exactly as it was.
func (c *Coordinator) AdvanceRound(ctx context.Context, participantID string) (*Round, error) {
	if participantID == "" {
		return nil, missing("participant_id")
	}

	from, err := c.reserveRound(participantID)
	if err != nil {
		return nil, err
	}
	skip := from == PhaseRoundStarted

	words, genErr := c.generate(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.dealing = false
	now := c.touchLocked()

	if genErr != nil {
		c.opts.Logf("WORDS: Round for %s aborted: %v", c.state.ID, genErr)
		return nil, upstream(genErr)
	}
	if len(words) == 0 {
		return nil, upstream(ErrWordSource)
	}

	// a departure may have moved the room while words were fetched
	if c.state.Phase != from {
		c.opts.Logf("GAMES: Round for %s dropped, phase moved from %s to %s", c.state.ID, from, c.state.Phase)
		return nil, ErrWrongPhase
	}

	ids := c.state.participantIDs()
	if len(ids) == 0 {
		return nil, ErrRoomEmpty
	}

	s := c.state
	s.Votes = make(map[string]string)
	s.RoundWords = slices.Clone(words)
	s.SecretWord = words[c.opts.Pick(len(words))]
	s.AccusedID = ids[c.opts.Pick(len(ids))]
	s.Phase = PhaseRoundStarted

	if p, ok := s.Participants[participantID]; ok && skip {
		p.LastSkipAt = now
	}

	c.opts.Logf("GAMES: Round dealt in %s by %q (skip=%t)", s.ID, participantID, skip)

	c.publishLocked(EventRoundStarted)

	return &Round{
		Words:      slices.Clone(words),
		SecretWord: s.SecretWord,
		AccusedID:  s.AccusedID,
	}, nil
}

// generate calls the word source with the lock released. A panicking
// source is turned into an error so the room is never left dealing.
func (c *Coordinator) generate(ctx context.Context) (words []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("word source panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.opts.WordTimeout)
	defer cancel()

	return c.opts.Words.Generate(ctx, c.opts.WordCount)
}

// reserveRound validates an advance and marks the room as dealing so that
// neither a second advance nor a vote can interleave with the word call.
// It returns the phase the round is being dealt from.
func (c *Coordinator) reserveRound(participantID string) (from Phase, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.touchLocked()

	p, ok := c.state.Participants[participantID]
	if !ok {
		return "", ErrParticipantNotFound
	}
	if !c.state.Phase.canAdvance() {
		return "", ErrWrongPhase
	}

	if c.state.Phase == PhaseRoundStarted && !p.LastSkipAt.IsZero() {
		if remaining := c.opts.SkipCooldown - now.Sub(p.LastSkipAt); remaining > 0 {
			return "", cooldown(int(math.Ceil(remaining.Seconds())))
		}
	}

	if c.dealing {
		return "", ErrAdvancePending
	}
	c.dealing = true

	return c.state.Phase, nil
}

// CastVote records voterID's accusation. The first vote of a round moves
// the room from RoundStarted to VotingAccusation. Once every participant
// has voted the tally runs as part of the same call. Votes are refused while
// a new round is being dealt.
func (c *Coordinator) CastVote(voterID, targetID string) error {
	if voterID == "" {
		return missing("voter_id")
	}
	if targetID == "" {
		return missing("target_id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.touchLocked()

	s := c.state
	if _, ok := s.Participants[voterID]; !ok {
		return ErrParticipantNotFound
	}
	if _, ok := s.Participants[targetID]; !ok {
		return ErrParticipantNotFound
	}

	if c.dealing {
		return ErrAdvancePending
	}

	switch s.Phase {
	case PhaseRoundStarted:
		s.Phase = PhaseVotingAccusation
	case PhaseVotingAccusation:
	default:
		return ErrWrongPhase
	}

	s.Votes[voterID] = targetID

	if len(s.Votes) >= len(s.Participants) {
		c.tallyLocked()
	}

	c.publishLocked(EventState)

	return nil
}

// GuessSecret lets the accused name the secret word once the room has
// singled them out.
func (c *Coordinator) GuessSecret(participantID, word string) (bool, error) {
	if participantID == "" {
		return false, missing("participant_id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.touchLocked()

	s := c.state
	if s.AccusedID == "" || participantID != s.AccusedID {
		return false, ErrNotAccused
	}
	if s.Phase != PhaseVotingGuess {
		return false, ErrWrongPhase
	}
	if word == "" {
		return false, missing("word")
	}

	correct := word == s.SecretWord
	s.award(guessAwards(s, correct))
	s.Phase = PhaseReviewResults

	c.opts.Logf("GAMES: Accused %q guessed %q in %s (correct=%t)", participantID, word, s.ID, correct)

	c.publishLocked(EventState)

	return correct, nil
}

// Leave removes a participant whose last connection went away. Losing the
// accused abandons the round. Losing anyone else drops their ballot and
// re-checks whether the remaining ballots complete the vote.
func (c *Coordinator) Leave(participantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	p, ok := s.Participants[participantID]
	if !ok {
		return
	}

	c.touchLocked()

	delete(s.Participants, participantID)
	delete(s.Votes, participantID)

	c.opts.Logf("GAMES: Player %q left %s", p.DisplayName, s.ID)

	before := s.Phase
	switch {
	case participantID == s.AccusedID:
		s.AccusedID = ""
		s.Votes = make(map[string]string)
		if s.Phase != PhaseWaiting {
			s.Phase = PhaseReady
		}
	case s.Phase == PhaseVotingAccusation && len(s.Participants) > 0 && len(s.Votes) >= len(s.Participants):
		c.tallyLocked()
	}

	c.publishLocked(EventRoster)
	if s.Phase != before {
		c.publishLocked(EventState)
	}
}

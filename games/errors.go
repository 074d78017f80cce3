/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for the transport layer.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindRateLimited         Kind = "rate_limited"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindMalformedInput      Kind = "malformed_input"
	KindConflict            Kind = "conflict"
	KindInternal            Kind = "internal"
)

// Error is returned by every room operation that fails for a reason the
// caller can act on. None of them are broadcast to the room.
type Error struct {
	Kind       Kind
	Msg        string
	RetryAfter int // seconds, rate_limited only
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and message, so the
// sentinels below work with errors.Is even after RetryAfter or a cause
// has been attached.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == e.Msg
}

var (
	ErrRoomNotFound        = &Error{Kind: KindNotFound, Msg: "room not found"}
	ErrParticipantNotFound = &Error{Kind: KindNotFound, Msg: "participant not in room"}
	ErrNotAccused          = &Error{Kind: KindForbidden, Msg: "only the accused participant may guess"}
	ErrCooldown            = &Error{Kind: KindRateLimited, Msg: "round skip is cooling down"}
	ErrWordSource          = &Error{Kind: KindUpstreamUnavailable, Msg: "word source unavailable"}
	ErrMissingField        = &Error{Kind: KindMalformedInput, Msg: "missing required field"}
	ErrBadMessage          = &Error{Kind: KindMalformedInput, Msg: "malformed message"}
	ErrNotBound            = &Error{Kind: KindMalformedInput, Msg: "connection has not joined a room"}
	ErrAlreadyBound        = &Error{Kind: KindConflict, Msg: "connection already joined a room"}
	ErrWrongPhase          = &Error{Kind: KindConflict, Msg: "action not allowed in current phase"}
	ErrAdvancePending      = &Error{Kind: KindConflict, Msg: "round is already being dealt"}
	ErrRoomEmpty           = &Error{Kind: KindConflict, Msg: "room has no participants"}
)

func missing(field string) error {
	return &Error{Kind: KindMalformedInput, Msg: ErrMissingField.Msg, Err: errors.New(field)}
}

func cooldown(remaining int) error {
	return &Error{Kind: KindRateLimited, Msg: ErrCooldown.Msg, RetryAfter: remaining}
}

func upstream(err error) error {
	var ge *Error
	if errors.As(err, &ge) && ge.Kind == KindUpstreamUnavailable {
		return err
	}
	return &Error{Kind: KindUpstreamUnavailable, Msg: ErrWordSource.Msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for anything that did not
// originate in this package.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindInternal
}

// RetryAfter returns the cooldown carried by a rate-limited error.
func RetryAfter(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.RetryAfter
	}
	return 0
}

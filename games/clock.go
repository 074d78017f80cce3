/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import "time"

//go:generate mockgen -package=mocks -destination=mocks/mock_clock.go github.com/Seednode/partysus/games Clock
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

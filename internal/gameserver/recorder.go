package gameserver

import (
	"context"

	"github.com/cory-johannsen/tilegame/internal/game/session"
)

// MatchRecorder persists match lifecycle events. Recording runs off the
// request path; a failed write must never affect play.
type MatchRecorder interface {
	RecordStart(ctx context.Context, gameID uint32, participants []session.ClientID) error
	RecordFinish(ctx context.Context, gameID uint32) error
}

// NopRecorder discards match records. Used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) RecordStart(context.Context, uint32, []session.ClientID) error { return nil }
func (NopRecorder) RecordFinish(context.Context, uint32) error                    { return nil }

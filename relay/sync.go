// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/picord/picord/lib/clock"
	"github.com/picord/picord/messaging"
)

// SyncConfig configures the /sync long-poll loop.
type SyncConfig struct {
	// Filter is the inline JSON filter sent with every request.
	Filter string

	// Timeout is the long-poll timeout in milliseconds. Default: 30000.
	Timeout int

	// MaxBackoff caps the delay between retries after a failed
	// request. The first retry waits one second. Default: 30 seconds.
	MaxBackoff time.Duration
}

// SyncHandler is called with each /sync response, in order. The next
// poll starts after it returns.
type SyncHandler func(ctx context.Context, response *messaging.SyncResponse)

// idleCloser is implemented by sessions that pool HTTP connections.
type idleCloser interface {
	CloseIdleConnections()
}

// InitialSync performs a /sync with no since token and a zero timeout,
// so the homeserver answers immediately with the current position.
func InitialSync(ctx context.Context, session messaging.Session, filter string) (*messaging.SyncResponse, error) {
	response, err := session.Sync(ctx, messaging.SyncOptions{
		Filter:     filter,
		SetTimeout: true,
	})
	if err != nil {
		return nil, fmt.Errorf("relay: initial sync: %w", err)
	}
	return response, nil
}

// RunSyncLoop long-polls /sync from sinceToken until ctx is cancelled,
// calling handler for every response. Transient errors are retried
// with exponential backoff. A revoked access token (M_UNKNOWN_TOKEN)
// cannot recover by retrying and is returned. Cancellation returns nil.
func RunSyncLoop(ctx context.Context, session messaging.Session, config SyncConfig, sinceToken string, handler SyncHandler, clk clock.Clock, logger *slog.Logger) error {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30000
	}
	maxBackoff := config.MaxBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		response, err := session.Sync(ctx, messaging.SyncOptions{
			Since:      sinceToken,
			Timeout:    timeout,
			SetTimeout: true,
			Filter:     config.Filter,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if messaging.IsMatrixError(err, messaging.ErrCodeUnknownToken) {
				return fmt.Errorf("relay: access token rejected: %w", err)
			}
			if closer, ok := session.(idleCloser); ok {
				closer.CloseIdleConnections()
			}
			logger.Error("sync failed, retrying", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-clk.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = time.Second
		sinceToken = response.NextBatch

		handler(ctx, response)
	}
}

// AcceptInvites joins the invited rooms whose inviter satisfies
// trusted. Returns the room IDs joined.
func AcceptInvites(ctx context.Context, session messaging.Session, invites map[string]messaging.InvitedRoom, trusted func(inviter string) bool, logger *slog.Logger) []string {
	var accepted []string
	for _, roomID := range sortedKeys(invites) {
		inviter, ok := invites[roomID].Inviter(session.UserID())
		if !ok || !trusted(inviter) {
			logger.Info("ignoring room invite", "room_id", roomID, "inviter", inviter)
			continue
		}
		logger.Info("accepting room invite", "room_id", roomID, "inviter", inviter)
		if _, err := session.JoinRoom(ctx, roomID); err != nil {
			logger.Error("failed to accept room invite",
				"room_id", roomID,
				"error", err,
			)
			continue
		}
		accepted = append(accepted, roomID)
	}
	return accepted
}

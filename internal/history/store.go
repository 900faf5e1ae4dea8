// Package history implements component C: the per-session append-only
// message log plus its single rolling summary slot.
package history

import (
	"context"

	"github.com/agentcore/chatcore/pkg/models"
)

// Store is the substrate-agnostic History Store contract.
// Implementations must treat sessions as lazily created: Append creates the
// session on first write rather than requiring an explicit Create call.
type Store interface {
	// Append adds a message to the session's log, assigning it the next
	// sequence number. Returns errs.Storage on substrate failure.
	Append(ctx context.Context, session models.Session, msg *models.Message) error

	// Messages returns the session's log in append order, excluding the
	// summary slot. limit<=0 means "no limit".
	Messages(ctx context.Context, session models.Session, limit int) ([]*models.Message, error)

	// Summary returns the session's single rolling summary, or nil if none
	// has been set.
	Summary(ctx context.Context, session models.Session) (*models.Message, error)

	// SetSummary replaces the session's rolling summary, enforcing the
	// "exactly one SummaryMessage per session" invariant.
	SetSummary(ctx context.Context, session models.Session, summary *models.Message) error

	// Clear removes every message and the summary for a session, without
	// deleting the session identifier itself.
	Clear(ctx context.Context, session models.Session) error

	// Delete removes a single message by id from the session's log. Used to
	// drop messages once they've been folded into the rolling summary, so
	// they are not re-fetched and re-summarized on the next Window call.
	Delete(ctx context.Context, session models.Session, id string) error
}

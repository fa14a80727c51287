// Package inspection implements the weekly inspection draft workflow: the
// controller that keeps per-day checklist answers isolated while the user
// switches days, saves partial weeks as drafts, and submits completed days
// as permanent inspection records.
package inspection

import (
	"context"

	"sitecheck-backend/internal/models"
)

// Backend is the persistence collaborator. It owns stored drafts and every
// inspection record once written.
type Backend interface {
	// UpsertDraft stores the draft. An empty draft.ID creates a new draft.
	// Returns the id the draft is stored under.
	UpsertDraft(ctx context.Context, draft models.WeeklyDraft) (string, error)

	// GetDraft returns nil, nil when the owner has no draft with that id
	GetDraft(ctx context.Context, ownerID, draftID string) (*models.WeeklyDraft, error)

	DeleteDraft(ctx context.Context, draftID string) error

	CreateInspectionRecord(ctx context.Context, kind models.InspectionKind, rec models.InspectionRecord) (string, error)
}

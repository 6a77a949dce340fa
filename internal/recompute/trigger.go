// Package recompute dispatches snapshot rebuilds off the request path.
package recompute

import (
	"context"

	"erp/internal/model"

	"github.com/google/uuid"
)

// Trigger schedules a snapshot rebuild for a project. Implementations must
// not block the caller and never report the rebuild's outcome.
type Trigger interface {
	Enqueue(projectID uuid.UUID, categories ...model.SnapshotCategory)
}

// Recomputer rebuilds the named categories of one project's snapshot; no
// categories means all of them.
type Recomputer interface {
	Recompute(ctx context.Context, projectID uuid.UUID, categories ...model.SnapshotCategory) error
}

// Noop discards every request. It is used by the CLI, which recomputes inline.
type Noop struct{}

func (Noop) Enqueue(uuid.UUID, ...model.SnapshotCategory) {}

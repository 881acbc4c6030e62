package node

import (
	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
)

// qualifyIfAtCapacity advances a forming node that has reached its
// capacity. Returns true when the status changed. Idempotent: evaluating
// an already-qualified node again is a no-op, so the forming→qualified
// transition fires exactly once per node.
func qualifyIfAtCapacity(n *models.RideNode) bool {
	if n.Status == types.NodeForming && n.AtCapacity() {
		n.Status = types.NodeQualified
		return true
	}
	return false
}

// rollbackIfBelowCapacity undoes qualification after a passenger leaves,
// but only while no driver is bound. Called on leave only — a
// force-qualified node sitting below capacity must not be rolled back
// by an unrelated evaluation.
func rollbackIfBelowCapacity(n *models.RideNode) bool {
	if n.Status == types.NodeQualified && !n.AtCapacity() && n.AssignedDriverID == nil {
		n.Status = types.NodeForming
		return true
	}
	return false
}

package monitor

import (
	"devmanager/internal/types"
)

// ComputeOverall folds the critical services' statuses into one verdict.
// Healthy needs every critical service healthy; no healthy critical service
// (including having none at all) is Failed; anything in between is Degraded.
func ComputeOverall(items []Item) types.OverallStatus {
	critical, healthy := 0, 0
	for _, item := range items {
		if !item.Service.Critical {
			continue
		}
		critical++
		if item.Status != nil && item.Status.Icon == types.IconHealthy {
			healthy++
		}
	}

	switch {
	case healthy == 0:
		return types.OverallFailed
	case healthy == critical:
		return types.OverallHealthy
	default:
		return types.OverallDegraded
	}
}

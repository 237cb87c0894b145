package services

import (
	"context"
	"log/slog"
	"sort"

	"aura/internal/models"
)

// maxOracleItems bounds how many items are sent to the ranking oracle per
// call. Items past the bound keep their baseline position and are appended
// unchanged.
const maxOracleItems = 50

// RankingOracle is the best-effort external reordering service. It receives a
// baseline-sorted slice plus the day's busy intervals for context and returns
// the same identifiers reordered. Implementations make no correctness
// guarantee — the reorderer reconciles whatever comes back.
type RankingOracle interface {
	Rank(ctx context.Context, items []models.WorkItem, busy []models.BusyInterval) ([]string, error)
}

// PriorityReorderer orders work items for scheduling: a deterministic
// due-date baseline, optionally refined by a ranking oracle. The fallback
// path is total — any oracle failure yields the pure baseline order.
type PriorityReorderer struct {
	oracle RankingOracle // nil disables the oracle pass
}

// NewPriorityReorderer creates a reorderer. Pass a nil oracle for pure
// baseline ordering.
func NewPriorityReorderer(oracle RankingOracle) *PriorityReorderer {
	return &PriorityReorderer{oracle: oracle}
}

// Reorder returns the items in scheduling priority order. The output always
// contains exactly the input's identifier set, and calling it twice on the
// same input yields the same order.
func (r *PriorityReorderer) Reorder(ctx context.Context, items []models.WorkItem, busy []models.BusyInterval) []models.WorkItem {
	sorted := SortByDue(items)
	if r.oracle == nil || len(sorted) == 0 {
		return sorted
	}

	bound := len(sorted)
	if bound > maxOracleItems {
		bound = maxOracleItems
	}
	head, tail := sorted[:bound], sorted[bound:]

	rankedIDs, err := r.oracle.Rank(ctx, head, busy)
	if err != nil {
		slog.Debug("ranking oracle unavailable, using baseline order", "error", err)
		if m := GetMetrics(); m != nil {
			m.OracleFallbacks.Inc()
		}
		return sorted
	}

	return append(reconcile(head, rankedIDs), tail...)
}

// SortByDue is the baseline ordering: stable ascending by due date, items
// without a due date last.
func SortByDue(items []models.WorkItem) []models.WorkItem {
	sorted := make([]models.WorkItem, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Due, sorted[j].Due
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})
	return sorted
}

// reconcile applies the oracle's identifier order to the input slice.
// Identifiers the oracle invented are discarded; input items the oracle
// dropped are appended after the recognized ones in baseline order. Duplicate
// identifiers in the oracle response count once.
func reconcile(items []models.WorkItem, rankedIDs []string) []models.WorkItem {
	byID := make(map[string]models.WorkItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	out := make([]models.WorkItem, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, id := range rankedIDs {
		item, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, item)
	}

	for _, item := range items {
		if !seen[item.ID] {
			out = append(out, item)
		}
	}
	return out
}

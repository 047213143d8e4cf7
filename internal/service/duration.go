package service

import (
	"alcyxob/club-app/internal/domain"
	"sort"
)

// DurationCheck compares the activities of a plan with its planned length.
type DurationCheck struct {
	TotalActivityMinutes int  `json:"totalActivityMinutes"`
	PlanDuration         int  `json:"planDuration"`
	IsConsistent         bool `json:"isConsistent"`
}

// CheckDuration sums the activity durations and compares them with
// planDuration. It never fails; callers decide whether a mismatch blocks.
func CheckDuration(activities []domain.Activity, planDuration int) DurationCheck {
	total := 0
	for _, a := range activities {
		total += a.Duration
	}
	return DurationCheck{
		TotalActivityMinutes: total,
		PlanDuration:         planDuration,
		IsConsistent:         total == planDuration,
	}
}

// NormalizeActivities returns a copy sorted by Order and renumbered 1..N.
// Activities without a positive order keep their relative position after
// the ordered ones.
func NormalizeActivities(activities []domain.Activity) []domain.Activity {
	out := make([]domain.Activity, len(activities))
	copy(out, activities)
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := out[i].Order, out[j].Order
		if oi <= 0 || oj <= 0 {
			return oi > 0 && oj <= 0
		}
		return oi < oj
	})
	return resequence(out)
}

// RemoveActivityAt deletes the activity at the 1-based position `order`
// and renumbers the rest so the sequence stays contiguous.
func RemoveActivityAt(activities []domain.Activity, order int) ([]domain.Activity, error) {
	ordered := NormalizeActivities(activities)
	if order < 1 || order > len(ordered) {
		return nil, invalid("order", "no activity at position %d", order)
	}
	out := make([]domain.Activity, 0, len(ordered)-1)
	out = append(out, ordered[:order-1]...)
	out = append(out, ordered[order:]...)
	return resequence(out), nil
}

func resequence(activities []domain.Activity) []domain.Activity {
	for i := range activities {
		activities[i].Order = i + 1
	}
	return activities
}

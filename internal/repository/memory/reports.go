package memory

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
)

const uncategorized = "Uncategorized"

type reportRepo struct{ s *Store }

func (r reportRepo) ResolutionStats(_ context.Context, rng domain.DateRange) (domain.ResolutionStats, error) {
	defer r.s.lock()()
	var stats domain.ResolutionStats
	var sum float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, res := range r.s.data.resolutions {
		if !inRange(res.ResolvedAt, rng) {
			continue
		}
		issue, ok := r.s.data.issues[res.IssueID]
		if !ok {
			continue
		}
		hours := res.ResolvedAt.Sub(issue.CreatedAt).Hours()
		stats.TotalResolved++
		sum += hours
		lo = math.Min(lo, hours)
		hi = math.Max(hi, hours)
	}
	if stats.TotalResolved == 0 {
		return stats, nil
	}
	stats.AvgHours = sum / float64(stats.TotalResolved)
	stats.MinHours = lo
	stats.MaxHours = hi
	return stats, nil
}

func (r reportRepo) CategoryCounts(_ context.Context, rng domain.DateRange) ([]domain.CategoryCount, error) {
	defer r.s.lock()()
	type key struct {
		id   string
		none bool
	}
	counts := map[key]*domain.CategoryCount{}
	for _, issue := range r.s.data.issues {
		if !inRange(issue.CreatedAt, rng) {
			continue
		}
		k := key{none: true}
		name := uncategorized
		if issue.CategoryID != nil {
			if category, ok := r.s.data.categories[*issue.CategoryID]; ok {
				k = key{id: category.ID}
				name = category.Name
			}
		}
		entry, ok := counts[k]
		if !ok {
			entry = &domain.CategoryCount{CategoryName: name}
			if !k.none {
				id := k.id
				entry.CategoryID = &id
			}
			counts[k] = entry
		}
		entry.Count++
	}

	result := make([]domain.CategoryCount, 0, len(counts))
	for _, entry := range counts {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].CategoryName < result[j].CategoryName
	})
	return result, nil
}

func (r reportRepo) EscalationCount(_ context.Context, rng domain.DateRange) (int, error) {
	defer r.s.lock()()
	total := 0
	for _, record := range r.s.data.escalations {
		if inRange(record.EscalatedAt, rng) {
			total++
		}
	}
	return total, nil
}

func (r reportRepo) IssueCount(_ context.Context) (int, error) {
	defer r.s.lock()()
	return len(r.s.data.issues), nil
}

func (r reportRepo) TransitionCounts(_ context.Context, rng domain.DateRange) ([]domain.TransitionCount, error) {
	defer r.s.lock()()
	type pair struct{ from, to int }
	counts := map[pair]int{}
	for _, record := range r.s.data.escalations {
		if inRange(record.EscalatedAt, rng) {
			counts[pair{record.FromLevel, record.ToLevel}]++
		}
	}
	result := make([]domain.TransitionCount, 0, len(counts))
	for p, n := range counts {
		result = append(result, domain.TransitionCount{FromLevel: p.from, ToLevel: p.to, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.FromLevel != b.FromLevel {
			return a.FromLevel < b.FromLevel
		}
		return a.ToLevel < b.ToLevel
	})
	return result, nil
}

func inRange(t time.Time, rng domain.DateRange) bool {
	if rng.From != nil && t.Before(*rng.From) {
		return false
	}
	if rng.To != nil && t.After(*rng.To) {
		return false
	}
	return true
}

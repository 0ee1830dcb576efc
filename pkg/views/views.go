// Package views holds the pure projection logic behind list screens:
// sentinel-aware filters, field sorts, picker text search, and the summary
// tallies shown next to filtered tables.
package views

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dealdesk-io/dealdesk-engine/pkg/models"
)

// Sentinel filter values meaning "no filter".
const (
	AllStages = "All Stages"
	AllTypes  = "All Types"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// OpportunityFilter selects opportunities by exact stage/type match.
// Sentinel values disable the corresponding predicate; active predicates
// combine with AND.
type OpportunityFilter struct {
	Stage           string
	OpportunityType string
}

// Match reports whether the opportunity passes every active predicate.
func (f OpportunityFilter) Match(o *models.Opportunity) bool {
	if f.Stage != "" && f.Stage != AllStages && o.Stage != f.Stage {
		return false
	}
	if f.OpportunityType != "" && f.OpportunityType != AllTypes && o.OpportunityType != f.OpportunityType {
		return false
	}
	return true
}

// FilterOpportunities returns the opportunities passing the filter, in input
// order. The input slice is not mutated.
func FilterOpportunities(opportunities []*models.Opportunity, filter OpportunityFilter) []*models.Opportunity {
	out := make([]*models.Opportunity, 0, len(opportunities))
	for _, o := range opportunities {
		if filter.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

// SortOpportunities sorts a copy of the input by the named field. Strings
// compare lexicographically, estimated values numerically with null as the
// lowest value, timestamps chronologically. Unknown fields sort by name.
func SortOpportunities(opportunities []*models.Opportunity, sortBy, sortOrder string) []*models.Opportunity {
	out := make([]*models.Opportunity, len(opportunities))
	copy(out, opportunities)

	less := func(a, b *models.Opportunity) bool {
		switch sortBy {
		case "client_name":
			return a.ClientName < b.ClientName
		case "stage":
			return a.Stage < b.Stage
		case "estimated_value":
			return estimatedValue(a) < estimatedValue(b)
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default:
			return a.Name < b.Name
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if sortOrder == SortDesc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// estimatedValue maps a null estimate below every real amount. Amounts are
// non-negative, so any negative stand-in sorts first.
func estimatedValue(o *models.Opportunity) float64 {
	if o.EstimatedValue == nil {
		return -1
	}
	return *o.EstimatedValue
}

// StageSummary is the per-stage opportunity tally.
type StageSummary struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// TypeSummary is the per-type opportunity tally.
type TypeSummary struct {
	OpportunityType string `json:"opportunity_type"`
	Count           int    `json:"count"`
}

// SummarizeStages tallies the full, unfiltered collection per stage. Summary
// widgets show totals even while the table shows a filtered view.
func SummarizeStages(opportunities []*models.Opportunity) []StageSummary {
	counts := make(map[string]int)
	for _, o := range opportunities {
		counts[o.Stage]++
	}

	out := make([]StageSummary, 0, len(counts))
	for stage, count := range counts {
		out = append(out, StageSummary{Stage: stage, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out
}

// SummarizeTypes tallies the full, unfiltered collection per type.
func SummarizeTypes(opportunities []*models.Opportunity) []TypeSummary {
	counts := make(map[string]int)
	for _, o := range opportunities {
		counts[o.OpportunityType]++
	}

	out := make([]TypeSummary, 0, len(counts))
	for opportunityType, count := range counts {
		out = append(out, TypeSummary{OpportunityType: opportunityType, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpportunityType < out[j].OpportunityType })
	return out
}

// SearchSolutions returns solutions whose name or description contains the
// query, case-insensitively. An empty query matches everything. Used by the
// link-solution picker.
func SearchSolutions(solutions []*models.Solution, query string) []*models.Solution {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]*models.Solution, 0, len(solutions))
	for _, s := range solutions {
		if query == "" || containsFold(s.Name, query) || (s.Description != nil && containsFold(*s.Description, query)) {
			out = append(out, s)
		}
	}
	return out
}

// SearchSessions returns sessions whose client or opportunity name contains
// the query, case-insensitively. Used by the link-session picker.
func SearchSessions(sessions []*models.DiscoverySession, query string) []*models.DiscoverySession {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]*models.DiscoverySession, 0, len(sessions))
	for _, s := range sessions {
		if query == "" || containsFold(s.ClientName, query) || (s.OpportunityName != nil && containsFold(*s.OpportunityName, query)) {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

// FormatCurrency renders an estimated value for display: null renders as an
// em dash, amounts as whole-cent USD.
func FormatCurrency(value *float64) string {
	if value == nil {
		return "—"
	}
	return "$" + groupThousands(fmt.Sprintf("%.2f", *value))
}

func groupThousands(amount string) string {
	dot := strings.IndexByte(amount, '.')
	whole, frac := amount[:dot], amount[dot:]

	var b strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return b.String() + frac
}

// Package report computes null-aware aggregates over the enriched lead
// set and exports the table for downstream consumers.
package report

import (
	"github.com/gmgolfo/sales-analyst/internal/model"
)

// StateTotals holds the count and summed value of leads in one state.
// Leads without a price contribute zero to the sum, not nothing to the
// count.
type StateTotals struct {
	Count int   `json:"count"`
	Value int64 `json:"value"`
}

// Summary is the aggregate view of a single enrichment run.
type Summary struct {
	TotalLeads int                             `json:"total_leads"`
	ByState    map[model.LeadState]StateTotals `json:"by_state"`

	// WinRate is won / (won + lost); nil until at least one closed lead
	// exists.
	WinRate *float64 `json:"win_rate"`

	// MeanDaysToClose averages only leads with a known close duration;
	// nil when no lead has one. Unknown durations are excluded, never
	// counted as zero.
	MeanDaysToClose *float64 `json:"mean_days_to_close"`

	AtRiskLeads   int `json:"at_risk_leads"`
	CriticalLeads int `json:"critical_leads"`

	LeadsByResponsible map[string]int `json:"leads_by_responsible"`
	LostByReason       map[string]int `json:"lost_by_reason"`
}

// Summarize computes the aggregate summary for an enriched set. It is a
// pure function of its input.
func Summarize(leads []model.EnrichedLead) Summary {
	s := Summary{
		TotalLeads:         len(leads),
		ByState:            make(map[model.LeadState]StateTotals),
		LeadsByResponsible: make(map[string]int),
		LostByReason:       make(map[string]int),
	}

	var closeDaysSum, closeDaysN int
	for i := range leads {
		lead := &leads[i]

		totals := s.ByState[lead.State]
		totals.Count++
		if lead.Price != nil {
			totals.Value += *lead.Price
		}
		s.ByState[lead.State] = totals

		s.LeadsByResponsible[lead.ResponsibleName]++

		if lead.State == model.StateLost {
			s.LostByReason[lead.LossReasonName]++
		}

		if lead.DaysToClose != nil {
			closeDaysSum += *lead.DaysToClose
			closeDaysN++
		}

		switch lead.Health {
		case model.HealthAtRisk:
			s.AtRiskLeads++
		case model.HealthCritical:
			s.CriticalLeads++
		}
	}

	won := s.ByState[model.StateWon].Count
	lost := s.ByState[model.StateLost].Count
	if won+lost > 0 {
		rate := float64(won) / float64(won+lost)
		s.WinRate = &rate
	}
	if closeDaysN > 0 {
		mean := float64(closeDaysSum) / float64(closeDaysN)
		s.MeanDaysToClose = &mean
	}

	return s
}

package scoring

import (
	"github.com/gmgolfo/sales-analyst/internal/model"
)

// ClientStats aggregates a client's closed-deal history.
type ClientStats struct {
	TotalDeals int     `json:"total_deals"`
	DealsWon   int     `json:"deals_won"`
	WinRate    float64 `json:"win_rate"`
}

// TagStats aggregates a service tag's closed-deal history. One closed
// lead contributes one row per tag it carries.
type TagStats struct {
	TotalRequests int     `json:"total_requests"`
	RequestsWon   int     `json:"requests_won"`
	WinRate       float64 `json:"win_rate"`
}

// History holds the historical aggregates a scoring run is based on,
// computed once from the closed (won or lost) portion of the enriched
// set.
type History struct {
	Clients map[string]ClientStats `json:"clients"`
	Tags    map[string]TagStats    `json:"tags"`
}

// BuildHistory computes client and tag win-rate aggregates from the
// closed leads in the enriched set. Leads whose contact structure is
// missing or malformed group under the unknown-client sentinel rather
// than failing the run.
func BuildHistory(leads []model.EnrichedLead) History {
	h := History{
		Clients: make(map[string]ClientStats),
		Tags:    make(map[string]TagStats),
	}

	for i := range leads {
		lead := &leads[i]
		if !lead.IsClosed() {
			continue
		}
		won := lead.State == model.StateWon

		cs := h.Clients[lead.ContactName()]
		cs.TotalDeals++
		if won {
			cs.DealsWon++
		}
		h.Clients[lead.ContactName()] = cs

		for _, tag := range lead.Tags {
			ts := h.Tags[tag]
			ts.TotalRequests++
			if won {
				ts.RequestsWon++
			}
			h.Tags[tag] = ts
		}
	}

	for name, cs := range h.Clients {
		cs.WinRate = float64(cs.DealsWon) / float64(cs.TotalDeals)
		h.Clients[name] = cs
	}
	for tag, ts := range h.Tags {
		ts.WinRate = float64(ts.RequestsWon) / float64(ts.TotalRequests)
		h.Tags[tag] = ts
	}

	return h
}

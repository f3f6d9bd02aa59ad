package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmgolfo/sales-analyst/internal/model"
)

func closedLead(id int64, state model.LeadState, client string, tags ...string) model.EnrichedLead {
	lead := model.EnrichedLead{ID: id, State: state, Tags: tags}
	if client != "" {
		lead.Contacts = []model.Contact{{ID: id, Name: client}}
	}
	if lead.Tags == nil {
		lead.Tags = []string{}
	}
	return lead
}

func TestBuildHistoryClients(t *testing.T) {
	leads := []model.EnrichedLead{
		closedLead(1, model.StateWon, "Constructora Delta"),
		closedLead(2, model.StateLost, "Constructora Delta"),
		closedLead(3, model.StateLost, "Minera Norte"),
		closedLead(4, model.StateInProgress, "Constructora Delta"), // open leads never enter history
	}

	h := BuildHistory(leads)

	delta, ok := h.Clients["Constructora Delta"]
	require.True(t, ok)
	assert.Equal(t, 2, delta.TotalDeals)
	assert.Equal(t, 1, delta.DealsWon)
	assert.InDelta(t, 0.5, delta.WinRate, 1e-9)

	norte := h.Clients["Minera Norte"]
	assert.Equal(t, 1, norte.TotalDeals)
	assert.Zero(t, norte.DealsWon)
	assert.Zero(t, norte.WinRate)
}

func TestBuildHistoryUnknownClientGroups(t *testing.T) {
	leads := []model.EnrichedLead{
		closedLead(1, model.StateWon, ""),
		{ID: 2, State: model.StateLost, Tags: []string{}, Contacts: []model.Contact{{ID: 9, Name: ""}}},
	}

	h := BuildHistory(leads)
	stats := h.Clients[model.UnknownClient]
	assert.Equal(t, 2, stats.TotalDeals)
	assert.Equal(t, 1, stats.DealsWon)
}

func TestBuildHistoryTags(t *testing.T) {
	leads := []model.EnrichedLead{
		closedLead(1, model.StateWon, "A", "renta", "maniobra"),
		closedLead(2, model.StateLost, "B", "renta"),
		closedLead(3, model.StateWon, "C", "renta"),
	}

	h := BuildHistory(leads)

	renta := h.Tags["renta"]
	assert.Equal(t, 3, renta.TotalRequests)
	assert.Equal(t, 2, renta.RequestsWon)
	assert.InDelta(t, 2.0/3.0, renta.WinRate, 1e-9)

	maniobra := h.Tags["maniobra"]
	assert.Equal(t, 1, maniobra.TotalRequests)
	assert.InDelta(t, 1.0, maniobra.WinRate, 1e-9)
}

func TestBuildHistoryCollectionExcluded(t *testing.T) {
	// Collection leads are still active: they contribute no history.
	leads := []model.EnrichedLead{
		closedLead(1, model.StateCollection, "Constructora Delta", "renta"),
	}

	h := BuildHistory(leads)
	assert.Empty(t, h.Clients)
	assert.Empty(t, h.Tags)
}

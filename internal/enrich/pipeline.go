// Package enrich turns raw Kommo collections into the canonical
// per-lead analytical record set.
package enrich

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gmgolfo/sales-analyst/internal/config"
	"github.com/gmgolfo/sales-analyst/internal/model"
	"github.com/gmgolfo/sales-analyst/pkg/kommo"
)

// Enricher runs the enrichment pipeline. It is stateless between runs;
// every Run operates only on the supplied raw data and reference time.
type Enricher struct {
	cfg config.EnrichConfig
	loc *time.Location
}

// New builds an Enricher. The configured timezone is resolved here so a
// bad zone name fails at startup, not per lead.
func New(cfg config.EnrichConfig) (*Enricher, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, eris.Wrapf(err, "enrich: load timezone %q", cfg.Timezone)
		}
		loc = l
	}
	return &Enricher{cfg: cfg, loc: loc}, nil
}

// lookups holds the id-keyed reference maps built once per run.
// Duplicate ids are last-write-wins; Kommo does not produce them but a
// duplicate is not worth aborting a run over.
type lookups struct {
	users     map[int64]string
	reasons   map[int64]string
	statuses  map[int64]model.Status
	pipelines map[int64]string
}

func buildLookups(raw *kommo.RawData) lookups {
	l := lookups{
		users:     make(map[int64]string, len(raw.Users)),
		reasons:   make(map[int64]string, len(raw.LossReasons)),
		statuses:  make(map[int64]model.Status),
		pipelines: make(map[int64]string, len(raw.Pipelines)),
	}
	for _, u := range raw.Users {
		l.users[u.ID] = u.Name
	}
	for _, r := range raw.LossReasons {
		l.reasons[r.ID] = r.Name
	}
	for _, p := range raw.Pipelines {
		l.pipelines[p.ID] = p.Name
		for _, s := range p.Embedded.Statuses {
			s.PipelineID = p.ID
			l.statuses[s.ID] = s
		}
	}
	return l
}

// Run produces the enriched record set for the given raw collections.
// Output order follows input lead order, minus leads in the excluded
// pipeline. now is the reference instant for staleness math and must be
// supplied by the caller.
func (e *Enricher) Run(raw *kommo.RawData, now time.Time) []model.EnrichedLead {
	if raw == nil || len(raw.Leads) == 0 {
		zap.L().Warn("enrich: no leads to process")
		return []model.EnrichedLead{}
	}

	lk := buildLookups(raw)
	now = now.In(e.loc)

	enriched := make([]model.EnrichedLead, 0, len(raw.Leads))
	for i := range raw.Leads {
		lead := e.enrichOne(&raw.Leads[i], lk, now)
		if lead.PipelineName == e.cfg.ExcludedPipeline {
			continue
		}
		enriched = append(enriched, lead)
	}

	zap.L().Info("enrich: run complete",
		zap.Int("input_leads", len(raw.Leads)),
		zap.Int("enriched_leads", len(enriched)),
		zap.Int("excluded_leads", len(raw.Leads)-len(enriched)),
	)

	return enriched
}

func (e *Enricher) enrichOne(raw *model.RawLead, lk lookups, now time.Time) model.EnrichedLead {
	lead := model.EnrichedLead{
		ID:                raw.ID,
		Name:              raw.Name,
		Price:             raw.Price,
		StatusID:          raw.StatusID,
		ResponsibleUserID: raw.ResponsibleUserID,
		Tags:              tagNames(raw.Embedded.Tags),
		Contacts:          raw.Embedded.Contacts,
	}

	lead.ResponsibleName = resolve(lk.users, raw.ResponsibleUserID, model.UnassignedUser)

	status, statusKnown := lk.statuses[raw.StatusID]
	if statusKnown {
		lead.StageName = NormalizeStage(status.Name)
		lead.PipelineName = resolve(lk.pipelines, status.PipelineID, model.UnknownPipelineName)
	} else {
		lead.StageName = model.UnknownStage
		// Without a status the pipeline chain breaks; fall back to the
		// lead's own pipeline id before giving up.
		lead.PipelineName = resolve(lk.pipelines, raw.PipelineID, model.UnknownPipelineName)
	}

	lead.LossReasonName = model.UnspecifiedReason
	if raw.LossReasonID != nil {
		lead.LossReasonName = resolve(lk.reasons, *raw.LossReasonID, model.UnspecifiedReason)
	}

	lead.CreatedAt = epochToTime(raw.CreatedAt, e.loc)
	lead.UpdatedAt = epochToTime(raw.UpdatedAt, e.loc)
	lead.ClosedAt = epochToTime(raw.ClosedAt, e.loc)

	lead.State = e.classify(raw.StatusID, lead.StageName)

	lead.DaysToClose = daysBetween(lead.CreatedAt, lead.ClosedAt)
	if lead.UpdatedAt != nil {
		d := dayDiff(*lead.UpdatedAt, now)
		lead.DaysSinceUpdate = &d
	}

	lead.Health = e.health(lead.State, lead.DaysSinceUpdate)

	return lead
}

// classify applies the state rules in strict priority order. The stage
// name is checked before the won/lost status ids because a custom
// intermediate stage (collection) can coexist with the generic system
// ids elsewhere in the schema.
func (e *Enricher) classify(statusID int64, stageName string) model.LeadState {
	switch {
	case e.cfg.CollectionStage != "" && stageName == e.cfg.CollectionStage:
		return model.StateCollection
	case statusID == e.cfg.WonStatusID:
		return model.StateWon
	case statusID == e.cfg.LostStatusID:
		return model.StateLost
	default:
		return model.StateInProgress
	}
}

// health tiers an in-progress lead by staleness. Critical is checked
// before at-risk so an exact threshold hit lands on the severer tier. A
// lead with an unknown update time cannot be flagged stale and stays
// healthy.
func (e *Enricher) health(state model.LeadState, daysSinceUpdate *int) model.LeadHealth {
	if state != model.StateInProgress {
		return model.HealthNotApplicable
	}
	if daysSinceUpdate == nil {
		return model.HealthHealthy
	}
	switch {
	case *daysSinceUpdate >= e.cfg.CriticalDays:
		return model.HealthCritical
	case *daysSinceUpdate >= e.cfg.AtRiskDays:
		return model.HealthAtRisk
	default:
		return model.HealthHealthy
	}
}

func resolve(m map[int64]string, id int64, fallback string) string {
	if name, ok := m[id]; ok && name != "" {
		return name
	}
	return fallback
}

func tagNames(tags []model.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

// epochToTime converts epoch seconds to a timestamp in the configured
// zone. Zero or negative values mean the field was absent and become
// nil.
func epochToTime(sec int64, loc *time.Location) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).In(loc)
	return &t
}

// daysBetween returns the whole-day difference to..from, nil when either
// endpoint is unknown.
func daysBetween(from, to *time.Time) *int {
	if from == nil || to == nil {
		return nil
	}
	d := dayDiff(*from, *to)
	return &d
}

func dayDiff(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

// Package scoring ranks active leads with a heuristic priority score
// built from client history, deal value and service-tag win rates.
package scoring

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/gmgolfo/sales-analyst/internal/config"
	"github.com/gmgolfo/sales-analyst/internal/model"
)

// LeadScore is the scoring result for a single active lead. Score is
// the 1-100 population-normalized value; RawScore the additive factor
// sum before scaling.
type LeadScore struct {
	LeadID          int64    `json:"lead_id"`
	Name            string   `json:"name"`
	ResponsibleName string   `json:"responsable_nombre"`
	Price           *int64   `json:"price"`
	RawScore        int      `json:"raw_score"`
	Reasons         []string `json:"score_reasons"`
	Score           int      `json:"puntuacion"`
}

// Engine computes lead scores using the configured point values and
// cutoffs.
type Engine struct {
	cfg config.ScoringConfig
}

// NewEngine creates a scoring engine.
func NewEngine(cfg config.ScoringConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Score builds closed-deal histories from the full enriched set, scores
// every in-progress lead, and normalizes the results across the active
// population. An empty active set yields an empty (non-nil) result.
// Results are sorted by normalized score descending, ties by lead id.
func (e *Engine) Score(leads []model.EnrichedLead) []LeadScore {
	history := BuildHistory(leads)

	scores := make([]LeadScore, 0)
	for i := range leads {
		lead := &leads[i]
		if !lead.IsActive() {
			continue
		}
		raw, reasons := e.scoreOne(lead, history)
		scores = append(scores, LeadScore{
			LeadID:          lead.ID,
			Name:            lead.Name,
			ResponsibleName: lead.ResponsibleName,
			Price:           lead.Price,
			RawScore:        raw,
			Reasons:         reasons,
		})
	}

	if len(scores) == 0 {
		zap.L().Info("scoring: no active leads to score")
		return scores
	}

	normalize(scores)

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].LeadID < scores[j].LeadID
	})

	zap.L().Info("scoring: run complete",
		zap.Int("active_leads", len(scores)),
		zap.Int("clients_in_history", len(history.Clients)),
		zap.Int("tags_in_history", len(history.Tags)),
	)

	return scores
}

// scoreOne applies the three additive factors to a single lead.
func (e *Engine) scoreOne(lead *model.EnrichedLead, history History) (int, []string) {
	var score int
	var reasons []string

	// Factor 1: client history.
	clientName := lead.ContactName()
	stats, known := history.Clients[clientName]
	switch {
	case known && clientName != model.UnknownClient && stats.DealsWon > 0:
		score += e.cfg.RepeatClientPoints
		reasons = append(reasons, fmt.Sprintf("+%d pts: Cliente recurrente con %d venta(s) previa(s).", e.cfg.RepeatClientPoints, stats.DealsWon))
	case known && clientName != model.UnknownClient:
		score += e.cfg.KnownClientPoints
		reasons = append(reasons, fmt.Sprintf("+%d pts: Cliente conocido, pero sin ventas previas.", e.cfg.KnownClientPoints))
	default:
		reasons = append(reasons, "+0 pts: Cliente nuevo.")
	}

	// Factor 2: deal value. A missing price counts as zero.
	var price int64
	if lead.Price != nil {
		price = *lead.Price
	}
	switch {
	case price > e.cfg.HighValueThreshold:
		score += e.cfg.HighValuePoints
		reasons = append(reasons, fmt.Sprintf("+%d pts: Valor alto ($%d).", e.cfg.HighValuePoints, price))
	case price > e.cfg.MidValueThreshold:
		score += e.cfg.MidValuePoints
		reasons = append(reasons, fmt.Sprintf("+%d pts: Valor medio ($%d).", e.cfg.MidValuePoints, price))
	default:
		reasons = append(reasons, fmt.Sprintf("+0 pts: Valor bajo ($%d).", price))
	}

	// Factor 3: best historical win rate among the lead's tags. Only
	// tags with history count; ties keep the first-seen maximum. A zero
	// award adds no reason.
	var bestRate float64
	var bestTag string
	for _, tag := range lead.Tags {
		ts, ok := history.Tags[tag]
		if !ok {
			continue
		}
		if ts.WinRate > bestRate {
			bestRate = ts.WinRate
			bestTag = tag
		}
	}

	var tagPoints int
	switch {
	case bestRate > e.cfg.TagTopWinRate:
		tagPoints = e.cfg.TagTopPoints
	case bestRate > e.cfg.TagMidWinRate:
		tagPoints = e.cfg.TagMidPoints
	case bestRate > e.cfg.TagLowWinRate:
		tagPoints = e.cfg.TagLowPoints
	}
	if tagPoints > 0 {
		score += tagPoints
		reasons = append(reasons, fmt.Sprintf("+%d pts: El servicio '%s' tiene una tasa de éxito histórica del %.0f%%.", tagPoints, bestTag, bestRate*100))
	}

	return score, reasons
}

// normalize min-max scales raw scores into [1, 100], truncated to int.
// With no variance across the population every lead gets 50.
func normalize(scores []LeadScore) {
	minRaw, maxRaw := scores[0].RawScore, scores[0].RawScore
	for _, s := range scores[1:] {
		if s.RawScore < minRaw {
			minRaw = s.RawScore
		}
		if s.RawScore > maxRaw {
			maxRaw = s.RawScore
		}
	}

	if minRaw == maxRaw {
		for i := range scores {
			scores[i].Score = 50
		}
		return
	}

	span := float64(maxRaw - minRaw)
	for i := range scores {
		scaled := 1 + float64(scores[i].RawScore-minRaw)*99/span
		scores[i].Score = int(scaled)
	}
}

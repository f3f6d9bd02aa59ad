package model

import "time"

// LeadState is the high-level classification derived from a lead's raw
// status id and normalized stage name. Values match the labels the sales
// team sees in Kommo, so they round-trip through exports unchanged.
type LeadState string

const (
	StateWon        LeadState = "Ganado"
	StateLost       LeadState = "Perdido"
	StateInProgress LeadState = "En Trámite"
	StateCollection LeadState = "Proceso de Cobro"
)

// LeadHealth is the staleness tier for in-progress leads, based on days
// since the lead was last updated. Leads that are already closed (or in
// collection) are NotApplicable.
type LeadHealth string

const (
	HealthHealthy       LeadHealth = "Saludable"
	HealthAtRisk        LeadHealth = "En Riesgo"
	HealthCritical      LeadHealth = "Crítico"
	HealthNotApplicable LeadHealth = "N/A"
)

// Fallback labels used when a reference lookup fails. Resolution never
// errors; unknown ids resolve to these sentinels.
const (
	UnassignedUser      = "No asignado"
	UnknownStage        = "Etapa Desconocida"
	UnknownPipelineName = "Pipeline Desconocido"
	UnspecifiedReason   = "No especificado"
	UnknownClient       = "Cliente Desconocido"
)

// Tag is an embedded Kommo tag.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Contact is an embedded Kommo contact. Only the name participates in
// analytics (client history grouping).
type Contact struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LeadEmbedded holds the _embedded section of a Kommo lead.
type LeadEmbedded struct {
	Tags     []Tag     `json:"tags"`
	Contacts []Contact `json:"contacts"`
}

// RawLead is a lead exactly as the Kommo v4 API returns it. Timestamps
// are epoch seconds; zero means the field was absent (Kommo omits
// closed_at for open leads). Price may be null for leads created without
// a value.
type RawLead struct {
	ID                int64        `json:"id"`
	Name              string       `json:"name"`
	Price             *int64       `json:"price"`
	StatusID          int64        `json:"status_id"`
	PipelineID        int64        `json:"pipeline_id"`
	ResponsibleUserID int64        `json:"responsible_user_id"`
	LossReasonID      *int64       `json:"loss_reason_id"`
	CreatedAt         int64        `json:"created_at"`
	UpdatedAt         int64        `json:"updated_at"`
	ClosedAt          int64        `json:"closed_at"`
	Embedded          LeadEmbedded `json:"_embedded"`
}

// Status is a single stage within a pipeline.
type Status struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PipelineID int64  `json:"pipeline_id"`
}

// PipelineEmbedded holds the _embedded section of a Kommo pipeline.
type PipelineEmbedded struct {
	Statuses []Status `json:"statuses"`
}

// Pipeline is a named, ordered set of stages.
type Pipeline struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Embedded PipelineEmbedded `json:"_embedded"`
}

// User is a Kommo account user (sales executive).
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LossReason is a configured reason a lead can be marked lost with.
type LossReason struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EnrichedLead is the canonical per-lead analytical record: the raw lead
// joined against users, pipelines, statuses and loss reasons, with
// derived state, durations and health. It is produced once per pipeline
// run and is read-only downstream.
type EnrichedLead struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Price             *int64 `json:"price"`
	StatusID          int64  `json:"status_id"`
	ResponsibleUserID int64  `json:"responsible_user_id"`

	ResponsibleName string   `json:"responsable_nombre"`
	StageName       string   `json:"etapa_nombre"`
	PipelineName    string   `json:"pipeline_nombre"`
	LossReasonName  string   `json:"motivo_perdida_nombre"`
	Tags            []string `json:"tags"`
	Contacts        []Contact `json:"contacts,omitempty"`

	State LeadState `json:"estado"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at"`

	// DaysToClose is nil until the lead has both a creation and a close
	// timestamp. DaysSinceUpdate is nil when updated_at is unknown.
	DaysToClose     *int `json:"dias_para_cerrar"`
	DaysSinceUpdate *int `json:"dias_sin_actualizar"`

	Health LeadHealth `json:"salud_lead"`
}

// IsClosed reports whether the lead has reached a terminal state.
func (l *EnrichedLead) IsClosed() bool {
	return l.State == StateWon || l.State == StateLost
}

// IsActive reports whether the lead is still being worked.
func (l *EnrichedLead) IsActive() bool {
	return l.State == StateInProgress
}

// ContactName returns the name of the lead's first embedded contact, or
// UnknownClient when the embedded structure is missing or malformed.
func (l *EnrichedLead) ContactName() string {
	if len(l.Contacts) == 0 {
		return UnknownClient
	}
	if name := l.Contacts[0].Name; name != "" {
		return name
	}
	return UnknownClient
}

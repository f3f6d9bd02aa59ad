package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/gmgolfo/sales-analyst/internal/model"
)

func TestWriteXLSX(t *testing.T) {
	created := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	leads := []model.EnrichedLead{
		{
			ID: 1, Name: "Grúa 50T", ResponsibleName: "Ana", PipelineName: "Ventas",
			StageName: "Cotizacion Enviada", State: model.StateInProgress,
			Price: ptrInt64(30000), Tags: []string{"renta", "maniobra"},
			LossReasonName: model.UnspecifiedReason,
			CreatedAt:      &created, DaysSinceUpdate: ptrInt(3),
			Health: model.HealthHealthy,
		},
		{
			ID: 2, Name: "Sin datos", ResponsibleName: model.UnassignedUser,
			PipelineName: "Ventas", StageName: model.UnknownStage,
			State: model.StateLost, Tags: []string{},
			LossReasonName: "Precio alto", Health: model.HealthNotApplicable,
		},
	}

	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, WriteXLSX(leads, path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Leads", sheet.Name)
	require.Len(t, sheet.Rows, 3) // header + 2 leads

	header := sheet.Rows[0]
	assert.Equal(t, "ID", header.Cells[0].Value)
	assert.Equal(t, "Estado", header.Cells[5].Value)

	first := sheet.Rows[1]
	assert.Equal(t, "Grúa 50T", first.Cells[1].Value)
	assert.Equal(t, string(model.StateInProgress), first.Cells[5].Value)
	assert.Equal(t, "renta, maniobra", first.Cells[7].Value)
	assert.Equal(t, "2026-07-01 10:00", first.Cells[9].Value)

	// Unknown values render as empty cells, not zeros.
	second := sheet.Rows[2]
	assert.Empty(t, second.Cells[6].Value)
	assert.Empty(t, second.Cells[9].Value)
}

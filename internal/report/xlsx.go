package report

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gmgolfo/sales-analyst/internal/model"
)

var exportHeader = []string{
	"ID", "Lead", "Ejecutivo", "Pipeline", "Etapa", "Estado",
	"Precio", "Etiquetas", "Motivo de Pérdida", "Creado", "Actualizado",
	"Cerrado", "Días para Cerrar", "Días sin Actualizar", "Salud",
}

// WriteXLSX exports the enriched table to an xlsx workbook, one row per
// lead. Unknown values render as empty cells.
func WriteXLSX(leads []model.EnrichedLead, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().Value = h
	}

	for i := range leads {
		lead := &leads[i]
		row := sheet.AddRow()
		row.AddCell().SetInt64(lead.ID)
		row.AddCell().Value = lead.Name
		row.AddCell().Value = lead.ResponsibleName
		row.AddCell().Value = lead.PipelineName
		row.AddCell().Value = lead.StageName
		row.AddCell().Value = string(lead.State)
		addInt64Ptr(row, lead.Price)
		row.AddCell().Value = strings.Join(lead.Tags, ", ")
		row.AddCell().Value = lead.LossReasonName
		addTimePtr(row, lead.CreatedAt)
		addTimePtr(row, lead.UpdatedAt)
		addTimePtr(row, lead.ClosedAt)
		addIntPtr(row, lead.DaysToClose)
		addIntPtr(row, lead.DaysSinceUpdate)
		row.AddCell().Value = string(lead.Health)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func addInt64Ptr(row *xlsx.Row, v *int64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetInt64(*v)
	}
}

func addIntPtr(row *xlsx.Row, v *int) {
	cell := row.AddCell()
	if v != nil {
		cell.SetInt(*v)
	}
}

func addTimePtr(row *xlsx.Row, t *time.Time) {
	cell := row.AddCell()
	if t != nil {
		cell.Value = t.Format("2006-01-02 15:04")
	}
}

package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"upper", "PROCESO DE COBRO", "Proceso De Cobro"},
		{"lower", "proceso de cobro", "Proceso De Cobro"},
		{"mixed", "Proceso De Cobro", "Proceso De Cobro"},
		{"accented", "Cotización Enviada", "Cotizacion Enviada"},
		{"accented upper", "COTIZACIÓN ENVIADA", "Cotizacion Enviada"},
		{"enie", "Señal Recibida", "Senal Recibida"},
		{"empty", "", ""},
		{"single word", "cerrado", "Cerrado"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStage(tt.input))
		})
	}
}

func TestNormalizeStageVariantsConverge(t *testing.T) {
	variants := []string{"PROCESO DE COBRO", "proceso de cobro", "Proceso De Cobro", "Proceso de cobro"}
	want := NormalizeStage(variants[0])
	for _, v := range variants {
		assert.Equal(t, want, NormalizeStage(v), "variant %q", v)
	}
}

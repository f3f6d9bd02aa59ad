package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsClosed(t *testing.T) {
	tests := []struct {
		state LeadState
		want  bool
	}{
		{StateWon, true},
		{StateLost, true},
		{StateInProgress, false},
		{StateCollection, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			l := EnrichedLead{State: tt.state}
			assert.Equal(t, tt.want, l.IsClosed())
		})
	}
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		state LeadState
		want  bool
	}{
		{StateInProgress, true},
		{StateCollection, false},
		{StateWon, false},
		{StateLost, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			l := EnrichedLead{State: tt.state}
			assert.Equal(t, tt.want, l.IsActive())
		})
	}
}

func TestContactName(t *testing.T) {
	tests := []struct {
		name     string
		contacts []Contact
		want     string
	}{
		{"first contact wins", []Contact{{ID: 1, Name: "Constructora MX"}, {ID: 2, Name: "Otro"}}, "Constructora MX"},
		{"no contacts", nil, UnknownClient},
		{"empty name", []Contact{{ID: 1}}, UnknownClient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := EnrichedLead{Contacts: tt.contacts}
			assert.Equal(t, tt.want, l.ContactName())
		})
	}
}

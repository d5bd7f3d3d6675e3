package models

import (
	"absenteeismgap.org/internal/charts"
	"absenteeismgap.org/internal/schools"
)

// ReferencesModel carries data related to the primary entry or list.
type ReferencesModel struct {
	Boroughs []charts.BoroughSummary `json:"boroughs"`
	History  []schools.School        `json:"history"`
	Years    []string                `json:"years"`
}

// NewEmptyReferences creates a new empty References model with initialized empty slices
func NewEmptyReferences() ReferencesModel {
	return ReferencesModel{
		Boroughs: []charts.BoroughSummary{},
		History:  []schools.School{},
		Years:    []string{},
	}
}

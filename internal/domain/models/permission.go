package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Permission is derived per request from the user's role and the
// hierarchy positions held by the user's member record.
type Permission struct {
	IsAdmin      bool                 `json:"isAdmin"`
	Pastor       bool                 `json:"pastor"`
	Discipulador bool                 `json:"discipulador"`
	Leader       bool                 `json:"leader"`
	CelulaIDs    []primitive.ObjectID `json:"celulaIds"`
	// ManagedCelulaIDs is the part of CelulaIDs reached as pastor,
	// discipulador or leader, leaving out the cell the user only attends.
	ManagedCelulaIDs []primitive.ObjectID `json:"managedCelulaIds"`
	RedeID           *primitive.ObjectID  `json:"redeId,omitempty"`
	DiscipuladoID    *primitive.ObjectID  `json:"discipuladoId,omitempty"`
}

// HasCelula reports whether id is among the user's associated cells.
func (p Permission) HasCelula(id primitive.ObjectID) bool {
	for _, c := range p.CelulaIDs {
		if c == id {
			return true
		}
	}
	return false
}

// Manages reports whether id is a cell the user pastors, disciples over or
// leads.
func (p Permission) Manages(id primitive.ObjectID) bool {
	for _, c := range p.ManagedCelulaIDs {
		if c == id {
			return true
		}
	}
	return false
}

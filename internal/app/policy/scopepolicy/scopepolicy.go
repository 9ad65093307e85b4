// Package scopepolicy computes which redes, discipulados and celulas a user
// may pick in the hierarchy filters, and keeps the three selections
// consistent as higher levels change.
//
// Visibility rules:
//   - Admins and pastors see every rede and discipulado
//   - Only admins see every celula
//   - Everyone else sees the celulas in Permission.CelulaIDs and the
//     discipulados and redes above them
//
// These lists decide defaults and which options a UI offers. Write
// authorization lives in reportpolicy and memberpolicy.
package scopepolicy

import (
	"github.com/celulahub/celulahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lists are the church's full entity lists the filters are derived from.
type Lists struct {
	Redes        []models.Rede
	Discipulados []models.Discipulado
	Celulas      []models.Celula
}

// Selection is the current value of each filter. Nil means "all".
type Selection struct {
	RedeID        *primitive.ObjectID `json:"rede_id" bson:"rede_id,omitempty"`
	DiscipuladoID *primitive.ObjectID `json:"discipulado_id" bson:"discipulado_id,omitempty"`
	CelulaID      *primitive.ObjectID `json:"celula_id" bson:"celula_id,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (s Selection) IsEmpty() bool {
	return s.RedeID == nil && s.DiscipuladoID == nil && s.CelulaID == nil
}

func seesAllRedes(p models.Permission) bool { return p.IsAdmin || p.Pastor }

func seesAllCelulas(p models.Permission) bool { return p.IsAdmin }

// PermittedRedes returns the redes the user may filter by, in list order.
func PermittedRedes(p models.Permission, l Lists) []models.Rede {
	if seesAllRedes(p) {
		return append([]models.Rede(nil), l.Redes...)
	}
	discs := allowedDiscipulados(p, l)
	redes := make(map[primitive.ObjectID]struct{})
	for _, d := range l.Discipulados {
		if _, ok := discs[d.ID]; ok {
			redes[d.RedeID] = struct{}{}
		}
	}
	out := make([]models.Rede, 0, len(redes))
	for _, r := range l.Redes {
		if _, ok := redes[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// PermittedDiscipulados returns the discipulados the user may filter by,
// narrowed to redeID when it is set.
func PermittedDiscipulados(p models.Permission, l Lists, redeID *primitive.ObjectID) []models.Discipulado {
	var allowed map[primitive.ObjectID]struct{}
	if !seesAllRedes(p) {
		allowed = allowedDiscipulados(p, l)
	}
	out := make([]models.Discipulado, 0, len(l.Discipulados))
	for _, d := range l.Discipulados {
		if allowed != nil {
			if _, ok := allowed[d.ID]; !ok {
				continue
			}
		}
		if redeID != nil && d.RedeID != *redeID {
			continue
		}
		out = append(out, d)
	}
	return out
}

// PermittedCelulas returns the celulas the user may filter by, narrowed by
// the selected discipulado, or by the selected rede when no discipulado is
// selected.
func PermittedCelulas(p models.Permission, l Lists, sel Selection) []models.Celula {
	var allowed map[primitive.ObjectID]struct{}
	if !seesAllCelulas(p) {
		allowed = idSet(p.CelulaIDs)
	}

	var inRede map[primitive.ObjectID]struct{}
	if sel.DiscipuladoID == nil && sel.RedeID != nil {
		inRede = make(map[primitive.ObjectID]struct{})
		for _, d := range l.Discipulados {
			if d.RedeID == *sel.RedeID {
				inRede[d.ID] = struct{}{}
			}
		}
	}

	out := make([]models.Celula, 0, len(l.Celulas))
	for _, c := range l.Celulas {
		if allowed != nil {
			if _, ok := allowed[c.ID]; !ok {
				continue
			}
		}
		switch {
		case sel.DiscipuladoID != nil:
			if c.DiscipuladoID == nil || *c.DiscipuladoID != *sel.DiscipuladoID {
				continue
			}
		case inRede != nil:
			if c.DiscipuladoID == nil {
				continue
			}
			if _, ok := inRede[*c.DiscipuladoID]; !ok {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// allowedDiscipulados walks CelulaIDs up to their discipulados.
func allowedDiscipulados(p models.Permission, l Lists) map[primitive.ObjectID]struct{} {
	cells := idSet(p.CelulaIDs)
	out := make(map[primitive.ObjectID]struct{})
	for _, c := range l.Celulas {
		if _, ok := cells[c.ID]; ok && c.DiscipuladoID != nil {
			out[*c.DiscipuladoID] = struct{}{}
		}
	}
	return out
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]struct{} {
	m := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

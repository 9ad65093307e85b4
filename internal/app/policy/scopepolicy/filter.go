package scopepolicy

import (
	"fmt"

	"github.com/celulahub/celulahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InitState tracks the once-per-session filter auto-initialization.
type InitState int

const (
	Uninitialized InitState = iota
	Initialized
)

func (s InitState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	default:
		return fmt.Sprintf("InitState(%d)", int(s))
	}
}

// ParseInitState is the inverse of String. Unknown values are Uninitialized.
func ParseInitState(s string) InitState {
	if s == "initialized" {
		return Initialized
	}
	return Uninitialized
}

// Filter is the cascade of rede, discipulado and celula selections for one
// user. Candidate lists are recomputed from the current selection on every
// call. A Filter is not safe for concurrent use.
type Filter struct {
	perm  models.Permission
	lists Lists
	sel   Selection
	init  InitState
}

// NewFilter restores a filter from a stored selection and init state.
func NewFilter(p models.Permission, l Lists, sel Selection, state InitState) *Filter {
	return &Filter{perm: p, lists: l, sel: sel, init: state}
}

func (f *Filter) Redes() []models.Rede {
	return PermittedRedes(f.perm, f.lists)
}

func (f *Filter) Discipulados() []models.Discipulado {
	return PermittedDiscipulados(f.perm, f.lists, f.sel.RedeID)
}

func (f *Filter) Celulas() []models.Celula {
	return PermittedCelulas(f.perm, f.lists, f.sel)
}

func (f *Filter) Selection() Selection { return f.sel }

func (f *Filter) InitState() InitState { return f.init }

// HandleRedeChange sets the rede filter. The discipulado and celula filters
// are cleared only when the selected discipulado is not a candidate under
// the new rede. With no discipulado selected, a celula outside the new rede
// is cleared on its own.
func (f *Filter) HandleRedeChange(id *primitive.ObjectID) {
	f.sel.RedeID = cloneID(id)
	if f.sel.DiscipuladoID != nil {
		if !hasDiscipulado(f.Discipulados(), *f.sel.DiscipuladoID) {
			f.sel.DiscipuladoID = nil
			f.sel.CelulaID = nil
		}
		return
	}
	f.dropStaleCelula()
}

// HandleDiscipuladoChange sets the discipulado filter and clears the celula
// filter when it is no longer a candidate.
func (f *Filter) HandleDiscipuladoChange(id *primitive.ObjectID) {
	f.sel.DiscipuladoID = cloneID(id)
	f.dropStaleCelula()
}

// HandleCelulaChange sets the celula filter. Higher levels are not touched.
func (f *Filter) HandleCelulaChange(id *primitive.ObjectID) {
	f.sel.CelulaID = cloneID(id)
}

func (f *Filter) dropStaleCelula() {
	if f.sel.CelulaID != nil && !hasCelula(f.Celulas(), *f.sel.CelulaID) {
		f.sel.CelulaID = nil
	}
}

// AutoInit preselects the user's default filters the first time it runs
// with ready set, then moves to Initialized and never runs again.
//
//   - exactly one associated cell: that cell, its discipulado and its rede
//   - else a discipulador: their discipulado and its rede
//   - else a pastor: their rede
//
// It reports whether the transition happened on this call.
func (f *Filter) AutoInit(ready bool) bool {
	if f.init == Initialized || !ready {
		return false
	}
	f.init = Initialized

	cells := idSet(f.perm.CelulaIDs)
	switch {
	case len(cells) == 1:
		for id := range cells {
			f.selectCelulaChain(id)
		}
	case f.perm.Discipulador && f.perm.DiscipuladoID != nil:
		f.selectDiscipuladoChain(*f.perm.DiscipuladoID)
	case f.perm.Pastor && f.perm.RedeID != nil:
		f.sel = Selection{RedeID: cloneID(f.perm.RedeID)}
	}
	return true
}

func (f *Filter) selectCelulaChain(id primitive.ObjectID) {
	f.sel = Selection{CelulaID: &id}
	for _, c := range f.lists.Celulas {
		if c.ID == id && c.DiscipuladoID != nil {
			f.selectDiscipuladoChain(*c.DiscipuladoID)
			f.sel.CelulaID = &id
			return
		}
	}
}

func (f *Filter) selectDiscipuladoChain(id primitive.ObjectID) {
	f.sel = Selection{DiscipuladoID: &id}
	for _, d := range f.lists.Discipulados {
		if d.ID == id {
			rede := d.RedeID
			f.sel.RedeID = &rede
			return
		}
	}
}

func hasDiscipulado(list []models.Discipulado, id primitive.ObjectID) bool {
	for _, d := range list {
		if d.ID == id {
			return true
		}
	}
	return false
}

func hasCelula(list []models.Celula, id primitive.ObjectID) bool {
	for _, c := range list {
		if c.ID == id {
			return true
		}
	}
	return false
}

func cloneID(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

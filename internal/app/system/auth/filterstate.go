package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

// Session keys for the hierarchy filter. Values are ObjectID hex strings;
// a missing key means "all".
const (
	FilterRedeKey        = "filter_rede_id"
	FilterDiscipuladoKey = "filter_discipulado_id"
	FilterCelulaKey      = "filter_celula_id"
	FilterInitKey        = "filter_init"
)

// FilterValues is the raw filter state kept in the session.
type FilterValues struct {
	RedeID        string
	DiscipuladoID string
	CelulaID      string
	Init          string
}

// LoadFilter reads the filter state. API-key clients have no session and
// always get the zero value.
func (m *SessionManager) LoadFilter(r *http.Request) FilterValues {
	if u, ok := CurrentUser(r); ok && u.ViaAPIKey {
		return FilterValues{}
	}
	sess, _ := m.GetSession(r)
	return FilterValues{
		RedeID:        getString(sess, FilterRedeKey),
		DiscipuladoID: getString(sess, FilterDiscipuladoKey),
		CelulaID:      getString(sess, FilterCelulaKey),
		Init:          getString(sess, FilterInitKey),
	}
}

// SaveFilter writes the filter state back to the session cookie.
func (m *SessionManager) SaveFilter(w http.ResponseWriter, r *http.Request, v FilterValues) error {
	if u, ok := CurrentUser(r); ok && u.ViaAPIKey {
		return nil
	}
	sess, _ := m.GetSession(r)
	setOrDelete(sess, FilterRedeKey, v.RedeID)
	setOrDelete(sess, FilterDiscipuladoKey, v.DiscipuladoID)
	setOrDelete(sess, FilterCelulaKey, v.CelulaID)
	setOrDelete(sess, FilterInitKey, v.Init)
	return sess.Save(r, w)
}

func setOrDelete(s *sessions.Session, key, v string) {
	if v == "" {
		delete(s.Values, key)
		return
	}
	s.Values[key] = v
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

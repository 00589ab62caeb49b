package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/klabast/wb-services/garden-planner/internal/garden"
)

// RequireMethod validates that the request uses the specified HTTP method
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

// parseFilter reads level, organic and group from the query.
// level "" and "All" mean no level filter.
func (s *Server) parseFilter(q url.Values) (garden.VarietyFilter, string) {
	var f garden.VarietyFilter

	if level := q.Get("level"); level != "" && !strings.EqualFold(level, "all") {
		l, err := garden.ParseLevel(level)
		if err != nil {
			return f, ErrInvalidLevel
		}
		f.Level = l
	}

	if organic := q.Get("organic"); organic != "" {
		b, err := strconv.ParseBool(organic)
		if err != nil {
			return f, ErrInvalidRequest
		}
		f.OrganicOnly = b
	}

	if group := q.Get("group"); group != "" && !strings.EqualFold(group, "all") {
		if !slices.Contains(s.catalog.GroupNames(), group) {
			return f, ErrUnknownGroup
		}
		f.Group = group
	}
	return f, ""
}

// parseStart reads the start date, defaulting to today
func (s *Server) parseStart(q url.Values) (time.Time, bool) {
	raw := q.Get("start")
	if raw == "" {
		return garden.Day(s.now()), true
	}
	t, err := garden.ParseDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// zipParam returns the zip query parameter. An absent parameter means the
// configured default; an explicitly empty one disables frost handling.
func (s *Server) zipParam(q url.Values) string {
	if !q.Has("zip") {
		return s.cfg.Garden.DefaultZIP
	}
	return strings.TrimSpace(q.Get("zip"))
}

func (s *Server) layoutView(sess *Session) LayoutView {
	l := sess.Layout()
	return LayoutView{
		Rows:     l.Rows(),
		Cols:     l.Cols(),
		Cells:    l.Grid(),
		Selected: sess.Selected(),
	}
}

func (s *Server) varietyView(v garden.Variety) VarietyView {
	return VarietyView{Variety: v, Spacing: s.catalog.Spacing(v.Name)}
}

func (s *Server) varietyViews(vs []garden.Variety) []VarietyView {
	out := make([]VarietyView, len(vs))
	for i, v := range vs {
		out[i] = s.varietyView(v)
	}
	return out
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/klabast/wb-services/garden-planner/internal/garden"
	"github.com/klabast/wb-services/garden-planner/internal/schedule"
)

// ServeIndex serves the planner page
func (s *Server) ServeIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(s.indexHTML); err != nil {
		s.log.Error().Err(err).Msg("write index HTML")
	}
}

// GetConfig returns what the page needs to render its controls
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	today := garden.Day(s.now())
	s.writeJSON(w, map[string]any{
		"title":       s.cfg.Garden.Title,
		"groups":      s.catalog.GroupNames(),
		"levels":      garden.Levels,
		"varieties":   s.catalog.Names(),
		"zones":       s.catalog.Zones(),
		"default_zip": s.cfg.Garden.DefaultZIP,
		"layout": map[string]int{
			"rows": s.cfg.Layout.Rows,
			"cols": s.cfg.Layout.Cols,
		},
		"today":  today.Format(garden.DateLayout),
		"season": garden.SeasonForMonth(today.Month()),
		"auth":   s.auth.Enabled(),
	})
}

// HandleVarieties returns the filtered variety table
// Query params: level, organic, group (all optional)
func (s *Server) HandleVarieties(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	f, msg := s.parseFilter(r.URL.Query())
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	s.writeJSON(w, s.varietyViews(s.catalog.Filter(f)))
}

// HandleVariety returns one variety with tasks, spacing and companions
// Query param: name
func (s *Server) HandleVariety(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, ErrMissingName, http.StatusBadRequest)
		return
	}
	v, ok := s.catalog.Lookup(name)
	if !ok {
		http.Error(w, ErrUnknownVariety, http.StatusNotFound)
		return
	}
	s.writeJSON(w, s.varietyView(v))
}

// HandleContainers returns the varieties suited for containers
func (s *Server) HandleContainers(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, s.varietyViews(s.catalog.Containers()))
}

// HandleHighlights returns the monthly planting highlights
// Query params: zip, level, organic
func (s *Server) HandleHighlights(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	f, msg := s.parseFilter(q)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	now := s.now()
	resp := map[string]any{
		"month":  now.Month().String(),
		"season": garden.SeasonForMonth(now.Month()),
	}
	var frostDate time.Time
	if zip := s.zipParam(q); zip != "" {
		frostDate = s.estimator.Estimate(r.Context(), zip)
		resp["frost"] = frostDate.Format(garden.DateLayout)
	}
	resp["highlights"] = garden.Highlights(s.catalog, now, frostDate, f)
	s.writeJSON(w, resp)
}

// HandleZone returns the hardiness zone and estimated last frost for a ZIP
func (s *Server) HandleZone(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	zip := s.zipParam(r.URL.Query())
	if zip == "" {
		http.Error(w, "Missing ZIP code", http.StatusBadRequest)
		return
	}
	zone, known := s.catalog.Zone(zip)
	s.writeJSON(w, ZoneView{
		ZIP:       zip,
		Zone:      zone,
		ZoneKnown: known,
		Frost:     s.estimator.Estimate(r.Context(), zip).Format(garden.DateLayout),
	})
}

// HandleSchedule previews the task calendar as JSON
// Query params: zip, start (YYYY-MM-DD), adjust (default true)
func (s *Server) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	plan, ok := s.buildPlan(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, plan)
}

func (s *Server) buildPlan(w http.ResponseWriter, r *http.Request) (schedule.Plan, bool) {
	q := r.URL.Query()
	start, ok := s.parseStart(q)
	if !ok {
		http.Error(w, ErrInvalidDateFormat, http.StatusBadRequest)
		return schedule.Plan{}, false
	}
	return s.planner.Build(r.Context(), schedule.Request{
		Start:          start,
		ZIP:            s.zipParam(q),
		AdjustForFrost: q.Get("adjust") != "false",
	}), true
}

// HandleLayout returns the session's bed
func (s *Server) HandleLayout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, s.layoutView(s.sessions.Get(w, r)))
}

// HandleSelect chooses the crop that later placements use.
// An empty crop clears the selection.
func (s *Server) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req SelectRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}
	if req.Crop != "" {
		if _, ok := s.catalog.Lookup(req.Crop); !ok {
			http.Error(w, ErrUnknownVariety, http.StatusBadRequest)
			return
		}
	}
	sess := s.sessions.Get(w, r)
	sess.Select(req.Crop)
	s.writeJSON(w, s.layoutView(sess))
}

// HandlePlace puts a crop into a cell, replacing what was there.
// Without a crop in the body the selected crop is used.
func (s *Server) HandlePlace(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req CellRequest
	if err := decodeBody(r, &req); err != nil || req.Row == nil || req.Col == nil {
		http.Error(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}
	if req.Crop != "" {
		if _, ok := s.catalog.Lookup(req.Crop); !ok {
			http.Error(w, ErrUnknownVariety, http.StatusBadRequest)
			return
		}
	}

	sess := s.sessions.Get(w, r)
	crop, err := sess.Place(*req.Row, *req.Col, req.Crop)
	switch {
	case errors.Is(err, garden.ErrOutOfBounds):
		http.Error(w, ErrInvalidCell, http.StatusBadRequest)
		return
	case errors.Is(err, errNoCropSelected):
		http.Error(w, "No crop selected", http.StatusBadRequest)
		return
	case err != nil:
		s.log.Error().Err(err).Msg("place crop")
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}

	s.log.Debug().Str("session", sess.ID).Int("row", *req.Row).Int("col", *req.Col).Str("crop", crop).Msg("placed crop")
	s.writeJSON(w, s.layoutView(sess))
}

// HandleClear empties one cell, or the whole bed when the body names no cell
func (s *Server) HandleClear(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req CellRequest
	if err := decodeBody(r, &req); err != nil || (req.Row == nil) != (req.Col == nil) {
		http.Error(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	sess := s.sessions.Get(w, r)
	if req.Row == nil {
		sess.Reset()
		s.writeJSON(w, s.layoutView(sess))
		return
	}
	if err := sess.ClearCell(*req.Row, *req.Col); err != nil {
		http.Error(w, ErrInvalidCell, http.StatusBadRequest)
		return
	}
	s.writeJSON(w, s.layoutView(sess))
}

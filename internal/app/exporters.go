package app

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/klabast/wb-services/garden-planner/internal/export"
	"github.com/klabast/wb-services/garden-planner/internal/garden"
)

// Download file names
const (
	layoutFileName  = "garden_bed_layout"
	varietyFileName = "variety_guide"
	tasksFileName   = "gardening_tasks.ics"
	calendarName    = "Gardening Tasks"
)

// writeFile renders into a buffer first so a failed export still gets a
// clean 500. An empty filename serves the file inline.
func (s *Server) writeFile(w http.ResponseWriter, contentType, filename string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.log.Error().Err(err).Str("file", filename).Msg("render export")
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	}
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Error().Err(err).Str("file", filename).Msg("write export")
	}
}

// HandleLayoutDownload exports the session's bed
// Query param: format (csv, png or pdf; default csv)
func (s *Server) HandleLayoutDownload(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	layout := s.sessions.Get(w, r).Layout()

	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		s.writeFile(w, "text/csv; charset=utf-8", layoutFileName+".csv", func(out io.Writer) error {
			return export.WriteLayoutCSV(out, layout)
		})
	case "png":
		s.writeFile(w, "image/png", layoutFileName+".png", func(out io.Writer) error {
			return export.WriteLayoutPNG(out, layout)
		})
	case "pdf":
		opts := export.LayoutPDFOptions{
			Title:       s.cfg.Garden.Title,
			CalendarURL: s.calendarURL(r),
		}
		s.writeFile(w, "application/pdf", layoutFileName+"_qr.pdf", func(out io.Writer) error {
			return export.WriteLayoutPDF(out, layout, s.catalog, opts)
		})
	default:
		http.Error(w, ErrInvalidFormat, http.StatusBadRequest)
	}
}

// HandleVarietyDownload exports the filtered variety guide
// Query params: format (csv, pdf or xlsx; default csv), level, organic, group
func (s *Server) HandleVarietyDownload(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	f, msg := s.parseFilter(q)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	varieties := s.catalog.Filter(f)

	name := varietyFileName
	if f.Group != "" {
		name = groupSlug(f.Group) + "_schedule"
	}

	switch format := q.Get("format"); format {
	case "", "csv":
		s.writeFile(w, "text/csv; charset=utf-8", name+".csv", func(out io.Writer) error {
			return export.WriteVarietyCSV(out, varieties)
		})
	case "xlsx":
		s.writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", name+".xlsx", func(out io.Writer) error {
			return export.WriteVarietyXLSX(out, varieties)
		})
	case "pdf":
		generated := s.now()
		s.writeFile(w, "application/pdf", name+".pdf", func(out io.Writer) error {
			return export.WriteVarietyPDF(out, varieties, s.cfg.Garden.Title, generated)
		})
	default:
		http.Error(w, ErrInvalidFormat, http.StatusBadRequest)
	}
}

// HandleTaskDownload exports the task calendar as an ICS attachment
// Query params: zip, start, adjust
func (s *Server) HandleTaskDownload(w http.ResponseWriter, r *http.Request) {
	s.serveTasks(w, r, tasksFileName)
}

// HandleTaskSubscribe serves the task calendar inline for calendar apps
// that subscribe to a URL
func (s *Server) HandleTaskSubscribe(w http.ResponseWriter, r *http.Request) {
	s.serveTasks(w, r, "")
}

func (s *Server) serveTasks(w http.ResponseWriter, r *http.Request, filename string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	plan, ok := s.buildPlan(w, r)
	if !ok {
		return
	}
	info := export.CalendarInfo{Name: calendarName, Stamp: s.now()}
	s.writeFile(w, "text/calendar; charset=utf-8", filename, func(out io.Writer) error {
		return export.WriteICS(out, plan.Events, info)
	})
}

// calendarURL is the address encoded in the layout PDF's QR code: the
// configured URL, or this planner's subscription feed for the request's plan.
// The start date is pinned so the feed does not move with the clock.
func (s *Server) calendarURL(r *http.Request) string {
	if s.cfg.Garden.CalendarURL != "" {
		return s.cfg.Garden.CalendarURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	q := r.URL.Query()
	start, ok := s.parseStart(q)
	if !ok {
		start = garden.Day(s.now())
	}
	feed := url.Values{
		"zip":   {s.zipParam(q)},
		"start": {start.Format(garden.DateLayout)},
	}
	if q.Get("adjust") == "false" {
		feed.Set("adjust", "false")
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     "/api/subscribe/tasks",
		RawQuery: feed.Encode(),
	}
	return u.String()
}

// groupSlug turns "Cold-Tolerant" into "cold_tolerant"
func groupSlug(group string) string {
	return strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(group))
}

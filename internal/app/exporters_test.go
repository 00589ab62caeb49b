package app

import (
	"bytes"
	"encoding/csv"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/klabast/wb-services/garden-planner/internal/export"
	"github.com/klabast/wb-services/garden-planner/internal/garden"
)

func TestHandleLayoutDownload(t *testing.T) {
	h := newTestServer(t, testConfig(t)).Handler()
	cookie := sessionCookie(t, do(h, "GET", "/api/layout", ""))
	do(h, "POST", "/api/layout/place", `{"row":0,"col":0,"crop":"Early Girl"}`, cookie)
	do(h, "POST", "/api/layout/place", `{"row":2,"col":3,"crop":"Bloomsdale Spinach"}`, cookie)

	t.Run("CSV", func(t *testing.T) {
		w := do(h, "GET", "/api/download/layout?format=csv", "", cookie)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "garden_bed_layout.csv") {
			t.Errorf("Unexpected Content-Disposition %q", cd)
		}
		records, err := csv.NewReader(w.Body).ReadAll()
		if err != nil {
			t.Fatalf("Failed to parse CSV: %v", err)
		}
		if len(records) != 5 {
			t.Fatalf("Expected header and 4 rows, got %d", len(records))
		}
		if records[1][0] != "Early Girl" || records[3][3] != "Bloomsdale Spinach" {
			t.Errorf("Unexpected CSV rows %v", records)
		}
	})

	t.Run("PNG", func(t *testing.T) {
		w := do(h, "GET", "/api/download/layout?format=png", "", cookie)
		if ct := w.Header().Get("Content-Type"); ct != "image/png" {
			t.Fatalf("Expected image/png, got %s", ct)
		}
		img, err := png.Decode(w.Body)
		if err != nil {
			t.Fatalf("Failed to decode PNG: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 6*export.CellSize+1 || b.Dy() != 4*export.CellSize+1 {
			t.Errorf("Unexpected image size %v", b)
		}
	})

	t.Run("PDF", func(t *testing.T) {
		w := do(h, "GET", "/api/download/layout?format=pdf", "", cookie)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
			t.Error("Expected a PDF document")
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "garden_bed_layout_qr.pdf") {
			t.Errorf("Unexpected Content-Disposition %q", cd)
		}
	})

	t.Run("Unknown format", func(t *testing.T) {
		if w := do(h, "GET", "/api/download/layout?format=bmp", "", cookie); w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestHandleVarietyDownload(t *testing.T) {
	h := newTestServer(t, testConfig(t)).Handler()

	t.Run("CSV for a group", func(t *testing.T) {
		w := do(h, "GET", "/api/download/varieties?format=csv&group=Cold-Tolerant", "")
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "cold_tolerant_schedule.csv") {
			t.Errorf("Unexpected Content-Disposition %q", cd)
		}
		records, err := csv.NewReader(w.Body).ReadAll()
		if err != nil {
			t.Fatalf("Failed to parse CSV: %v", err)
		}
		if len(records) != 3 {
			t.Errorf("Expected header and 2 rows, got %d", len(records))
		}
	})

	t.Run("XLSX", func(t *testing.T) {
		w := do(h, "GET", "/api/download/varieties?format=xlsx&organic=true", "")
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "variety_guide.xlsx") {
			t.Errorf("Unexpected Content-Disposition %q", cd)
		}
		f, err := excelize.OpenReader(w.Body)
		if err != nil {
			t.Fatalf("Failed to open workbook: %v", err)
		}
		defer f.Close()
		rows, err := f.GetRows(export.VarietySheet)
		if err != nil {
			t.Fatalf("Failed to read rows: %v", err)
		}
		if len(rows) != 4 {
			t.Errorf("Expected header and 3 organic rows, got %d", len(rows))
		}
	})

	t.Run("PDF", func(t *testing.T) {
		w := do(h, "GET", "/api/download/varieties?format=pdf&level=Beginner", "")
		if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
			t.Error("Expected a PDF document")
		}
	})

	t.Run("Bad filter", func(t *testing.T) {
		if w := do(h, "GET", "/api/download/varieties?level=Expert", ""); w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestHandleTaskDownload(t *testing.T) {
	h := newTestServer(t, testConfig(t)).Handler()

	w := do(h, "GET", "/api/download/tasks?zip=77001&start=2024-01-01&adjust=false", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/calendar") {
		t.Errorf("Expected Content-Type text/calendar, got %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "gardening_tasks.ics") {
		t.Errorf("Expected attachment gardening_tasks.ics, got %q", cd)
	}

	cal, err := ical.NewDecoder(w.Body).Decode()
	if err != nil {
		t.Fatalf("Failed to decode ICS: %v", err)
	}
	events := cal.Events()
	if len(events) != 44 {
		t.Fatalf("Expected 44 events, got %d", len(events))
	}

	found := false
	for _, ev := range events {
		summary, _ := ev.Props.Text(ical.PropSummary)
		if strings.HasPrefix(summary, "Early Girl – ") && strings.Contains(summary, "frost") {
			start, err := ev.DateTimeStart(time.UTC)
			if err != nil {
				t.Fatal(err)
			}
			if start.Format("2006-01-02") != "2024-03-16" {
				t.Errorf("Frost task should follow the last frost, got %s", start)
			}
			found = true
		}
	}
	if !found {
		t.Error("Expected an Early Girl frost task")
	}

	if w := do(h, "GET", "/api/download/tasks?start=tomorrow", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestHandleTaskSubscribe(t *testing.T) {
	h := newTestServer(t, testConfig(t)).Handler()

	w := do(h, "GET", "/api/subscribe/tasks?zip=77001", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "" {
		t.Errorf("Subscription should not have Content-Disposition header, got: %s", cd)
	}

	body := w.Body.String()
	for _, field := range []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:" + export.ICSProductID, "BEGIN:VEVENT", "END:VCALENDAR"} {
		if !strings.Contains(body, field) {
			t.Errorf("ICS subscription output missing required field: %s", field)
		}
	}
}

func TestCalendarURL(t *testing.T) {
	cfg := testConfig(t)
	s := newTestServer(t, cfg)

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{
			name:   "Start from request",
			target: "/api/download/layout?format=pdf&zip=78701&start=2024-04-01",
			want:   "http://garden.example/api/subscribe/tasks?start=2024-04-01&zip=78701",
		},
		{
			name:   "Start defaults to today",
			target: "/api/download/layout?format=pdf&zip=78701",
			want:   "http://garden.example/api/subscribe/tasks?start=2024-02-10&zip=78701",
		},
		{
			name:   "Adjustment off",
			target: "/api/download/layout?format=pdf&start=2024-01-01&adjust=false",
			want:   "http://garden.example/api/subscribe/tasks?adjust=false&start=2024-01-01&zip=77001",
		},
		{
			name:   "Invalid start",
			target: "/api/download/layout?format=pdf&zip=78701&start=soon",
			want:   "http://garden.example/api/subscribe/tasks?start=2024-02-10&zip=78701",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://garden.example"+tt.target, nil)
			if got := s.calendarURL(req); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}

	req := httptest.NewRequest("GET", "http://garden.example/api/download/layout?format=pdf", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := s.calendarURL(req); !strings.HasPrefix(got, "https://garden.example/") {
		t.Errorf("Expected https URL, got %s", got)
	}

	cfg.Garden.CalendarURL = "https://example.com/gardening_tasks.ics"
	s = newTestServer(t, cfg)
	if got := s.calendarURL(req); got != cfg.Garden.CalendarURL {
		t.Errorf("Expected configured URL, got %s", got)
	}
}

func TestTaskSubscriptionKeepsDates(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)}
	s, err := NewServer(Options{
		Config:    testConfig(t),
		Logger:    zerolog.Nop(),
		Estimator: fixedFrost(testFrost),
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatal(err)
	}
	h := s.Handler()

	feed, err := url.Parse(s.calendarURL(httptest.NewRequest("GET", "http://garden.example/api/download/layout?format=pdf&zip=77001", nil)))
	if err != nil {
		t.Fatal(err)
	}

	firstEvent := func() (string, string) {
		t.Helper()
		w := do(h, "GET", feed.RequestURI(), "")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		cal, err := ical.NewDecoder(w.Body).Decode()
		if err != nil {
			t.Fatalf("Failed to decode ICS: %v", err)
		}
		ev := cal.Events()[0]
		start, err := ev.DateTimeStart(time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		uid, _ := ev.Props.Text(ical.PropUID)
		return start.Format(garden.DateLayout), uid
	}

	start, uid := firstEvent()
	if start != "2024-04-01" {
		t.Errorf("Expected first event on 2024-04-01, got %s", start)
	}

	clock.Advance(7 * 24 * time.Hour)
	laterStart, laterUID := firstEvent()
	if laterStart != start || laterUID != uid {
		t.Errorf("Feed changed a week later: %s %s, want %s %s", laterStart, laterUID, start, uid)
	}
}

func TestGroupSlug(t *testing.T) {
	tests := map[string]string{
		"Cold-Tolerant": "cold_tolerant",
		"Warm-Season":   "warm_season",
		"Tomatoes":      "tomatoes",
		"Leafy Greens":  "leafy_greens",
	}
	for in, want := range tests {
		if got := groupSlug(in); got != want {
			t.Errorf("groupSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

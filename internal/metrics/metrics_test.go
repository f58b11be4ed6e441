package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveMatch(t *testing.T) {
	r := NewRecorder()

	r.ObserveMatch("distance", true, 5*time.Millisecond)
	r.ObserveMatch("distance", true, 3*time.Millisecond)
	r.ObserveMatch("hybrid", false, 8*time.Millisecond)

	matched := testutil.ToFloat64(r.matchTotal.WithLabelValues("distance", "match"))
	if matched != 2 {
		t.Errorf("distance/match counter = %f; want 2", matched)
	}
	missed := testutil.ToFloat64(r.matchTotal.WithLabelValues("hybrid", "no_match"))
	if missed != 1 {
		t.Errorf("hybrid/no_match counter = %f; want 1", missed)
	}
}

func TestSetGallerySize(t *testing.T) {
	r := NewRecorder()

	r.SetGallerySize(7)
	if got := testutil.ToFloat64(r.galleryPeople); got != 7 {
		t.Errorf("gallery gauge = %f; want 7", got)
	}
	r.SetGallerySize(0)
	if got := testutil.ToFloat64(r.galleryPeople); got != 0 {
		t.Errorf("gallery gauge = %f; want 0", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder

	r.ObserveMatch("distance", true, time.Millisecond)
	r.ObserveQuality(0.5)
	r.SetGallerySize(3)
}

func TestHandlerServesCollectors(t *testing.T) {
	r := NewRecorder()
	r.ObserveMatch("distance", true, time.Millisecond)
	r.ObserveQuality(0.9)
	r.SetGallerySize(2)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, metric := range []string{"pm_match_total", "pm_match_duration_seconds", "pm_quality_confidence", "pm_gallery_people"} {
		if !strings.Contains(body, metric) {
			t.Errorf("scrape output missing %s", metric)
		}
	}
	if strings.Contains(body, "go_goroutines") {
		t.Error("scrape output should not include default Go collectors")
	}
}

package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snaretech/snare/internal/detect"
	"github.com/snaretech/snare/internal/feedback"
	"github.com/snaretech/snare/internal/honeypot"
	"github.com/snaretech/snare/internal/score"
	"github.com/snaretech/snare/internal/session"
	"github.com/snaretech/snare/pkg/config"
)

const (
	testSecret = "test-secret"
	adminToken = "test-admin-token"
)

func newTestServer(t *testing.T) (*Server, *detect.Detector) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := session.NewMemoryStore(time.Hour, time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	registry := score.NewRegistry(score.Defaults())
	generator := honeypot.NewGenerator(testSecret)

	detector, err := detect.New(detect.Options{
		Store:    store,
		Registry: registry,
		Traps:    generator.Instrumenter(),
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("detect.New: %v", err)
	}

	loop := feedback.NewLoop(feedback.NewStore(), detector.Index(), registry, logger)

	srv := NewServer(Options{
		Config: config.Config{
			ServerAddr:   ":0",
			MaxBodyBytes: 1 << 20,
			AdminToken:   adminToken,
		},
		Logger:    logger,
		Detector:  detector,
		Loop:      loop,
		Generator: generator,
		Registry:  registry,
	})
	return srv, detector
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestSignalsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	t.Run("accepts valid report", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/signals", signalsRequest{
			SessionID: "sess-1", Clicks: 2, Scrolls: 1,
		}, nil)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects missing session id", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/signals", signalsRequest{Clicks: 1}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rejects negative counter", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/signals", signalsRequest{SessionID: "sess-1", Clicks: -5}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/v1/signals", bytes.NewReader([]byte("{nope")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestScoreEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	t.Run("scraper user agent scores as bot", func(t *testing.T) {
		raw, _ := json.Marshal(scoreRequest{SessionID: "sess-bot"})
		req := httptest.NewRequest("POST", "/v1/score", bytes.NewReader(raw))
		req.Header.Set("User-Agent", "python-requests/2.25.1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
		}
		var verdict score.Verdict
		decodeBody(t, rec, &verdict)
		if !verdict.IsBot {
			t.Error("python-requests should be classified as bot")
		}
		if verdict.Category != score.CategoryScraper {
			t.Errorf("Category = %s, want SCRAPER", verdict.Category)
		}
		if len(verdict.Reasons) == 0 {
			t.Error("bot verdict must carry reasons")
		}
	})

	t.Run("rejects missing session id", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/score", scoreRequest{}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestContentEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	t.Run("entity pages are deterministic", func(t *testing.T) {
		var bodies []string
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest("GET", "/v1/content/entity/00000000000000aa", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			bodies = append(bodies, rec.Body.String())
		}
		if bodies[0] != bodies[1] {
			t.Error("same entity ID must yield byte-identical pages")
		}
	})

	t.Run("listing pages include traps and never terminate", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/content/listing?category=Electronics&page=3", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var listing honeypot.Listing
		decodeBody(t, rec, &listing)
		if listing.NextPage != 4 {
			t.Errorf("NextPage = %d, want 4", listing.NextPage)
		}
		if len(listing.Items) == 0 {
			t.Error("listing should have items")
		}
		if len(listing.TrapLinks) == 0 {
			t.Error("listing should carry trap links")
		}
		for _, item := range listing.Items {
			if item.Category != "Electronics" {
				t.Errorf("item category = %q, want Electronics", item.Category)
			}
		}
	})

	t.Run("rejects bad page number", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/content/listing?page=zero", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestTrapEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	traps := honeypot.NewInstrumenter(testSecret)

	t.Run("valid trap returns trap verdict", func(t *testing.T) {
		trap := traps.NewTrap(honeypot.KindLink)
		rec := postJSON(t, router, "/v1/trap/"+trap.ID, sessionRequest{SessionID: "sess-1"}, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
		}
		var verdict score.Verdict
		decodeBody(t, rec, &verdict)
		if verdict.Category != score.CategoryTrapTriggered {
			t.Errorf("Category = %s, want TRAP_TRIGGERED", verdict.Category)
		}
	})

	t.Run("forged trap rejected", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/trap/link.deadbeef.0123456x", sessionRequest{SessionID: "sess-1"}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestAdminAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/admin/params", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/admin/params", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/admin/params", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("empty configured token disables admin API", func(t *testing.T) {
		disabled, _ := newTestServer(t)
		disabled.cfg.AdminToken = ""
		req := httptest.NewRequest("GET", "/v1/admin/params", nil)
		req.Header.Set("Authorization", "Bearer ")
		rec := httptest.NewRecorder()
		disabled.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}

func adminHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + adminToken}
}

func TestFeedbackAndRecompute(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	// Produce a real verdict to correct.
	raw, _ := json.Marshal(scoreRequest{SessionID: "sess-bot"})
	req := httptest.NewRequest("POST", "/v1/score", bytes.NewReader(raw))
	req.Header.Set("User-Agent", "python-requests/2.25.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var verdict score.Verdict
	decodeBody(t, rec, &verdict)

	truthy := true

	t.Run("feedback for known verdict accepted", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/admin/feedback",
			feedbackRequest{VerdictID: verdict.ID, ActualIsBot: &truthy}, adminHeaders())
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("feedback for unknown verdict is 404", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/admin/feedback",
			feedbackRequest{VerdictID: "v-unknown", ActualIsBot: &truthy}, adminHeaders())
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("feedback without actual_is_bot is 400", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/admin/feedback",
			feedbackRequest{VerdictID: verdict.ID}, adminHeaders())
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("recompute publishes next version", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/admin/recompute", struct{}{}, adminHeaders())
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
		}
		var resp map[string]int64
		decodeBody(t, rec, &resp)
		if resp["version"] != 2 {
			t.Errorf("version = %d, want 2", resp["version"])
		}
	})
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	// Emit a few verdicts.
	for i := 0; i < 3; i++ {
		raw, _ := json.Marshal(scoreRequest{SessionID: fmt.Sprintf("sess-%d", i)})
		req := httptest.NewRequest("POST", "/v1/score", bytes.NewReader(raw))
		req.Header.Set("User-Agent", "curl/8.0.1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("score status = %d", rec.Code)
		}
	}

	req := httptest.NewRequest("GET", "/v1/admin/stats?window=5", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var summary struct {
		Total      int64            `json:"total"`
		Bots       int64            `json:"bots"`
		ByCategory map[string]int64 `json:"by_category"`
	}
	decodeBody(t, rec, &summary)
	if summary.Total != 3 || summary.Bots != 3 {
		t.Errorf("summary = %+v, want 3 total 3 bots", summary)
	}
	if summary.ByCategory["SCRAPER"] != 3 {
		t.Errorf("SCRAPER = %d, want 3", summary.ByCategory["SCRAPER"])
	}
}

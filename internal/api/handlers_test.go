package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codedrop/codedrop/internal/ratelimit"
	"github.com/codedrop/codedrop/internal/store"
	"github.com/codedrop/codedrop/internal/ws"
)

const testBaseURL = "http://localhost:5173"

func setupTestAPI(t *testing.T) (*API, *store.Store, *time.Time) {
	t.Helper()

	now := time.Now()
	st := store.New(24*time.Hour, func() time.Time { return now })

	hub := ws.NewHub(st)
	go hub.Run()

	return New(st, hub, testBaseURL), st, &now
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func TestShareHandler(t *testing.T) {
	api, _, _ := setupTestAPI(t)

	req := httptest.NewRequest("POST", "/share", nil)
	w := httptest.NewRecorder()

	api.ShareHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	url := decodeBody(t, w)["url"]
	if !strings.HasPrefix(url, testBaseURL+"/") {
		t.Fatalf("Expected url under %s, got %q", testBaseURL, url)
	}

	suffix := strings.TrimPrefix(url, testBaseURL+"/")
	if len(suffix) < 5 || !isAlphanumeric(suffix) {
		t.Errorf("Expected a 5+ character alphanumeric room id, got %q", suffix)
	}
}

func TestShareThenReadThenEdit(t *testing.T) {
	api, st, _ := setupTestAPI(t)

	// Create a room
	w := httptest.NewRecorder()
	api.ShareHandler(w, httptest.NewRequest("POST", "/share", nil))
	roomID := strings.TrimPrefix(decodeBody(t, w)["url"], testBaseURL+"/")

	// A fresh room reads as empty
	w = httptest.NewRecorder()
	api.CodeHandler(w, httptest.NewRequest("GET", "/code/"+roomID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if code := decodeBody(t, w)["code"]; code != "" {
		t.Errorf("Expected empty code before any edit, got %q", code)
	}

	// An edit is visible to a second independent read
	if !st.SetText(roomID, "print(1)") {
		t.Fatal("SetText should succeed on a live room")
	}

	w = httptest.NewRecorder()
	api.CodeHandler(w, httptest.NewRequest("GET", "/code/"+roomID, nil))
	if code := decodeBody(t, w)["code"]; code != "print(1)" {
		t.Errorf("Expected published code, got %q", code)
	}
}

func TestShareWithInitialCode(t *testing.T) {
	api, st, _ := setupTestAPI(t)

	body := bytes.NewBufferString(`{"code":"fmt.Println(42)"}`)
	w := httptest.NewRecorder()
	api.ShareHandler(w, httptest.NewRequest("POST", "/share", body))

	roomID := strings.TrimPrefix(decodeBody(t, w)["url"], testBaseURL+"/")
	text, ok := st.Get(roomID)
	if !ok {
		t.Fatal("Created room should be readable")
	}
	if text != "fmt.Println(42)" {
		t.Errorf("Expected seeded text, got %q", text)
	}
}

func TestShareWithMalformedBody(t *testing.T) {
	api, st, _ := setupTestAPI(t)

	body := bytes.NewBufferString(`{"code": 12`)
	w := httptest.NewRecorder()
	api.ShareHandler(w, httptest.NewRequest("POST", "/share", body))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	roomID := strings.TrimPrefix(decodeBody(t, w)["url"], testBaseURL+"/")
	if text, _ := st.Get(roomID); text != "" {
		t.Errorf("Malformed body should yield an empty room, got %q", text)
	}
}

func TestShareMethodNotAllowed(t *testing.T) {
	api, _, _ := setupTestAPI(t)

	w := httptest.NewRecorder()
	api.ShareHandler(w, httptest.NewRequest("GET", "/share", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestCodeHandlerUnknownRoom(t *testing.T) {
	api, _, _ := setupTestAPI(t)

	w := httptest.NewRecorder()
	api.CodeHandler(w, httptest.NewRequest("GET", "/code/nosuch", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if decodeBody(t, w)["error"] == "" {
		t.Error("Expected an error message in the body")
	}
}

func TestCodeHandlerExpiredRoom(t *testing.T) {
	api, st, now := setupTestAPI(t)

	room, err := st.Create("gone soon")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	*now = now.Add(25 * time.Hour)

	w := httptest.NewRecorder()
	api.CodeHandler(w, httptest.NewRequest("GET", "/code/"+room.ID, nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for an expired room, got %d", w.Code)
	}
}

func TestCodeHandlerInvalidRoom(t *testing.T) {
	api, _, _ := setupTestAPI(t)

	for _, path := range []string{"/code/", "/code/has-dashes!", "/code/" + strings.Repeat("x", 65)} {
		w := httptest.NewRecorder()
		api.CodeHandler(w, httptest.NewRequest("GET", path, nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", path, w.Code)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	api, _, _ := setupTestAPI(t)

	w := httptest.NewRecorder()
	api.HealthHandler(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if decodeBody(t, w)["status"] != "ok" {
		t.Error("Expected status 'ok'")
	}
}

func TestStatsHandler(t *testing.T) {
	api, st, _ := setupTestAPI(t)

	if _, err := st.Create(""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	w := httptest.NewRecorder()
	api.StatsHandler(w, httptest.NewRequest("GET", "/api/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var stats map[string]any
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if stats["rooms"] != float64(1) {
		t.Errorf("Expected 1 room, got %v", stats["rooms"])
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	api, _, _ := setupTestAPI(t)

	limiter := ratelimit.NewPerKey(0.001, 2)
	handler := RateLimit(limiter, api.ShareHandler)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/share", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		handler(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Request %d: expected status 200, got %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/share", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	handler(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 after burst, got %d", w.Code)
	}

	// A different caller still has a full burst
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/share", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.8")
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected an unrelated IP to pass, got %d", w.Code)
	}
}

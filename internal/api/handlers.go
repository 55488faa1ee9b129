package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/codedrop/codedrop/internal/store"
	"github.com/codedrop/codedrop/internal/ws"
)

const maxRoomIDLength = 64

type API struct {
	store   *store.Store
	hub     *ws.Hub
	baseURL string
}

func New(st *store.Store, hub *ws.Hub, baseURL string) *API {
	return &API{
		store:   st,
		hub:     hub,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"rooms":          a.store.Len(),
		"active_rooms":   a.hub.GetRoomCount(),
		"active_clients": a.hub.GetClientCount(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

type shareRequest struct {
	Code string `json:"code"`
}

// ShareHandler allocates a new room and returns its shareable URL.
// An optional JSON body {"code": "..."} seeds the room's initial text.
func (a *API) ShareHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// The body is optional and best-effort: a missing or malformed
	// body just creates an empty room.
	var req shareRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			req.Code = ""
		}
	}

	room, err := a.store.Create(req.Code)
	if err != nil {
		log.Printf("Failed to create room: %v", err)
		errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{
		"url": a.baseURL + "/" + room.ID,
	})
}

// CodeHandler answers GET /code/{room} with the room's current text,
// applying the same expiry rule as every other read.
func (a *API) CodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/code/")
	roomID := strings.TrimSuffix(path, "/")

	if !validRoomID(roomID) {
		errorResponse(w, http.StatusBadRequest, "Invalid room parameter")
		return
	}

	text, ok := a.store.Get(roomID)
	if !ok {
		errorResponse(w, http.StatusNotFound, "Code expired or not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"code": text})
}

func validRoomID(id string) bool {
	if id == "" || len(id) > maxRoomIDLength {
		return false
	}
	for _, r := range id {
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

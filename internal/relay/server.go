package relay

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"braid/internal/directory"
	"braid/internal/domain"
)

// Handler serves the relay's HTTP surface over any RelayClient backend,
// in practice the in-process Memory relay. Paths:
//
//	POST /register             publish a key set
//	GET  /bundle/{device}      fetch a bundle (drains one-time keys)
//	POST /msg/{device}         enqueue a wire message
//	GET  /msg/{device}?limit=n fetch pending messages
//	POST /msg/{device}/ack     acknowledge processed messages
func Handler(backend domain.RelayClient) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		var keys domain.PublishedKeys
		if err := json.NewDecoder(r.Body).Decode(&keys); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if keys.DeviceID == "" {
			http.Error(w, "missing device id", http.StatusBadRequest)
			return
		}
		if err := backend.Publish(r.Context(), keys); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /bundle/{device}", func(w http.ResponseWriter, r *http.Request) {
		device := domain.DeviceID(r.PathValue("device"))
		bundle, err := backend.FetchBundle(r.Context(), device)
		if errors.Is(err, directory.ErrUnknownDevice) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSONResponse(w, bundle)
	})

	mux.HandleFunc("POST /msg/{device}", func(w http.ResponseWriter, r *http.Request) {
		var msg domain.WireMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if msg.Recipient() != domain.DeviceID(r.PathValue("device")) {
			http.Error(w, "recipient does not match path", http.StatusBadRequest)
			return
		}
		if err := backend.SendMessage(r.Context(), msg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /msg/{device}", func(w http.ResponseWriter, r *http.Request) {
		device := domain.DeviceID(r.PathValue("device"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		msgs, err := backend.FetchMessages(r.Context(), device, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if msgs == nil {
			msgs = []domain.WireMessage{}
		}
		writeJSONResponse(w, msgs)
	})

	mux.HandleFunc("POST /msg/{device}/ack", func(w http.ResponseWriter, r *http.Request) {
		device := domain.DeviceID(r.PathValue("device"))
		var body struct {
			Count int `json:"count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := backend.AckMessages(r.Context(), device, body.Count); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

// DeviceFromPath extracts the device segment for middleware that keys on it.
func DeviceFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if (p == "bundle" || p == "msg") && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func writeJSONResponse(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

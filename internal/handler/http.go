package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes はリクエストボディの上限 (1MB)
const maxBodyBytes = 1 << 20

// ServeEvent adapts a plain HTTP request to an Event and writes the envelope back.
func (h *Handler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.Log.Warn("handler: Failed to read request body", "error", err, "remote", r.RemoteAddr)
		writeResponse(w, h.errorResponse(http.StatusBadRequest, "Invalid request body"))
		return
	}

	ev := Event{
		HTTPMethod:            r.Method,
		QueryStringParameters: make(map[string]string),
		Headers:               make(map[string]string),
		Body:                  string(body),
	}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			ev.QueryStringParameters[k] = v[0]
		}
	}
	for k := range r.Header {
		ev.Headers[k] = r.Header.Get(k)
	}

	writeResponse(w, h.Handle(r.Context(), ev))
}

func writeResponse(w http.ResponseWriter, resp Response) {
	for k, v := range resp.Headers {
		// CORS ミドルウェアがリクエスト毎に決めた Origin を優先する
		if k == "Access-Control-Allow-Origin" && w.Header().Get(k) != "" {
			continue
		}
		w.Header().Set(k, v)
	}

	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err == nil {
			body = decoded
		}
	}

	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := h.Gateway.Ping(ctx); err != nil {
		h.Log.Error("handler: Health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

package handler

import (
	"encoding/json"
	"net/http"
)

// Event is the HTTP-shaped request handed over by the hosting wrapper.
type Event struct {
	HTTPMethod            string            `json:"httpMethod"`
	QueryStringParameters map[string]string `json:"queryStringParameters"`
	Headers               map[string]string `json:"headers"`
	Body                  string            `json:"body"`
	IsBase64Encoded       bool              `json:"isBase64Encoded"`
}

// Response is the envelope returned for every event, success or not.
type Response struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

const (
	allowMethods = "GET, POST, OPTIONS"
	allowHeaders = "Content-Type"
)

func (h *Handler) corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  h.Config.AllowOrigin(),
		"Access-Control-Allow-Methods": allowMethods,
		"Access-Control-Allow-Headers": allowHeaders,
	}
}

// preflight answers OPTIONS without touching the store.
func (h *Handler) preflight() Response {
	return Response{StatusCode: http.StatusOK, Headers: h.corsHeaders()}
}

func (h *Handler) jsonResponse(status int, payload any) Response {
	headers := h.corsHeaders()
	headers["Content-Type"] = "application/json"

	body, err := json.Marshal(payload)
	if err != nil {
		h.Log.Error("handler: Failed to encode response", "error", err)
		return Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers,
			Body:       `{"error":"Internal server error"}`,
		}
	}
	return Response{StatusCode: status, Headers: headers, Body: string(body)}
}

func (h *Handler) errorResponse(status int, message string) Response {
	return h.jsonResponse(status, map[string]string{"error": message})
}

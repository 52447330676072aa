package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// allowedSSEParams defines the whitelist of allowed query parameters for SSE endpoints
var allowedSSEParams = map[string]bool{
	"datastar": true, // Datastar automatically sends this with client state
}

// allowedDatastarSignals lists the signals the host dashboard may send back
var allowedDatastarSignals = map[string]bool{
	"phase":     true,
	"round":     true,
	"timeLeft":  true,
	"players":   true,
	"qrCode":    true,
	"heartbeat": true,
}

const (
	maxQueryLength    = 10000
	maxDatastarLength = 8192
)

// ValidateSSERequest validates SSE request parameters for security
func ValidateSSERequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.RawQuery) > maxQueryLength {
			http.Error(w, "Query string too large", http.StatusRequestURITooLong)
			return
		}

		params, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			http.Error(w, "Invalid query parameters", http.StatusBadRequest)
			return
		}

		for key, values := range params {
			if !allowedSSEParams[key] {
				http.Error(w, "Invalid parameter", http.StatusBadRequest)
				return
			}

			if key != "datastar" {
				continue
			}
			if len(values) != 1 {
				http.Error(w, "Invalid datastar parameter", http.StatusBadRequest)
				return
			}
			if len(values[0]) > maxDatastarLength {
				http.Error(w, "Datastar state too large", http.StatusBadRequest)
				return
			}
			if values[0] == "" {
				continue
			}

			var signals map[string]interface{}
			if err := json.Unmarshal([]byte(values[0]), &signals); err != nil {
				http.Error(w, "Invalid datastar JSON", http.StatusBadRequest)
				return
			}
			for name := range signals {
				if !allowedDatastarSignals[name] {
					http.Error(w, "Invalid signal in datastar", http.StatusBadRequest)
					return
				}
			}
		}

		next(w, r)
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// unavailablePage is served when rendering a public page panics. Visitors
// never see a stack trace or a bare error string.
const unavailablePage = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Temporarily unavailable</title></head>
<body style="font-family:sans-serif;display:flex;align-items:center;justify-content:center;min-height:100vh">
<p>This page could not be displayed right now.</p></body></html>`

// Recoverer turns a handler panic into a 500. Editor API calls get a JSON
// error carrying the request id, public pages a plain HTML notice.
// http.ErrAbortHandler is re-raised.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			reqID := chimw.GetReqID(r.Context())
			slog.Error("panic recovered",
				"error", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", reqID,
				"stack", string(debug.Stack()),
			)
			writePanicResponse(w, r, reqID)
		}()

		next.ServeHTTP(w, r)
	})
}

func writePanicResponse(w http.ResponseWriter, r *http.Request, reqID string) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/"), strings.HasPrefix(r.URL.Path, "/cron/"):
		body := map[string]string{"error": "Internal Server Error"}
		if reqID != "" {
			body["request_id"] = reqID
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(body)
	case strings.HasPrefix(r.URL.Path, "/p/"):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(unavailablePage))
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"net/url"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/Seednode/saboteur/internal/hub"
	"github.com/Seednode/saboteur/internal/store"
)

const qrSize = 320

// serveNewRoom creates an empty room and returns its code as plain text.
func serveNewRoom(cfg *Config, log *zap.Logger, h *hub.Hub, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		code, err := h.CreateRoom(r.Context())
		if err != nil {
			http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
			return
		}

		log.Debug("room created over http", zap.String("room", code), zap.String("remote", realIP(r)))

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		_, err = w.Write([]byte(code + "\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

// roomURL builds the link a QR code points at, honouring a proxy's
// X-Forwarded-Proto.
func roomURL(cfg *Config, r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     cfg.prefix + "/",
		RawQuery: url.Values{"room": {code}}.Encode(),
	}
	return u.String()
}

func serveRoomQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := store.Normalize(ps.ByName("code"))
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		png, err := qrcode.Encode(roomURL(cfg, r, code), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, err = w.Write(png)
		if err != nil {
			errs <- err

			return
		}
	}
}

// Routes:
//   - /ws               → game websocket, one player per connection
//   - /new              → plain-text code of a freshly created room
//   - /room/:code/qr    → PNG QR code linking to the room
func registerSaboteurGame(cfg *Config, log *zap.Logger, h *hub.Hub, mux *httprouter.Router, errs chan<- error) {
	mux.HandlerFunc("GET", cfg.prefix+"/ws", h.ServeWS)

	mux.GET(cfg.prefix+"/new", serveNewRoom(cfg, log, h, errs))

	mux.GET(cfg.prefix+"/room/:code/qr", serveRoomQR(cfg, errs))
}

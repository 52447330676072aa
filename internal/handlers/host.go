package handlers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	datastar "github.com/starfederation/datastar-go/datastar"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"

	"partygame/internal/game"
	"partygame/internal/rooms"
	"partygame/internal/store"
	"partygame/internal/views/pages"
)

const hostHeartbeat = 30 * time.Second

// hostPlayer is how a player shows on the host dashboard
type hostPlayer struct {
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

// HostPage renders the host dashboard shell. Everything on it is filled in by
// the host stream.
func (h *Handler) HostPage(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.HostDashboard(room.Code, room.GameType).Render(r.Context(), w); err != nil {
		log.Error().Err(err).Str("room", room.Code).Msg("failed to render host dashboard")
	}
}

// RoomQR serves the room's join QR code as a PNG
func (h *Handler) RoomQR(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	png, err := generateQRCode(joinURL(r, room.Code))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// StreamHost streams room changes to the host dashboard as datastar signals
func (h *Handler) StreamHost(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	code := room.Code

	events := h.eventBus.Subscribe(code)
	defer h.eventBus.Unsubscribe(code, events)

	sse := datastar.NewSSE(w, r)
	log.Debug().Str("room", code).Msg("host stream connected")

	signals := hostSignals(room.View())
	if png, err := generateQRCode(joinURL(r, code)); err != nil {
		log.Warn().Err(err).Str("room", code).Msg("failed to generate QR code")
	} else {
		signals["qrCode"] = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	}
	if err := sse.MarshalAndPatchSignals(signals); err != nil {
		log.Warn().Err(err).Str("room", code).Msg("failed to send initial host state")
		return
	}

	heartbeat := time.NewTicker(hostHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("room", code).Msg("host stream closed")
			return
		case <-heartbeat.C:
			if !h.store.HasRoom(code) {
				log.Debug().Str("room", code).Msg("room gone, closing host stream")
				return
			}
			if err := sse.MarshalAndPatchSignals(map[string]any{"heartbeat": time.Now().Unix()}); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			patch := hostPatch(event)
			if patch == nil {
				continue
			}
			if err := sse.MarshalAndPatchSignals(patch); err != nil {
				log.Debug().Err(err).Str("room", code).Msg("host stream write failed")
				return
			}
		}
	}
}

// hostPatch picks the signals an event changes, or nil if none
func hostPatch(event Event) map[string]any {
	switch event.Type {
	case rooms.MessageRoom:
		if view, ok := event.Data.(store.RoomView); ok {
			return hostSignals(view)
		}
	case string(game.EventTimer):
		if t, ok := event.Data.(game.TimerPayload); ok {
			return map[string]any{"timeLeft": t.TimeLeft}
		}
	}
	return nil
}

func hostSignals(view store.RoomView) map[string]any {
	players := make([]hostPlayer, 0, len(view.Players))
	for _, p := range view.Players {
		players = append(players, hostPlayer{Name: p.Name, Avatar: p.Avatar, Score: p.Score, Connected: p.Connected})
	}
	return map[string]any{
		"phase":    view.Phase,
		"round":    view.Game.Round,
		"timeLeft": view.Game.TimeLeft,
		"players":  players,
	}
}

// bufferCloser lets the QR writer write into memory
type bufferCloser struct {
	*bytes.Buffer
}

func (bufferCloser) Close() error { return nil }

// generateQRCode renders url as a PNG QR code
func generateQRCode(url string) ([]byte, error) {
	qrc, err := qrcode.NewWith(url,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	buf := bufferCloser{&bytes.Buffer{}}
	w := standard.NewWithWriter(buf,
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8),
	)
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("failed to save QR code: %w", err)
	}
	return buf.Bytes(), nil
}

// joinURL is where the QR code sends players
func joinURL(r *http.Request, code string) string {
	return baseURL(r) + "/?room=" + code
}

// baseURL constructs the base URL from the request
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

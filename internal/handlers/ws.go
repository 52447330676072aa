package handlers

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"partygame/internal/game"
	"partygame/internal/middleware"
	"partygame/internal/rooms"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client message types
const (
	msgJoin         = "join"
	msgStart        = "start"
	msgSubmitAnswer = "submitAnswer"
	msgSubmitVote   = "submitVote"
	msgLeave        = "leave"
)

type clientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type joinData struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

type answerData struct {
	Answer string `json:"answer"`
}

type voteData struct {
	ChoiceID string `json:"choiceId"`
}

// client is one websocket connection. Its id is the player id it joins as.
type client struct {
	id     string
	code   string
	send   chan []byte
	joined bool // owned by the read pump
}

// Hub tracks websocket connections per room and is the rooms.Transport
// players receive events through.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[string]*client
	upgrader websocket.Upgrader
	actions  *middleware.RateLimiter
}

// NewHub creates a hub. An empty allowedOrigins accepts any origin.
// actionRate and actionBurst throttle game messages per connection.
func NewHub(allowedOrigins []string, actionRate float64, actionBurst int) *Hub {
	return &Hub{
		rooms: make(map[string]map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		actions: middleware.NewRateLimiter(actionRate, actionBurst),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[c.code] == nil {
		h.rooms[c.code] = make(map[string]*client)
	}
	h.rooms[c.code][c.id] = c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.rooms[c.code]
	if conns[c.id] != c {
		return
	}
	delete(conns, c.id)
	if len(conns) == 0 {
		delete(h.rooms, c.code)
	}
	close(c.send)
	h.actions.Forget(c.id)
}

// Connections returns how many sockets are open for the room
func (h *Hub) Connections(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

// SendToRoom sends msg to every socket in the room
func (h *Hub) SendToRoom(code string, msg rooms.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[code] {
		h.enqueue(c, data)
	}
	return nil
}

// SendToConnection sends msg to one socket. Unknown connections are ignored;
// the player may simply be offline.
func (h *Hub) SendToConnection(code, connID string, msg rooms.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.rooms[code][connID]; ok {
		h.enqueue(c, data)
	}
	return nil
}

// enqueue must be called with h.mu held
func (h *Hub) enqueue(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		log.Warn().Str("room", c.code).Str("conn", c.id).Msg("send buffer full, dropping message")
	}
}

// ServeWS upgrades GET /ws?room=CODE and runs the connection
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	code, err := rooms.NormalizeRoomCode(r.URL.Query().Get("room"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.store.HasRoom(code) {
		writeError(w, game.RoomNotFound(code))
		return
	}

	conn, err := h.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("room", code).Msg("websocket upgrade failed")
		return
	}

	c := &client{id: newConnectionID(), code: code, send: make(chan []byte, sendBuffer)}
	h.hub.register(c)

	res, err := h.gateway.Connect(code, c.id)
	if err != nil {
		h.hub.SendToConnection(code, c.id, rooms.ErrorMessage(err))
		h.hub.unregister(c)
		h.writePump(conn, c)
		return
	}
	c.joined = res.Reconnected
	log.Info().Str("room", code).Str("conn", c.id).Bool("reconnected", res.Reconnected).Msg("websocket connected")

	go h.writePump(conn, c)
	go h.readPump(conn, c)
}

func (h *Handler) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		if c.joined {
			h.gateway.Disconnect(c.code, c.id)
		}
		h.hub.unregister(c)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("conn", c.id).Msg("websocket closed unexpectedly")
			}
			return
		}
		if !h.hub.actions.Allow(c.id) {
			h.reply(c, game.InvalidInput("too many messages, slow down"))
			continue
		}
		if done := h.dispatch(c, data); done {
			return
		}
	}
}

// dispatch handles one client message and reports whether the connection
// should close.
func (h *Handler) dispatch(c *client, data []byte) bool {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reply(c, game.InvalidInput("malformed message"))
		return false
	}

	if msg.Type != msgJoin && !c.joined {
		h.reply(c, game.InvalidInput("join the room first"))
		return false
	}

	var err error
	switch msg.Type {
	case msgJoin:
		var d joinData
		if err = decodeData(msg.Data, &d); err == nil {
			if c.joined {
				err = game.InvalidInput("already joined")
				break
			}
			if _, err = h.gateway.Join(c.code, c.id, d.Nickname, d.Avatar); err == nil {
				c.joined = true
			}
		}
	case msgStart:
		err = h.gateway.StartGame(c.code, c.id)
	case msgSubmitAnswer:
		var d answerData
		if err = decodeData(msg.Data, &d); err == nil {
			err = h.gateway.SubmitAnswer(c.code, c.id, d.Answer)
		}
	case msgSubmitVote:
		var d voteData
		if err = decodeData(msg.Data, &d); err == nil {
			err = h.gateway.SubmitVote(c.code, c.id, d.ChoiceID)
		}
	case msgLeave:
		if err = h.gateway.Leave(c.code, c.id); err == nil {
			c.joined = false
			return true
		}
	default:
		err = game.InvalidInput("unknown message type %q", msg.Type)
	}

	if err != nil {
		h.reply(c, err)
	}
	return false
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return game.InvalidInput("missing message data")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return game.InvalidInput("malformed message data")
	}
	return nil
}

func (h *Handler) reply(c *client, err error) {
	h.hub.SendToConnection(c.code, c.id, rooms.ErrorMessage(err))
}

func (h *Handler) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

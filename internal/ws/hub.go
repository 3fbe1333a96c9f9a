package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jaywantadh/RelayByte/config"
	"github.com/jaywantadh/RelayByte/internal/relay"
	"github.com/jaywantadh/RelayByte/pkg/logging"
)

const writeWait = 10 * time.Second

// Envelope is the wire frame: every message carries an event name and a
// JSON payload. Chunk bytes travel base64-encoded inside the payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Peer is one connected websocket. Writes are serialized by the peer lock.
type Peer struct {
	ID   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *Peer) Send(event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(outEnvelope{Event: event, Data: payload})
}

// Hub upgrades connections, pumps inbound envelopes into the protocol
// engine, and delivers the engine's outbound events to the addressed peers.
type Hub struct {
	mu    sync.RWMutex
	peers map[string]*Peer

	engine       *relay.Engine
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	pongTimeout  time.Duration
	readLimit    int64
}

func NewHub(engine *relay.Engine, cfg *config.AppConfig) *Hub {
	h := &Hub{
		peers:        make(map[string]*Peer),
		engine:       engine,
		pingInterval: cfg.PingInterval,
		pongTimeout:  cfg.PongTimeout,
		readLimit:    cfg.MaxBufferSize,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			if cfg.CORSOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == cfg.CORSOrigin
		},
	}
	return h
}

// HandleWS is the GET /ws endpoint. It runs the peer's read loop until the
// connection dies, then routes the disconnect through the engine.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	peer := &Peer{ID: uuid.NewString(), conn: conn}
	h.mu.Lock()
	h.peers[peer.ID] = peer
	h.mu.Unlock()
	h.engine.Connect(peer.ID)

	done := make(chan struct{})
	go h.pingLoop(peer, done)

	h.readLoop(peer)

	close(done)
	h.mu.Lock()
	delete(h.peers, peer.ID)
	h.mu.Unlock()
	h.deliver(h.engine.Disconnect(peer.ID))
	conn.Close()
}

func (h *Hub) readLoop(peer *Peer) {
	conn := peer.conn
	conn.SetReadLimit(h.readLimit)
	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Log.WithError(err).WithField("socket", peer.ID).Debug("read loop ended")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logging.Log.WithError(err).WithField("socket", peer.ID).Warn("malformed envelope")
			continue
		}
		h.dispatch(peer.ID, env)
	}
}

// dispatch maps one inbound envelope to its engine operation and delivers
// the resulting events.
func (h *Hub) dispatch(connID string, env Envelope) {
	var outs []relay.Outbound

	switch env.Event {
	case relay.EventCreateTransfer:
		var msg relay.CreateTransferMessage
		if !decode(connID, env, &msg) {
			return
		}
		outs = h.engine.Create(connID, msg)
	case relay.EventJoinTransfer:
		var msg relay.JoinTransferMessage
		if !decode(connID, env, &msg) {
			return
		}
		outs = h.engine.Join(connID, msg)
	case relay.EventUploadChunk:
		var msg relay.UploadChunkMessage
		if !decode(connID, env, &msg) {
			return
		}
		outs = h.engine.UploadChunk(connID, msg)
	case relay.EventUploadComplete:
		var msg relay.UploadCompleteMessage
		if !decode(connID, env, &msg) {
			return
		}
		outs = h.engine.Complete(connID, msg)
	case relay.EventGetStatus:
		var msg relay.GetStatusMessage
		if !decode(connID, env, &msg) {
			return
		}
		outs = h.engine.Status(connID, msg)
	default:
		logging.Log.WithFields(map[string]any{
			"socket": connID,
			"event":  env.Event,
		}).Debug("ignoring unknown event")
		return
	}

	h.deliver(outs)
}

func decode(connID string, env Envelope, msg any) bool {
	if err := json.Unmarshal(env.Data, msg); err != nil {
		logging.Log.WithError(err).WithFields(map[string]any{
			"socket": connID,
			"event":  env.Event,
		}).Warn("malformed event payload")
		return false
	}
	return true
}

func (h *Hub) deliver(outs []relay.Outbound) {
	for _, out := range outs {
		h.mu.RLock()
		peer, ok := h.peers[out.To]
		h.mu.RUnlock()
		if !ok {
			logging.Log.WithFields(map[string]any{
				"socket": out.To,
				"event":  out.Event,
			}).Debug("dropping event for departed peer")
			continue
		}
		if err := peer.Send(out.Event, out.Payload); err != nil {
			logging.Log.WithError(err).WithFields(map[string]any{
				"socket": out.To,
				"event":  out.Event,
			}).Warn("failed to deliver event")
		}
	}
}

func (h *Hub) pingLoop(peer *Peer, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := peer.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/apogue/apogue/internal/lobby"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

// subscriber is one websocket listener on a lobby. Outgoing events are
// queued on out and written by a dedicated goroutine, so broadcasters
// never wait on the network.
type subscriber struct {
	conn *websocket.Conn
	out  chan []byte
}

func (s *subscriber) writePump(log *logrus.Logger) {
	for payload := range s.out {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := s.conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			log.WithError(err).Debug("lobby subscriber write failed")
			s.conn.Close(websocket.StatusGoingAway, "write failed")
			return
		}
	}
}

// Hub fans lobby state changes out to websocket subscribers, keyed by
// lobby id. Subscribers only listen; the protocol has no client commands.
type Hub struct {
	log *logrus.Logger

	mu   sync.Mutex
	subs map[int]map[*subscriber]struct{}
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[int]map[*subscriber]struct{}),
	}
}

func (h *Hub) subscribe(lobbyID int, c *websocket.Conn) *subscriber {
	s := &subscriber{conn: c, out: make(chan []byte, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[lobbyID] == nil {
		h.subs[lobbyID] = make(map[*subscriber]struct{})
	}
	h.subs[lobbyID][s] = struct{}{}
	h.mu.Unlock()

	go s.writePump(h.log)
	return s
}

// unsubscribe removes a subscriber and closes its queue exactly once;
// repeat calls for the same subscriber are no-ops.
func (h *Hub) unsubscribe(lobbyID int, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[lobbyID][s]; !ok {
		return
	}
	delete(h.subs[lobbyID], s)
	if len(h.subs[lobbyID]) == 0 {
		delete(h.subs, lobbyID)
	}
	close(s.out)
}

// BroadcastLobby queues a lobby_update event for every subscriber of the
// lobby. The send never blocks: a subscriber whose queue is full is
// dropped rather than delaying the join/leave/start request that
// triggered the broadcast.
func (h *Hub) BroadcastLobby(l lobby.Lobby) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":  "lobby_update",
		"lobby": l,
	})
	if err != nil {
		h.log.WithError(err).Error("marshal lobby update")
		return
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs[l.ID]))
	for s := range h.subs[l.ID] {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		select {
		case s.out <- payload:
		default:
			h.log.WithField("lobby_id", l.ID).Debug("dropping slow lobby subscriber")
			h.unsubscribe(l.ID, s)
			s.conn.Close(websocket.StatusPolicyViolation, "subscriber too slow")
		}
	}
}

// LobbyWSHandler upgrades to a websocket and streams lobby state changes.
// The current state is sent immediately so late subscribers catch up.
func LobbyWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathLobbyID(r)
		if !ok {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}

		l := gs.Lobbies.Get(id)
		if l.State == lobby.StateNotExists {
			http.Error(w, "lobby does not exist", http.StatusNotFound)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"lobby"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		s := gs.Hub.subscribe(id, c)
		defer gs.Hub.unsubscribe(id, s)

		logger.WithFields(logrus.Fields{
			"lobby_id": id,
			"remote":   r.RemoteAddr,
		}).Info("lobby subscriber connected")

		gs.Hub.BroadcastLobby(l)

		// Drain the connection until the client goes away; incoming
		// messages carry no meaning on this channel.
		for {
			if _, _, err := c.Read(r.Context()); err != nil {
				logger.WithFields(logrus.Fields{
					"lobby_id": id,
					"remote":   r.RemoteAddr,
				}).Info("lobby subscriber disconnected")
				return
			}
		}
	}
}

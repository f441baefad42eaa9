package websocket

import (
	"encoding/json"
	"strings"

	"github.com/scythe504/sketchguess-backend/internal"
	"github.com/scythe504/sketchguess-backend/internal/game"
)

// =============================================================================
// MESSAGE ROUTING
// =============================================================================

const (
	errGameNotFound   = "Game not found"
	errRoomFull       = "Room is full"
	errNotHost        = "Only the host can start the game"
	errInvalidMessage = "Invalid message"
	errNotIdentified  = "Identify before sending game actions"
	errStartFailed    = "Could not start the game"
	defaultPlayerName = "Player"
)

func (h *Hub) handleMessage(c *client, raw []byte) {
	var msg internal.InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.log.Debug("Failed to parse message", "error", err)
		h.sendError(c, errInvalidMessage)
		return
	}

	switch msg.Type {
	case internal.MsgIdentify:
		var data internal.IdentifyData
		if err := json.Unmarshal(msg.Data, &data); err != nil || h.validate.Struct(data) != nil {
			h.sendError(c, errInvalidMessage)
			return
		}
		h.handleIdentify(c, data)
	case internal.MsgStartGame:
		h.handleStart(c)
	case internal.MsgSubmitGuess:
		var data internal.GuessData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(c, errInvalidMessage)
			return
		}
		h.withRoom(c, func(room *game.Room, clientID string) {
			room.SubmitGuess(clientID, data.Guess)
		})
	case internal.MsgVideoError:
		var data internal.VideoErrorData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(c, errInvalidMessage)
			return
		}
		h.handleVideoError(c, data)
	case internal.MsgLeaveGame:
		h.handleLeave(c)
	default:
		c.log.Debug("Ignoring unknown message", "type", msg.Type)
	}
}

// handleIdentify joins a new player or reattaches a returning one.
func (h *Hub) handleIdentify(c *client, data internal.IdentifyData) {
	room, ok := h.registry.ByCode(data.RoomCode)
	if !ok {
		h.sendError(c, errGameNotFound)
		return
	}

	name := strings.TrimSpace(data.Name)
	if name == "" {
		name = defaultPlayerName
	}

	players := room.Players()
	if _, known := players[data.ClientID]; known {
		h.bind(c, data.ClientID, room.ID())
		room.SetConnectionStatus(data.ClientID, true)
		c.log.Info("Player reconnected", "client", data.ClientID, "room", room.ID())
		return
	}

	if len(players) >= h.maxPlayers {
		h.sendError(c, errRoomFull)
		return
	}

	h.bind(c, data.ClientID, room.ID())
	room.AddPlayer(internal.Player{
		ClientID:  data.ClientID,
		Name:      name,
		Connected: true,
	})
	c.log.Info("Player joined", "client", data.ClientID, "room", room.ID())
}

func (h *Hub) bind(c *client, clientID, roomID string) {
	if replaced := h.bindings.Bind(clientID, c.id, roomID); replaced != "" {
		if old, ok := h.conn(replaced); ok {
			c.log.Info("Closing superseded connection", "client", clientID, "old_conn", replaced)
			old.Close()
		}
	}
}

func (h *Hub) handleStart(c *client) {
	h.withRoom(c, func(room *game.Room, clientID string) {
		if room.HostID() != clientID {
			h.sendError(c, errNotHost)
			return
		}
		if err := room.Start(); err != nil {
			c.log.Error("Failed to start game", "room", room.ID(), "error", err)
			h.sendError(c, errStartFailed)
		}
	})
}

func (h *Hub) handleVideoError(c *client, data internal.VideoErrorData) {
	h.withRoom(c, func(room *game.Room, clientID string) {
		if err := room.RerollVideoForError(clientID, data.ErrorCode); err != nil {
			c.log.Error("Reroll failed, closing room", "room", room.ID(), "error", err)
			h.registry.Remove(room.ID())
		}
	})
}

func (h *Hub) handleLeave(c *client) {
	h.withRoom(c, func(room *game.Room, clientID string) {
		room.RemovePlayer(clientID)
		h.bindings.Forget(clientID)
		c.log.Info("Player left", "client", clientID, "room", room.ID())
	})
}

// withRoom resolves the identified client and its room for an action.
func (h *Hub) withRoom(c *client, fn func(room *game.Room, clientID string)) {
	clientID, ok := h.bindings.Lookup(c.id)
	if !ok {
		h.sendError(c, errNotIdentified)
		return
	}
	roomID, ok := h.bindings.RoomOf(clientID)
	if !ok {
		h.sendError(c, errGameNotFound)
		return
	}
	room, ok := h.registry.ByID(roomID)
	if !ok {
		h.sendError(c, errGameNotFound)
		return
	}
	fn(room, clientID)
}

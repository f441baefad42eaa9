package game

import (
	"sync"
)

// Bindings maps connections to clients and clients to rooms. A client keeps
// its room binding across disconnects so it can reconnect; only an explicit
// leave or a room purge drops it.
type Bindings struct {
	mu sync.Mutex

	connToClient map[string]string
	clientToConn map[string]string
	clientToRoom map[string]string
}

func NewBindings() *Bindings {
	return &Bindings{
		connToClient: make(map[string]string),
		clientToConn: make(map[string]string),
		clientToRoom: make(map[string]string),
	}
}

// Bind attaches connID to clientID in roomID. A previous connection of the
// same client is detached and returned so the caller can close it.
func (b *Bindings) Bind(clientID, connID, roomID string) (replaced string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, ok := b.clientToConn[clientID]; ok && prev != connID {
		delete(b.connToClient, prev)
		replaced = prev
	}
	if prevClient, ok := b.connToClient[connID]; ok && prevClient != clientID {
		delete(b.clientToConn, prevClient)
	}

	b.connToClient[connID] = clientID
	b.clientToConn[clientID] = connID
	b.clientToRoom[clientID] = roomID
	return replaced
}

// BindRoom records room membership for a client that has no connection yet.
func (b *Bindings) BindRoom(clientID, roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clientToRoom[clientID] = roomID
}

// Unbind detaches a closed connection. The client's room binding survives.
func (b *Bindings) Unbind(connID string) (clientID, roomID string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clientID, ok = b.connToClient[connID]
	if !ok {
		return "", "", false
	}
	delete(b.connToClient, connID)
	if b.clientToConn[clientID] == connID {
		delete(b.clientToConn, clientID)
	}
	return clientID, b.clientToRoom[clientID], true
}

func (b *Bindings) Lookup(connID string) (clientID string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	clientID, ok = b.connToClient[connID]
	return clientID, ok
}

func (b *Bindings) RoomOf(clientID string) (roomID string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	roomID, ok = b.clientToRoom[clientID]
	return roomID, ok
}

func (b *Bindings) ConnOf(clientID string) (connID string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	connID, ok = b.clientToConn[clientID]
	return connID, ok
}

// Forget drops every entry for clientID.
func (b *Bindings) Forget(clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forget(clientID)
}

// ForgetRoom drops every client bound to roomID, plus the listed members
// in case their room binding already moved on.
func (b *Bindings) ForgetRoom(roomID string, members []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for clientID, bound := range b.clientToRoom {
		if bound == roomID {
			b.forget(clientID)
		}
	}
	for _, clientID := range members {
		if b.clientToRoom[clientID] == roomID || b.clientToRoom[clientID] == "" {
			b.forget(clientID)
		}
	}
}

// Len returns the number of live connections and room-bound clients.
func (b *Bindings) Len() (conns, clients int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.connToClient), len(b.clientToRoom)
}

// forget must be called with b.mu held.
func (b *Bindings) forget(clientID string) {
	if connID, ok := b.clientToConn[clientID]; ok {
		delete(b.connToClient, connID)
	}
	delete(b.clientToConn, clientID)
	delete(b.clientToRoom, clientID)
}

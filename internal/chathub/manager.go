// Package chathub is the chat room broker: it tracks which connections are
// in which session room, persists chat messages and fans room events out to
// the connections.
package chathub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/metrics"
	"studybuddy/backend/internal/models"
	"studybuddy/backend/internal/storage"

	"github.com/patrickmn/go-cache"
)

// RoomStats is a point-in-time view of the registry.
type RoomStats struct {
	Clients int
	Rooms   int
}

// ManagerService is the hub. The registry is process-local and rebuilt from
// scratch on restart.
type ManagerService struct {
	Storage storage.Storage
	Relay   Relay

	mu      sync.RWMutex
	clients map[string]Client
	rooms   map[uint]map[string]Client
	joined  map[string]map[uint]struct{}

	// members caches positive participation checks for room joins.
	members *cache.Cache
	// evictions counts membership revocations; a join whose check raced one
	// is re-checked.
	evictions uint64
}

// NewManagerService Constructor
func NewManagerService(s storage.Storage, relay Relay) *ManagerService {
	return &ManagerService{
		Storage: s,
		Relay:   relay,
		clients: make(map[string]Client),
		rooms:   make(map[uint]map[string]Client),
		joined:  make(map[string]map[uint]struct{}),
		members: cache.New(config.MembershipCacheTTL, config.MembershipCacheCleanup),
	}
}

// Run delivers relayed room events until ctx is done, then closes every
// connection.
func (m *ManagerService) Run(ctx context.Context) {
	relayed := m.Relay.Subscribe(ctx)
	log.Println("INFO: Chat hub started.")

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			log.Println("INFO: Chat hub stopped.")
			return

		case env, ok := <-relayed:
			if !ok {
				log.Println("ERROR: Relay subscription closed, room events will no longer be delivered.")
				relayed = nil
				continue
			}
			m.deliver(env)
		}
	}
}

// Register adds a connection to the registry. It must be called before the
// client starts reading.
func (m *ManagerService) Register(c Client) {
	m.mu.Lock()
	m.clients[c.GetConnID()] = c
	m.updateGauges()
	m.mu.Unlock()

	log.Printf("INFO: Client %s registered for user %d", c.GetConnID(), c.GetUserID())
}

// Disconnect leaves every room the connection had joined and closes it.
// Other room members are not notified.
func (m *ManagerService) Disconnect(c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	connID := c.GetConnID()
	if _, ok := m.clients[connID]; !ok {
		return
	}
	for sessionID := range m.joined[connID] {
		m.removeFromRoom(sessionID, connID)
	}
	delete(m.joined, connID)
	delete(m.clients, connID)
	c.Close()
	m.updateGauges()

	log.Printf("INFO: Client %s (user %d) disconnected", connID, c.GetUserID())
}

// Stats reports the number of registered connections and non-empty rooms.
func (m *ManagerService) Stats() RoomStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return RoomStats{Clients: len(m.clients), Rooms: len(m.rooms)}
}

// InRoom reports whether the connection has joined the session room.
func (m *ManagerService) InRoom(connID string, sessionID uint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[sessionID][connID]
	return ok
}

// deliver fans one relayed event out to the room. Connections whose send
// buffer is full are dropped.
func (m *ManagerService) deliver(env models.RoomEnvelope) {
	event := models.Event{Name: env.Event, Data: env.Data}

	var slow []Client
	m.mu.RLock()
	for _, c := range m.rooms[env.SessionID] {
		select {
		case c.GetSendChannel() <- event:
		default:
			slow = append(slow, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range slow {
		log.Printf("WARNING: Dropping slow client %s in session %d", c.GetConnID(), env.SessionID)
		metrics.DroppedClients.Inc()
		m.Disconnect(c)
	}

	if env.Event == models.EventSessionDeleted {
		m.closeRoom(env.SessionID)
	}
}

// sendTo writes an event to a single registered connection.
func (m *ManagerService) sendTo(c Client, event models.Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.clients[c.GetConnID()]; !ok {
		return
	}
	select {
	case c.GetSendChannel() <- event:
	default:
		log.Printf("WARNING: Send buffer full for client %s, dropping %s event", c.GetConnID(), event.Name)
	}
}

func (m *ManagerService) publish(ctx context.Context, sessionID uint, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", name, err)
	}
	return m.Relay.Publish(ctx, models.RoomEnvelope{SessionID: sessionID, Event: name, Data: data})
}

// closeRoom detaches every connection from the room and forgets cached
// memberships for the session.
func (m *ManagerService) closeRoom(sessionID uint) {
	m.mu.Lock()
	m.evictions++
	for connID := range m.rooms[sessionID] {
		delete(m.joined[connID], sessionID)
	}
	delete(m.rooms, sessionID)
	m.evictSession(sessionID)
	m.updateGauges()
	m.mu.Unlock()

	log.Printf("INFO: Room %d closed", sessionID)
}

// detachUser forgets the user's cached membership and removes all of their
// connections from a room.
func (m *ManagerService) detachUser(sessionID, userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictions++
	m.members.Delete(memberKey(sessionID, userID))
	for connID, c := range m.rooms[sessionID] {
		if c.GetUserID() == userID {
			m.removeFromRoom(sessionID, connID)
			delete(m.joined[connID], sessionID)
		}
	}
	m.updateGauges()
}

func (m *ManagerService) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.clients {
		c.Close()
	}
	m.clients = make(map[string]Client)
	m.rooms = make(map[uint]map[string]Client)
	m.joined = make(map[string]map[uint]struct{})
	m.updateGauges()
}

// removeFromRoom expects m.mu to be held.
func (m *ManagerService) removeFromRoom(sessionID uint, connID string) {
	room := m.rooms[sessionID]
	delete(room, connID)
	if len(room) == 0 {
		delete(m.rooms, sessionID)
	}
}

// updateGauges expects m.mu to be held.
func (m *ManagerService) updateGauges() {
	metrics.ConnectedClients.Set(float64(len(m.clients)))
	metrics.ActiveRooms.Set(float64(len(m.rooms)))
}

func memberKey(sessionID, userID uint) string {
	return fmt.Sprintf("%d:%d", sessionID, userID)
}

// evictSession expects m.mu to be held.
func (m *ManagerService) evictSession(sessionID uint) {
	prefix := fmt.Sprintf("%d:", sessionID)
	for key := range m.members.Items() {
		if strings.HasPrefix(key, prefix) {
			m.members.Delete(key)
		}
	}
}

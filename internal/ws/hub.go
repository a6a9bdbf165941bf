package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Hub управляет всеми WebSocket клиентами. Клиенты группируются по
// пользователю и по типу пользователя: событие о новой заявке уходит всем
// подключённым волонтёрам, события по конкретной заявке — её сторонам.
type Hub struct {
	mu         sync.RWMutex
	byUser     map[uuid.UUID]map[*Client]struct{}
	byType     map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
}

type message struct {
	userID   uuid.UUID
	userType string
	payload  []byte
}

// NewHub создаёт новый хаб.
func NewHub() *Hub {
	return &Hub{
		byUser:     make(map[uuid.UUID]map[*Client]struct{}),
		byType:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 32),
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToUser отправляет событие всем устройствам пользователя.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	raw, err := encodeEvent(event, data)
	if err != nil {
		return err
	}
	h.broadcast <- message{userID: userID, payload: raw}
	return nil
}

// BroadcastToUserType отправляет событие всем пользователям заданного типа.
func (h *Hub) BroadcastToUserType(userType string, event string, data any) error {
	raw, err := encodeEvent(event, data)
	if err != nil {
		return err
	}
	h.broadcast <- message{userType: userType, payload: raw}
	return nil
}

// encodeEvent сериализует событие по контракту WebSocket API:
// поле "type" содержит имя события, "data" — полезную нагрузку.
func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(map[string]any{
		"type": event,
		"data": data,
	})
	if err != nil {
		return nil, fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}
	return raw, nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.byUser[client.userID]; !ok {
		h.byUser[client.userID] = make(map[*Client]struct{})
	}
	h.byUser[client.userID][client] = struct{}{}

	if _, ok := h.byType[client.userType]; !ok {
		h.byType[client.userType] = make(map[*Client]struct{})
	}
	h.byType[client.userType][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.byUser[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.byUser, client.userID)
		}
	}
	if clients, ok := h.byType[client.userType]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.byType, client.userType)
		}
	}
}

func (h *Hub) send(msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var targets map[*Client]struct{}
	if msg.userType != "" {
		targets = h.byType[msg.userType]
	} else {
		targets = h.byUser[msg.userID]
	}

	for client := range targets {
		select {
		case client.send <- msg.payload:
		default:
			// Медленный клиент: закрываем асинхронно, чтобы не держать lock.
			go client.Close()
		}
	}
}

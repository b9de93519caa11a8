package ws

import (
	"sync"

	"gigsos_backend/internal/logger"
	"gigsos_backend/internal/metrics"
)

// WebSocketManager держит подключения пользователей. У одного пользователя
// может быть несколько соединений (вкладки, устройства).
type WebSocketManager struct {
	clients    map[uint64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[uint64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run - цикл регистрации; завершается через Stop
func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.add(client)

		case client := <-manager.unregister:
			manager.remove(client)

		case <-manager.done:
			manager.closeAll()
			return
		}
	}
}

// Stop закрывает все соединения и останавливает Run
func (manager *WebSocketManager) Stop() {
	close(manager.done)
}

func (manager *WebSocketManager) add(client *Client) {
	manager.mu.Lock()
	set, ok := manager.clients[client.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		manager.clients[client.UserID] = set
	}
	set[client] = struct{}{}
	total := manager.countLocked()
	manager.mu.Unlock()

	metrics.SetWSConnections(total)
	logger.Debug("ws client registered", "user_id", client.UserID, "total", total)
}

func (manager *WebSocketManager) remove(client *Client) {
	manager.mu.Lock()
	set, ok := manager.clients[client.UserID]
	if !ok {
		manager.mu.Unlock()
		return
	}
	if _, exists := set[client]; !exists {
		manager.mu.Unlock()
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(manager.clients, client.UserID)
	}
	close(client.Send)
	total := manager.countLocked()
	manager.mu.Unlock()

	metrics.SetWSConnections(total)
	logger.Debug("ws client unregistered", "user_id", client.UserID, "total", total)
}

func (manager *WebSocketManager) closeAll() {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	for userID, set := range manager.clients {
		for client := range set {
			close(client.Send)
		}
		delete(manager.clients, userID)
	}
	metrics.SetWSConnections(0)
}

// SendToUser отправляет payload во все соединения пользователя.
// Переполненный клиент отключается. Возвращает true, если доставлено хотя бы в одно.
func (manager *WebSocketManager) SendToUser(userID uint64, payload interface{}) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	delivered := false
	for client := range manager.clients[userID] {
		select {
		case client.Send <- payload:
			delivered = true
		default:
			logger.Warn("ws send buffer full, dropping client", "user_id", userID)
			go manager.drop(client)
		}
	}
	return delivered
}

func (manager *WebSocketManager) drop(client *Client) {
	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

// ClientCount - число открытых соединений
func (manager *WebSocketManager) ClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.countLocked()
}

func (manager *WebSocketManager) countLocked() int {
	total := 0
	for _, set := range manager.clients {
		total += len(set)
	}
	return total
}

// IsConnected проверяет, есть ли у пользователя хотя бы одно соединение
func (manager *WebSocketManager) IsConnected(userID uint64) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients[userID]) > 0
}

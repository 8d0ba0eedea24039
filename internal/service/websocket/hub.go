package websocket

import (
	"encoding/json"
	"sync"

	"violencedetector/internal/dto"
	"violencedetector/internal/logger"
	"violencedetector/internal/model"

	"github.com/gorilla/websocket"
)

// broadcastBuffer bounds how many undelivered messages the hub queues
// before new ones are dropped.
const broadcastBuffer = 256

// HubService fans progress messages out to connected viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until Stop is called.
func (h *HubService) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", h.GetClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", h.GetClientCount())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()

		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop ends Run and closes every connection.
func (h *HubService) Stop() {
	close(h.done)
}

func (h *HubService) Register(client *websocket.Conn) {
	h.register <- client
}

func (h *HubService) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// Broadcast queues message for every viewer. It never blocks; when the
// queue is full the message is dropped.
func (h *HubService) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warning("Broadcast queue full, dropping message")
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// OnProgress publishes the progress of a running analysis.
func (h *HubService) OnProgress(id string, fraction float64) {
	h.publish(dto.ProgressMessage{ID: id, Progress: fraction, Status: string(model.StatusProcessing)})
}

// OnFinished publishes the final status of an analysis.
func (h *HubService) OnFinished(id string, status model.AnalysisStatus) {
	h.publish(dto.ProgressMessage{ID: id, Progress: 1, Status: string(status)})
}

func (h *HubService) publish(msg dto.ProgressMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error encoding progress message: %v", err)
		return
	}
	h.Broadcast(data)
}

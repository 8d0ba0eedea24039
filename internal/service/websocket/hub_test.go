package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"violencedetector/internal/dto"
	"violencedetector/internal/logger"
	"violencedetector/internal/model"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *HubService {
	t.Helper()
	l, err := logger.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(l.Close)
	return NewHubService(l)
}

// connectViewer starts a server that registers every connection in hub and
// dials it once.
func connectViewer(t *testing.T, hub *HubService) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) dto.ProgressMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg dto.ProgressMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_ProgressReachesViewer(t *testing.T) {
	hub := newTestHub(t)
	go hub.Run()
	defer hub.Stop()

	conn := connectViewer(t, hub)

	hub.OnProgress("abc", 0.25)
	msg := readMessage(t, conn)
	assert.Equal(t, "abc", msg.ID)
	assert.Equal(t, 0.25, msg.Progress)
	assert.Equal(t, string(model.StatusProcessing), msg.Status)

	hub.OnFinished("abc", model.StatusCompleted)
	msg = readMessage(t, conn)
	assert.Equal(t, 1.0, msg.Progress)
	assert.Equal(t, string(model.StatusCompleted), msg.Status)
}

func TestHub_Unregister(t *testing.T) {
	hub := newTestHub(t)
	go hub.Run()
	defer hub.Stop()

	connectViewer(t, hub)

	hub.mutex.RLock()
	var server *websocket.Conn
	for c := range hub.clients {
		server = c
	}
	hub.mutex.RUnlock()

	hub.Unregister(server)
	assert.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := newTestHub(t)

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*2; i++ {
			hub.OnProgress("abc", float64(i)/float64(broadcastBuffer*2))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked without a running hub")
	}
	assert.Len(t, hub.broadcast, broadcastBuffer)
}

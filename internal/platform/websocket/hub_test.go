package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHub() *Hub {
	return NewHub(zerolog.Nop())
}

func newTestClient(id string, userID uuid.UUID, topics ...string) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		Topics: topics,
		Send:   make(chan []byte, 256),
	}
}

func TestHub_RegisterClient(t *testing.T) {
	hub := newTestHub()
	client := newTestClient("client-1", uuid.New(), TopicReadings)

	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.TopicCount(TopicReadings) != 1 {
		t.Fatalf("expected 1 client on readings, got %d", hub.TopicCount(TopicReadings))
	}
}

func TestHub_UnregisterClient(t *testing.T) {
	hub := newTestHub()
	client := newTestClient("client-2", uuid.New(), TopicAlerts)

	hub.Register(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	if hub.TopicCount(TopicAlerts) != 0 {
		t.Fatalf("expected 0 clients on alerts, got %d", hub.TopicCount(TopicAlerts))
	}
}

func TestHub_BroadcastToTopic(t *testing.T) {
	hub := newTestHub()

	subscriber := newTestClient("sub-1", uuid.New(), TopicReadings)
	nonSubscriber := newTestClient("non-sub-1", uuid.New(), TopicLipids)

	hub.Register(subscriber)
	hub.Register(nonSubscriber)

	event := Event{
		Type:      "reading.created",
		Topic:     TopicReadings,
		Timestamp: time.Now(),
	}

	hub.Broadcast(TopicReadings, event)

	select {
	case msg := <-subscriber.Send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		if received.Type != "reading.created" {
			t.Fatalf("expected event type reading.created, got %s", received.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	select {
	case <-nonSubscriber.Send:
		t.Fatal("non-subscriber should not have received event")
	default:
		// expected
	}
}

func TestHub_BroadcastUserIsolation(t *testing.T) {
	hub := newTestHub()

	owner := uuid.New()
	stranger := uuid.New()

	ownerClient := newTestClient("owner", owner, TopicReadings)
	strangerClient := newTestClient("stranger", stranger, TopicReadings)

	hub.Register(ownerClient)
	hub.Register(strangerClient)

	event := Event{
		Type:      "reading.created",
		Topic:     TopicReadings,
		Timestamp: time.Now(),
	}

	hub.BroadcastUser(owner, TopicReadings, event)

	select {
	case <-ownerClient.Send:
		// expected
	case <-time.After(time.Second):
		t.Fatal("owner did not receive event")
	}

	select {
	case <-strangerClient.Send:
		t.Fatal("another user's client must not receive the event")
	default:
		// expected
	}
}

func TestHub_BroadcastAll(t *testing.T) {
	hub := newTestHub()

	c1 := newTestClient("all-1", uuid.New(), TopicReadings)
	c2 := newTestClient("all-2", uuid.New(), TopicLipids)

	hub.Register(c1)
	hub.Register(c2)

	event := Event{
		Type:      "system.shutdown",
		Topic:     "system",
		Timestamp: time.Now(),
	}

	hub.BroadcastAll(event)

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.Send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if received.Type != "system.shutdown" {
				t.Fatalf("expected system.shutdown, got %s", received.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive broadcast", c.ID)
		}
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := newTestHub()

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0, got %d", hub.ClientCount())
	}

	clients := make([]*Client, 5)
	for i := range clients {
		clients[i] = newTestClient(fmt.Sprintf("count-%d", i), uuid.New(), TopicReadings)
		hub.Register(clients[i])
	}

	if hub.ClientCount() != 5 {
		t.Fatalf("expected 5, got %d", hub.ClientCount())
	}

	hub.Unregister(clients[0])
	hub.Unregister(clients[1])

	if hub.ClientCount() != 3 {
		t.Fatalf("expected 3, got %d", hub.ClientCount())
	}
}

func TestHub_TopicCount(t *testing.T) {
	hub := newTestHub()

	c1 := newTestClient("tc-1", uuid.New(), TopicReadings)
	c2 := newTestClient("tc-2", uuid.New(), TopicReadings)
	c3 := newTestClient("tc-3", uuid.New(), TopicAlerts)

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	if hub.TopicCount(TopicReadings) != 2 {
		t.Fatalf("expected 2 on readings, got %d", hub.TopicCount(TopicReadings))
	}
	if hub.TopicCount(TopicAlerts) != 1 {
		t.Fatalf("expected 1 on alerts, got %d", hub.TopicCount(TopicAlerts))
	}
	if hub.TopicCount("nonexistent") != 0 {
		t.Fatalf("expected 0 on nonexistent, got %d", hub.TopicCount("nonexistent"))
	}
}

func TestHub_MultipleTopics(t *testing.T) {
	hub := newTestHub()

	client := newTestClient("multi-1", uuid.New(), TopicReadings, TopicAlerts)
	hub.Register(client)

	event := Event{
		Type:      "reading.updated",
		Topic:     TopicReadings,
		Timestamp: time.Now(),
	}
	hub.Broadcast(TopicReadings, event)

	select {
	case msg := <-client.Send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if received.Topic != TopicReadings {
			t.Fatalf("expected topic readings, got %s", received.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("did not receive event on readings")
	}

	if hub.TopicCount(TopicReadings) != 1 {
		t.Fatalf("expected 1 on readings, got %d", hub.TopicCount(TopicReadings))
	}
	if hub.TopicCount(TopicAlerts) != 1 {
		t.Fatalf("expected 1 on alerts, got %d", hub.TopicCount(TopicAlerts))
	}
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	hub := newTestHub()
	client := newTestClient("close-1", uuid.New(), TopicReadings)

	hub.Register(client)
	hub.Unregister(client)

	// Reading from a closed channel returns zero value immediately
	_, ok := <-client.Send
	if ok {
		t.Fatal("expected Send channel to be closed after unregister")
	}
}

func TestHub_BroadcastToEmptyTopic(t *testing.T) {
	hub := newTestHub()

	event := Event{
		Type:      "reading.deleted",
		Topic:     "no-one-here",
		Timestamp: time.Now(),
	}

	// Should not panic
	hub.Broadcast("no-one-here", event)
}

func TestHub_ConcurrentRegisterUnregister(t *testing.T) {
	hub := newTestHub()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n * 2)

	clients := make([]*Client, n)
	for i := 0; i < n; i++ {
		clients[i] = newTestClient(fmt.Sprintf("concurrent-%d", i), uuid.New(), TopicReadings)
	}

	// Register all concurrently
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}

	// Unregister all concurrently
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}

	wg.Wait()

	count := hub.ClientCount()
	if count < 0 {
		t.Fatalf("client count should not be negative, got %d", count)
	}
}

func TestEvent_WithData(t *testing.T) {
	payload := json.RawMessage(`{"systolic":185,"diastolic":95,"urgent":true}`)
	event := Event{
		Type:      "reading.crisis",
		Topic:     TopicAlerts,
		Timestamp: time.Now(),
		Data:      payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event with data: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal event with data: %v", err)
	}

	if decoded.Data == nil {
		t.Fatal("expected Data to be non-nil")
	}

	var payloadMap map[string]interface{}
	if err := json.Unmarshal(decoded.Data, &payloadMap); err != nil {
		t.Fatalf("failed to unmarshal Data payload: %v", err)
	}
	if payloadMap["urgent"] != true {
		t.Fatalf("expected urgent true, got %v", payloadMap["urgent"])
	}
}

func TestHub_PublishEvent(t *testing.T) {
	hub := newTestHub()

	userID := uuid.New()
	client := newTestClient("pub-1", userID, TopicReadings)
	hub.Register(client)

	var publisher EventPublisher = hub

	event := Event{
		Type:      "reading.created",
		Topic:     TopicReadings,
		Timestamp: time.Now(),
	}

	if err := publisher.Publish(context.Background(), userID, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-client.Send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if received.Type != "reading.created" {
			t.Fatalf("expected reading.created, got %s", received.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("did not receive published event")
	}
}

func TestHub_SubscribeAddsTopics(t *testing.T) {
	hub := newTestHub()
	client := newTestClient("dynamic-sub-1", uuid.New())
	hub.Register(client)

	hub.Subscribe(client, []string{TopicReadings, TopicRisk})

	if hub.TopicCount(TopicReadings) != 1 {
		t.Fatalf("expected 1 on readings, got %d", hub.TopicCount(TopicReadings))
	}
	if hub.TopicCount(TopicRisk) != 1 {
		t.Fatalf("expected 1 on risk, got %d", hub.TopicCount(TopicRisk))
	}
	if len(client.Topics) != 2 {
		t.Fatalf("expected 2 topics on client, got %d", len(client.Topics))
	}
}

func TestHub_UnsubscribeRemovesTopics(t *testing.T) {
	hub := newTestHub()
	client := newTestClient("dynamic-unsub-1", uuid.New(), TopicReadings, TopicLipids, TopicAlerts)
	hub.Register(client)

	hub.Unsubscribe(client, []string{TopicReadings, TopicAlerts})

	if hub.TopicCount(TopicReadings) != 0 {
		t.Fatalf("expected 0 on readings, got %d", hub.TopicCount(TopicReadings))
	}
	if hub.TopicCount(TopicLipids) != 1 {
		t.Fatalf("expected 1 on lipids, got %d", hub.TopicCount(TopicLipids))
	}
	if hub.TopicCount(TopicAlerts) != 0 {
		t.Fatalf("expected 0 on alerts, got %d", hub.TopicCount(TopicAlerts))
	}
	if len(client.Topics) != 1 {
		t.Fatalf("expected 1 topic remaining, got %d", len(client.Topics))
	}
}

func TestClientMessage_ProcessSubscribe(t *testing.T) {
	hub := newTestHub()
	client := newTestClient("process-1", uuid.New())
	hub.Register(client)

	raw := `{"action":"subscribe","topics":["readings","alerts"]}`
	var msg ClientMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	hub.ProcessMessage(client, msg)

	if hub.TopicCount(TopicReadings) != 1 {
		t.Fatalf("expected 1 subscriber on readings, got %d", hub.TopicCount(TopicReadings))
	}
	if hub.TopicCount(TopicAlerts) != 1 {
		t.Fatalf("expected 1 subscriber on alerts, got %d", hub.TopicCount(TopicAlerts))
	}
}

func TestClientMessage_ProcessUnsubscribe(t *testing.T) {
	hub := newTestHub()
	client := newTestClient("process-2", uuid.New(), TopicReadings, TopicLipids)
	hub.Register(client)

	raw := `{"action":"unsubscribe","topics":["readings"]}`
	var msg ClientMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	hub.ProcessMessage(client, msg)

	if hub.TopicCount(TopicReadings) != 0 {
		t.Fatalf("expected 0 on readings, got %d", hub.TopicCount(TopicReadings))
	}
	if hub.TopicCount(TopicLipids) != 1 {
		t.Fatalf("expected 1 on lipids, got %d", hub.TopicCount(TopicLipids))
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	hub := newTestHub()
	handler := NewHandler(hub)

	e := echo.New()
	g := e.Group("")
	handler.RegisterRoutes(g)

	routes := e.Routes()
	found := false
	for _, r := range routes {
		if r.Path == "/ws" && r.Method == http.MethodGet {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected GET /ws route to be registered")
	}
}

func TestHandler_HandleConnectRequiresWebSocket(t *testing.T) {
	hub := newTestHub()
	handler := NewHandler(hub)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.HandleConnect(c)

	// gorilla/websocket upgrader will reject non-WS requests
	if err == nil && rec.Code == http.StatusSwitchingProtocols {
		t.Fatal("expected upgrade to fail for non-websocket request")
	}
}

func TestHandler_FullUpgradeWithDialer(t *testing.T) {
	hub := newTestHub()
	handler := NewHandler(hub)

	e := echo.New()
	g := e.Group("")
	handler.RegisterRoutes(g)

	server := httptest.NewServer(e)
	defer server.Close()

	// Convert http URL to ws URL
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	dialer := gorillawebsocket.Dialer{}
	conn, resp, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	// Give the goroutine a moment to register
	time.Sleep(50 * time.Millisecond)
	if hub.ClientCount() < 1 {
		t.Fatal("expected at least 1 client registered after connect")
	}

	// Send a subscribe message
	subMsg := ClientMessage{
		Action: "subscribe",
		Topics: []string{TopicReadings},
	}
	if err := conn.WriteJSON(subMsg); err != nil {
		t.Fatalf("failed to send subscribe: %v", err)
	}

	// Give the server time to process the subscribe
	time.Sleep(50 * time.Millisecond)

	if hub.TopicCount(TopicReadings) != 1 {
		t.Fatalf("expected 1 subscriber on readings, got %d", hub.TopicCount(TopicReadings))
	}

	// Broadcast an event and verify the client receives it
	event := Event{
		Type:      "reading.created",
		Topic:     TopicReadings,
		Timestamp: time.Now(),
	}
	hub.Broadcast(TopicReadings, event)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received Event
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if received.Type != "reading.created" {
		t.Fatalf("expected reading.created, got %s", received.Type)
	}
}

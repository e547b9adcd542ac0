// Package alerts delivers crisis notifications to user-registered webhook
// endpoints. Payloads are HMAC-SHA256 signed, every attempt is logged, and
// failed deliveries retry with backoff.
package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Endpoint statuses.
const (
	StatusActive = "active"
	StatusPaused = "paused"
)

// Delivery statuses.
const (
	DeliveryPending = "pending"
	DeliverySuccess = "success"
	DeliveryFailed  = "failed"
)

// Event types dispatched by the server. Subscriptions may also use
// wildcard patterns such as "reading.*" or "*.crisis".
const (
	EventReadingCrisis = "reading.crisis"
	EventTest          = "alert.test"
)

var (
	ErrEndpointNotFound = errors.New("alert endpoint not found")
	ErrDeliveryNotFound = errors.New("delivery not found")
)

// Endpoint is a webhook destination registered by a user.
type Endpoint struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	URL       string    `json:"url"`
	Secret    string    `json:"secret,omitempty"`
	Events    []string  `json:"events"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Delivery records a single delivery attempt for an alert event.
type Delivery struct {
	ID           uuid.UUID     `json:"id"`
	EndpointID   uuid.UUID     `json:"endpoint_id"`
	EventType    string        `json:"event_type"`
	EventID      uuid.UUID     `json:"event_id"`
	Payload      []byte        `json:"payload"`
	Signature    string        `json:"signature"`
	StatusCode   int           `json:"status_code"`
	ResponseBody string        `json:"response_body,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
	Attempt      int           `json:"attempt"`
	Status       string        `json:"status"`
	Error        string        `json:"error,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Event is an alert to be delivered to a user's endpoints.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	UserID    uuid.UUID       `json:"user_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// DeliveryResult summarises the outcome of delivering an event to one endpoint.
type DeliveryResult struct {
	EndpointID uuid.UUID `json:"endpoint_id"`
	Success    bool      `json:"success"`
	StatusCode int       `json:"status_code"`
	Error      string    `json:"error,omitempty"`
}

// Store defines the persistence interface for endpoints and deliveries.
type Store interface {
	CreateEndpoint(ctx context.Context, ep *Endpoint) error
	GetEndpoint(ctx context.Context, id uuid.UUID) (*Endpoint, error)
	ListEndpoints(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Endpoint, int, error)
	UpdateEndpoint(ctx context.Context, ep *Endpoint) error
	DeleteEndpoint(ctx context.Context, id uuid.UUID) error
	RecordDelivery(ctx context.Context, d *Delivery) error
	ListDeliveries(ctx context.Context, endpointID uuid.UUID, limit, offset int) ([]*Delivery, int, error)
	GetDelivery(ctx context.Context, id uuid.UUID) (*Delivery, error)
}

// MemoryStore is a thread-safe, in-memory implementation of Store.
type MemoryStore struct {
	mu         sync.RWMutex
	endpoints  map[uuid.UUID]*Endpoint
	deliveries map[uuid.UUID]*Delivery
	// ordered keys for deterministic pagination
	endpointOrder []uuid.UUID
	deliveryOrder []uuid.UUID
}

// NewMemoryStore creates a new empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		endpoints:  make(map[uuid.UUID]*Endpoint),
		deliveries: make(map[uuid.UUID]*Delivery),
	}
}

func (s *MemoryStore) CreateEndpoint(_ context.Context, ep *Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[ep.ID] = ep
	s.endpointOrder = append(s.endpointOrder, ep.ID)
	return nil
}

func (s *MemoryStore) GetEndpoint(_ context.Context, id uuid.UUID) (*Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, ok := s.endpoints[id]
	if !ok {
		return nil, ErrEndpointNotFound
	}
	return ep, nil
}

func (s *MemoryStore) ListEndpoints(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Endpoint, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []*Endpoint
	for _, id := range s.endpointOrder {
		ep := s.endpoints[id]
		if ep == nil {
			continue
		}
		if userID == uuid.Nil || ep.UserID == userID {
			filtered = append(filtered, ep)
		}
	}
	total := len(filtered)
	if offset >= total {
		return []*Endpoint{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

func (s *MemoryStore) UpdateEndpoint(_ context.Context, ep *Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.endpoints[ep.ID]; !ok {
		return ErrEndpointNotFound
	}
	s.endpoints[ep.ID] = ep
	return nil
}

func (s *MemoryStore) DeleteEndpoint(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.endpoints[id]; !ok {
		return ErrEndpointNotFound
	}
	delete(s.endpoints, id)
	for i, eid := range s.endpointOrder {
		if eid == id {
			s.endpointOrder = append(s.endpointOrder[:i], s.endpointOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) RecordDelivery(_ context.Context, d *Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[d.ID]; !ok {
		s.deliveryOrder = append(s.deliveryOrder, d.ID)
	}
	s.deliveries[d.ID] = d
	return nil
}

func (s *MemoryStore) ListDeliveries(_ context.Context, endpointID uuid.UUID, limit, offset int) ([]*Delivery, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []*Delivery
	for _, id := range s.deliveryOrder {
		d := s.deliveries[id]
		if d == nil {
			continue
		}
		if d.EndpointID == endpointID {
			filtered = append(filtered, d)
		}
	}
	total := len(filtered)
	if offset >= total {
		return []*Delivery{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

func (s *MemoryStore) GetDelivery(_ context.Context, id uuid.UUID) (*Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliveries[id]
	if !ok {
		return nil, ErrDeliveryNotFound
	}
	return d, nil
}

// SignPayload computes an HMAC-SHA256 signature of the payload under the
// given secret, hex encoded.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature returns true when the hex-encoded signature matches the
// HMAC-SHA256 of payload under the given secret.
func VerifySignature(payload []byte, secret, signature string) bool {
	expected := SignPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient overrides the default HTTP client used for deliveries.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithMaxRetries sets the number of retry attempts after a failed delivery.
func WithMaxRetries(n int) Option {
	return func(m *Manager) { m.maxRetries = n }
}

// WithRetryDelays sets the waits between retry attempts. The last delay
// repeats when there are more retries than delays.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(m *Manager) { m.retryDelays = delays }
}

// WithTimeout sets the per-request delivery timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.httpClient.Timeout = d }
}

// Manager orchestrates endpoint registration, event delivery, and retries.
type Manager struct {
	store       Store
	httpClient  *http.Client
	maxRetries  int
	retryDelays []time.Duration
	logger      zerolog.Logger
}

// NewManager creates a Manager with sensible defaults.
func NewManager(store Store, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries:  3,
		retryDelays: []time.Duration{1 * time.Second, 30 * time.Second, 5 * time.Minute},
		logger:      logger,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// generateSecret produces a cryptographically random 32-byte hex string.
func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// validateEndpointURL checks that the URL is non-empty and uses http or https.
func validateEndpointURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}

// RegisterEndpoint validates and persists a new endpoint for the user. If
// secret is empty a cryptographically random one is generated. Endpoints
// with no explicit subscriptions receive crisis events.
func (m *Manager) RegisterEndpoint(ctx context.Context, userID uuid.UUID, rawURL, secret string, events []string) (*Endpoint, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user is required")
	}
	if err := validateEndpointURL(rawURL); err != nil {
		return nil, err
	}
	if secret == "" {
		s, err := generateSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate secret: %w", err)
		}
		secret = s
	}
	if len(events) == 0 {
		events = []string{EventReadingCrisis}
	}

	ep := &Endpoint{
		ID:        uuid.New(),
		UserID:    userID,
		URL:       rawURL,
		Secret:    secret,
		Events:    events,
		Status:    StatusActive,
		CreatedAt: time.Now(),
	}
	if err := m.store.CreateEndpoint(ctx, ep); err != nil {
		return nil, err
	}
	return ep, nil
}

// PauseEndpoint sets the endpoint status to paused.
func (m *Manager) PauseEndpoint(ctx context.Context, id uuid.UUID) error {
	ep, err := m.store.GetEndpoint(ctx, id)
	if err != nil {
		return err
	}
	ep.Status = StatusPaused
	return m.store.UpdateEndpoint(ctx, ep)
}

// ResumeEndpoint sets the endpoint status to active.
func (m *Manager) ResumeEndpoint(ctx context.Context, id uuid.UUID) error {
	ep, err := m.store.GetEndpoint(ctx, id)
	if err != nil {
		return err
	}
	ep.Status = StatusActive
	return m.store.UpdateEndpoint(ctx, ep)
}

// eventMatches returns true if the event type matches a subscription pattern.
// Patterns can be exact ("reading.crisis") or wildcard ("*.crisis", "reading.*").
func eventMatches(pattern, eventType string) bool {
	if pattern == eventType {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := pattern[1:]
		return strings.HasSuffix(eventType, suffix)
	}
	if strings.HasSuffix(pattern, ".*") {
		prefix := pattern[:len(pattern)-1]
		return strings.HasPrefix(eventType, prefix)
	}
	return false
}

// endpointMatchesEvent returns true if the endpoint subscribes to the event type.
func endpointMatchesEvent(ep *Endpoint, eventType string) bool {
	for _, pat := range ep.Events {
		if eventMatches(pat, eventType) {
			return true
		}
	}
	return false
}

// Deliver sends the event to all matching active endpoints of the event's
// user, retrying failures with backoff. It blocks through retries; callers
// on a request path should invoke it in a goroutine.
func (m *Manager) Deliver(ctx context.Context, event Event) []DeliveryResult {
	endpoints, _, err := m.store.ListEndpoints(ctx, event.UserID, 1000, 0)
	if err != nil {
		m.logger.Error().Err(err).Str("event_type", event.Type).Msg("failed to list alert endpoints")
		return nil
	}

	var results []DeliveryResult
	for _, ep := range endpoints {
		if ep.Status != StatusActive {
			continue
		}
		if !endpointMatchesEvent(ep, event.Type) {
			continue
		}
		attempt := m.deliverWithRetry(ctx, ep, event)
		results = append(results, DeliveryResult{
			EndpointID: ep.ID,
			Success:    attempt.Status == DeliverySuccess,
			StatusCode: attempt.StatusCode,
			Error:      attempt.Error,
		})
	}
	return results
}

// deliverWithRetry attempts delivery up to 1+maxRetries times, waiting the
// configured delay between attempts. It returns the last recorded attempt.
func (m *Manager) deliverWithRetry(ctx context.Context, ep *Endpoint, event Event) *Delivery {
	attempt := m.deliver(ctx, ep, event, 1)
	for retry := 0; attempt.Status != DeliverySuccess && retry < m.maxRetries; retry++ {
		delay := time.Duration(0)
		if len(m.retryDelays) > 0 {
			delay = m.retryDelays[len(m.retryDelays)-1]
			if retry < len(m.retryDelays) {
				delay = m.retryDelays[retry]
			}
		}
		select {
		case <-ctx.Done():
			return attempt
		case <-time.After(delay):
		}
		attempt = m.deliver(ctx, ep, event, attempt.Attempt+1)
	}
	return attempt
}

// DeliverToEndpoint signs the payload and POSTs it to the endpoint once,
// recording the result.
func (m *Manager) DeliverToEndpoint(ctx context.Context, ep *Endpoint, event Event) *Delivery {
	return m.deliver(ctx, ep, event, 1)
}

func (m *Manager) deliver(ctx context.Context, ep *Endpoint, event Event, attemptNo int) *Delivery {
	payload, _ := json.Marshal(event)
	sig := SignPayload(payload, ep.Secret)
	now := time.Now()

	attempt := &Delivery{
		ID:         uuid.New(),
		EndpointID: ep.ID,
		EventType:  event.Type,
		EventID:    event.ID,
		Payload:    payload,
		Signature:  sig,
		Attempt:    attemptNo,
		Status:     DeliveryPending,
		CreatedAt:  now,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
	if err != nil {
		return m.finish(ctx, ep, attempt, DeliveryFailed, err.Error())
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Cardio-Signature", "sha256="+sig)
	req.Header.Set("X-Cardio-Endpoint", ep.ID.String())
	req.Header.Set("X-Cardio-Timestamp", now.UTC().Format(time.RFC3339))

	start := time.Now()
	resp, err := m.httpClient.Do(req)
	attempt.Duration = time.Since(start)

	if err != nil {
		attempt.StatusCode = 0
		return m.finish(ctx, ep, attempt, DeliveryFailed, err.Error())
	}
	defer resp.Body.Close()

	attempt.StatusCode = resp.StatusCode

	// Read at most 1KB of response body.
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	attempt.ResponseBody = string(bodyBytes)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return m.finish(ctx, ep, attempt, DeliverySuccess, "")
	}
	return m.finish(ctx, ep, attempt, DeliveryFailed, fmt.Sprintf("non-2xx response: %d", resp.StatusCode))
}

func (m *Manager) finish(ctx context.Context, ep *Endpoint, attempt *Delivery, status, errMsg string) *Delivery {
	attempt.Status = status
	attempt.Error = errMsg
	if err := m.store.RecordDelivery(ctx, attempt); err != nil {
		m.logger.Error().Err(err).Str("endpoint_id", ep.ID.String()).Msg("failed to record alert delivery")
	}
	if status == DeliveryFailed {
		m.logger.Warn().
			Str("endpoint_id", ep.ID.String()).
			Str("event_type", attempt.EventType).
			Int("status_code", attempt.StatusCode).
			Int("attempt", attempt.Attempt).
			Str("error", errMsg).
			Msg("alert delivery failed")
	} else {
		m.logger.Debug().
			Str("endpoint_id", ep.ID.String()).
			Str("event_type", attempt.EventType).
			Int("attempt", attempt.Attempt).
			Msg("alert delivered")
	}
	return attempt
}

// RetryDelivery re-delivers a previously recorded attempt once, incrementing
// the attempt counter.
func (m *Manager) RetryDelivery(ctx context.Context, deliveryID uuid.UUID) (*Delivery, error) {
	original, err := m.store.GetDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	ep, err := m.store.GetEndpoint(ctx, original.EndpointID)
	if err != nil {
		return nil, err
	}

	// Reconstruct the event from the original delivery payload.
	var event Event
	if err := json.Unmarshal(original.Payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal original payload: %w", err)
	}

	return m.deliver(ctx, ep, event, original.Attempt+1), nil
}

// TestEndpoint sends a synthetic test event to verify endpoint connectivity.
// It fires once regardless of endpoint status and does not retry.
func (m *Manager) TestEndpoint(ctx context.Context, endpointID uuid.UUID) (*Delivery, error) {
	ep, err := m.store.GetEndpoint(ctx, endpointID)
	if err != nil {
		return nil, err
	}

	testEvent := Event{
		ID:        uuid.New(),
		Type:      EventTest,
		UserID:    ep.UserID,
		Payload:   json.RawMessage(`{"test":true}`),
		Timestamp: time.Now(),
	}

	return m.deliver(ctx, ep, testEvent, 1), nil
}

// GetDeliveryLogs returns paginated delivery attempts for an endpoint.
func (m *Manager) GetDeliveryLogs(ctx context.Context, endpointID uuid.UUID, limit, offset int) ([]*Delivery, int, error) {
	return m.store.ListDeliveries(ctx, endpointID, limit, offset)
}

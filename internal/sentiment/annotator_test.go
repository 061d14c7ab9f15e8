package sentiment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
)

type stubService struct {
	label string
	err   error
	delay time.Duration
	calls int
	mu    sync.Mutex
}

func (s *stubService) Analyze(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.label, s.err
}

type mapCache struct {
	mu     sync.Mutex
	labels map[string]string
}

func newMapCache() *mapCache { return &mapCache{labels: make(map[string]string)} }

func (c *mapCache) Get(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.labels[text], nil
}

func (c *mapCache) Set(ctx context.Context, text, label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels[text] = label
	return nil
}

func TestAnnotator_ReturnsServiceLabel(t *testing.T) {
	svc := &stubService{label: "positive"}
	a := NewAnnotator(svc, nil, time.Second)

	label, fellBack := a.Analyze(context.Background(), "I love this!")

	assert.Equal(t, domain.SentimentPositive, label)
	assert.False(t, fellBack)
}

func TestAnnotator_UnknownLabelMapsToNeutral(t *testing.T) {
	svc := &stubService{label: "mixed"}
	a := NewAnnotator(svc, nil, time.Second)

	label, fellBack := a.Analyze(context.Background(), "hm")

	assert.Equal(t, domain.SentimentNeutral, label)
	assert.False(t, fellBack)
}

func TestAnnotator_ServiceErrorFallsBackToNeutral(t *testing.T) {
	svc := &stubService{err: errors.New("boom")}
	a := NewAnnotator(svc, nil, time.Second)

	label, fellBack := a.Analyze(context.Background(), "whatever")

	assert.Equal(t, domain.SentimentNeutral, label)
	assert.True(t, fellBack)
}

func TestAnnotator_TimeoutFallsBackToNeutral(t *testing.T) {
	svc := &stubService{label: "positive", delay: time.Second}
	a := NewAnnotator(svc, nil, 10*time.Millisecond)

	start := time.Now()
	label, fellBack := a.Analyze(context.Background(), "slow service")

	assert.Equal(t, domain.SentimentNeutral, label)
	assert.True(t, fellBack)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAnnotator_NilServiceAlwaysNeutral(t *testing.T) {
	a := NewAnnotator(nil, nil, time.Second)

	label, fellBack := a.Analyze(context.Background(), "anything")

	assert.Equal(t, domain.SentimentNeutral, label)
	assert.True(t, fellBack)
}

func TestAnnotator_CacheSkipsServiceCall(t *testing.T) {
	svc := &stubService{label: "negative"}
	cache := newMapCache()
	a := NewAnnotator(svc, cache, time.Second)

	label, _ := a.Analyze(context.Background(), "ugh")
	assert.Equal(t, domain.SentimentNegative, label)

	label, fellBack := a.Analyze(context.Background(), "ugh")
	assert.Equal(t, domain.SentimentNegative, label)
	assert.False(t, fellBack)
	assert.Equal(t, 1, svc.calls)
}

func TestAnnotator_ConcurrentIdenticalTextsShareOneCall(t *testing.T) {
	svc := &stubService{label: "positive", delay: 50 * time.Millisecond}
	a := NewAnnotator(svc, nil, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			label, fellBack := a.Analyze(context.Background(), "same text")
			assert.Equal(t, domain.SentimentPositive, label)
			assert.False(t, fellBack)
		}()
	}
	wg.Wait()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, 1, svc.calls)
}

func TestHTTPClient_Analyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"sentiment":"positive"}`))
	}))
	t.Cleanup(server.Close)

	client := NewHTTPClient(server.URL, "")
	label, err := client.Analyze(context.Background(), "great")

	require.NoError(t, err)
	assert.Equal(t, "positive", label)
}

func TestHTTPClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	t.Cleanup(server.Close)

	client := NewHTTPClient(server.URL, "")
	_, err := client.Analyze(context.Background(), "great")

	assert.Error(t, err)
}

func TestHTTPClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewHTTPClient(server.URL, "")
	_, err := client.Analyze(context.Background(), "great")

	assert.Error(t, err)
}

func TestHTTPClient_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var requests int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := NewHTTPClient(server.URL, "")
	for range 10 {
		_, err := client.Analyze(context.Background(), "x")
		assert.Error(t, err)
	}

	// After the breaker opens, calls fail fast without reaching the server.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, requests)
}

package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fixedClock returns a limiter clock that only moves when advanced.
func fixedClock(l *Limiter) func(time.Duration) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	l.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	return func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()
	fixedClock(limiter)

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", info.Limit)
		}
		if info.Remaining != 10-i-1 {
			t.Errorf("Expected %d remaining, got %d", 10-i-1, info.Remaining)
		}
	}

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if info.RetryAfter < 5*time.Second || info.RetryAfter > 6*time.Second {
		t.Errorf("Expected retry after about 6s, got %v", info.RetryAfter)
	}
	if info.Remaining != 0 {
		t.Errorf("Expected 0 remaining, got %d", info.Remaining)
	}
}

func TestLimiter_Refill(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute})
	defer limiter.Stop()
	advance := fixedClock(limiter)

	for i := 0; i < 60; i++ {
		limiter.Allow("c", "/x", "GET")
	}
	if allowed, _ := limiter.Allow("c", "/x", "GET"); allowed {
		t.Fatal("Expected request to be denied once the bucket is empty")
	}

	advance(time.Second)
	if allowed, _ := limiter.Allow("c", "/x", "GET"); !allowed {
		t.Error("Expected request to be allowed after refill")
	}
	if allowed, _ := limiter.Allow("c", "/x", "GET"); allowed {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestLimiter_DeniedRequestDoesNotConsume(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Second})
	defer limiter.Stop()
	advance := fixedClock(limiter)

	limiter.Allow("c", "/x", "GET")
	for i := 0; i < 5; i++ {
		limiter.Allow("c", "/x", "GET")
	}
	advance(time.Second)
	if allowed, _ := limiter.Allow("c", "/x", "GET"); !allowed {
		t.Error("Denied requests should not push back the next token")
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		if allowed, _ := limiter.Allow("10.0.0.1", "/test", "GET"); !allowed {
			t.Fatalf("Whitelisted client should always be allowed (request %d)", i+1)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"10.0.0.2": true},
	})
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("10.0.0.2", "/test", "GET"); allowed {
		t.Error("Blacklisted client should be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(NewConfig(0))
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("c", "/api/articles", "POST")
		if !allowed {
			t.Fatal("Expected all requests to be allowed when disabled")
		}
		if info.Limit != 0 {
			t.Errorf("Expected no limit when disabled, got %d", info.Limit)
		}
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter := NewLimiter(NewConfig(6))
	defer limiter.Stop()
	fixedClock(limiter)

	// burst is writesPerMinute/6 = 1
	if allowed, _ := limiter.Allow("c", "/api/articles", "POST"); !allowed {
		t.Fatal("Expected first create to be allowed")
	}
	if allowed, _ := limiter.Allow("c", "/api/articles", "POST"); allowed {
		t.Error("Expected second create to be denied")
	}

	// Articles share one bucket per method.
	if allowed, _ := limiter.Allow("c", "/api/articles/1", "PUT"); !allowed {
		t.Fatal("Expected first update to be allowed")
	}
	if allowed, _ := limiter.Allow("c", "/api/articles/2", "PUT"); allowed {
		t.Error("Expected update of another article to share the bucket")
	}

	// Reads fall under the lenient default.
	for i := 0; i < 50; i++ {
		if allowed, _ := limiter.Allow("c", "/api/articles", "GET"); !allowed {
			t.Fatalf("Expected read %d to be allowed", i+1)
		}
	}

	// Other clients have their own buckets.
	if allowed, _ := limiter.Allow("other", "/api/articles", "POST"); !allowed {
		t.Error("Expected a different client to be allowed")
	}
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		if allowed, _ := limiter.Allow("c", "/health", "GET"); !allowed {
			t.Fatal("Health check should never be limited")
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Hour})
	defer limiter.Stop()
	fixedClock(limiter)

	var allowedCount atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if allowed, _ := limiter.Allow("c", "/x", "GET"); allowed {
					allowedCount.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if got := allowedCount.Load(); got != 100 {
		t.Errorf("Expected exactly 100 allowed requests, got %d", got)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, IdleTTL: time.Minute})
	defer limiter.Stop()
	advance := fixedClock(limiter)

	for i := 0; i < 3; i++ {
		limiter.Allow(fmt.Sprintf("client-%d", i), "/x", "GET")
	}
	advance(2 * time.Minute)
	limiter.Allow("fresh", "/x", "GET")

	limiter.cleanupBuckets()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.buckets) != 1 {
		t.Errorf("Expected only the fresh bucket to remain, got %d", len(limiter.buckets))
	}
	if _, ok := limiter.buckets["fresh:/x:GET"]; !ok {
		t.Error("Expected fresh bucket to survive cleanup")
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(nil)
	limiter.Stop()
	limiter.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	if !limiter.config.Enabled {
		t.Error("Expected default config to be enabled")
	}
	if limiter.config.DefaultLimit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", limiter.config.DefaultLimit)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(60)
	if !cfg.Enabled {
		t.Fatal("Expected config to be enabled")
	}
	if cfg.DefaultLimit != 600 {
		t.Errorf("Expected default limit 600, got %d", cfg.DefaultLimit)
	}
	if len(cfg.EndpointConfigs) != 4 {
		t.Errorf("Expected 4 endpoint configs, got %d", len(cfg.EndpointConfigs))
	}
	for _, ec := range cfg.EndpointConfigs {
		if ec.Limit != 60 || ec.Burst != 10 {
			t.Errorf("Unexpected endpoint config %+v", ec)
		}
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs(60)

	tests := []struct {
		name     string
		path     string
		method   string
		wantPath string
		wantNil  bool
	}{
		{"exact create", "/api/articles", "POST", "/api/articles", false},
		{"prefix update", "/api/articles/5", "PUT", "/api/articles/", false},
		{"prefix audio", "/api/articles/5/audio", "POST", "/api/articles/", false},
		{"stream is a write", "/api/articles/stream", "POST", "/api/articles/", false},
		{"read uses default", "/api/articles", "GET", "", true},
		{"voices uses default", "/api/speech/voices", "GET", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Expected no match, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Expected a match")
			}
			if got.Path != tt.wantPath {
				t.Errorf("Expected path %q, got %q", tt.wantPath, got.Path)
			}
		})
	}

	for _, probe := range []struct{ path, method string }{
		{"/health", "GET"},
		{"/", "GET"},
		{"/api/articles", "OPTIONS"},
	} {
		got := MatchEndpoint(probe.path, probe.method, configs)
		if got == nil || got.Limit != 0 {
			t.Errorf("Expected %s %s to be unlimited", probe.method, probe.path)
		}
	}
}

func TestMatchEndpoint_LongestPrefix(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/api/", Method: "POST", Limit: 1},
		{Path: "/api/articles/", Method: "POST", Limit: 2},
	}

	got := MatchEndpoint("/api/articles/3/audio", "POST", configs)
	if got == nil || got.Limit != 2 {
		t.Errorf("Expected the longer prefix to win, got %+v", got)
	}

	got = MatchEndpoint("/api/speech/voices", "POST", configs)
	if got == nil || got.Limit != 1 {
		t.Errorf("Expected the /api/ prefix, got %+v", got)
	}
}

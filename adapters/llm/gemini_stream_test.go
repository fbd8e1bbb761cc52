package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/satriahrh/diet-coach/utils/log"
	"github.com/satriahrh/diet-coach/utils/retry"
)

func chunk(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}],"role":"model"}}]}`, text)
}

func writeEvents(w http.ResponseWriter, events ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, e := range events {
		fmt.Fprintf(w, "data: %s\r\n\r\n", e)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *sleepRecorder) get() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func newTestStreamer(t *testing.T, h http.HandlerFunc) (*GeminiStreamer, *sleepRecorder) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	rec := &sleepRecorder{}
	policy := retry.DefaultPolicy()
	policy.Sleep = rec.sleep

	s := NewGeminiStreamer(StreamConfig{
		BaseURL: srv.URL + "/v1beta/",
		Model:   "gemini-test",
		APIKey:  "secret-key",
		Persona: "You are a nutrition counsellor.",
		Retry:   policy,
	}, srv.Client())
	return s, rec
}

func collect(ch <-chan string) []string {
	var out []string
	for f := range ch {
		out = append(out, f)
	}
	return out
}

func TestStreamSendsExpectedRequest(t *testing.T) {
	var got struct {
		method, path, alt, key, accept string
		body                           map[string]any
	}
	s, _ := newTestStreamer(t, func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.alt = r.URL.Query().Get("alt")
		got.key = r.URL.Query().Get("key")
		got.accept = r.Header.Get("Accept")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got.body)
		writeEvents(w, chunk("ok"))
	})

	frags := collect(s.Stream(context.Background(), "what should I eat?"))
	if len(frags) != 1 || frags[0] != "ok" {
		t.Fatalf("fragments = %q", frags)
	}
	if got.method != http.MethodPost || got.path != "/v1beta/models/gemini-test:streamGenerateContent" {
		t.Fatalf("unexpected request line: %s %s", got.method, got.path)
	}
	if got.alt != "sse" || got.key != "secret-key" || got.accept != "text/event-stream" {
		t.Fatalf("unexpected query/headers: alt=%q key=%q accept=%q", got.alt, got.key, got.accept)
	}

	sys := got.body["system_instruction"].(map[string]any)["parts"].([]any)[0].(map[string]any)["text"]
	if sys != "You are a nutrition counsellor." {
		t.Fatalf("system instruction = %v", sys)
	}
	user := got.body["contents"].([]any)[0].(map[string]any)["parts"].([]any)[0].(map[string]any)["text"]
	if user != "what should I eat?" {
		t.Fatalf("user prompt = %v", user)
	}
}

func TestStreamEmitsFragmentsInOrderAndSkipsNoise(t *testing.T) {
	s, rec := newTestStreamer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEvents(w,
			chunk("Hi"),
			`{"candidates":[`,
			`{"candidates":[]}`,
			chunk(""),
			chunk(" there"),
			"[DONE]",
		)
	})

	frags := collect(s.Stream(context.Background(), "hello"))
	if strings.Join(frags, "|") != "Hi| there" {
		t.Fatalf("fragments = %q", frags)
	}
	if len(rec.get()) != 0 {
		t.Fatalf("unexpected retries: %v", rec.get())
	}
}

func TestStreamRetriesRateLimitThenSucceeds(t *testing.T) {
	var calls int32
	s, rec := newTestStreamer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 3 {
			http.Error(w, `{"error":{"code":429}}`, http.StatusTooManyRequests)
			return
		}
		writeEvents(w, chunk("finally"))
	})

	frags := collect(s.Stream(context.Background(), "p"))
	if len(frags) != 1 || frags[0] != "finally" {
		t.Fatalf("fragments = %q", frags)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	got := rec.get()
	if len(got) != len(want) {
		t.Fatalf("delays = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delays = %v, want %v", got, want)
		}
	}
}

func TestStreamDegradesAfterRateLimitExhaustion(t *testing.T) {
	var calls int32
	s, rec := newTestStreamer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	frags := collect(s.Stream(context.Background(), "p"))
	if len(frags) != 1 || frags[0] != RateLimitedMessage {
		t.Fatalf("fragments = %q", frags)
	}
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Fatalf("expected 1 attempt + 3 retries, got %d calls", n)
	}
	if len(rec.get()) != 3 {
		t.Fatalf("delays = %v", rec.get())
	}
}

func TestStreamDoesNotRetryOtherErrors(t *testing.T) {
	var calls int32
	s, rec := newTestStreamer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	frags := collect(s.Stream(context.Background(), "p"))
	if len(frags) != 1 || !strings.HasPrefix(frags[0], ErrorMessagePrefix) {
		t.Fatalf("fragments = %q", frags)
	}
	if !strings.Contains(frags[0], "500") || !strings.Contains(frags[0], "boom") {
		t.Fatalf("degraded fragment lacks error text: %q", frags[0])
	}
	if atomic.LoadInt32(&calls) != 1 || len(rec.get()) != 0 {
		t.Fatalf("calls=%d delays=%v", calls, rec.get())
	}
}

func TestStreamStopsWhenCallerCancels(t *testing.T) {
	release := make(chan struct{})
	s, _ := newTestStreamer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEvents(w, chunk("first"))
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Stream(ctx, "p")
	if f := <-ch; f != "first" {
		t.Fatalf("first fragment = %q", f)
	}
	cancel()

	select {
	case f, ok := <-ch:
		if ok {
			t.Fatalf("unexpected fragment after cancel: %q", f)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("stream did not close after cancel")
	}
}

func TestStreamTransportErrorDoesNotLeakAPIKey(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := log.L()
	log.Replace(zap.New(core))
	t.Cleanup(func() { log.Replace(prev) })

	rec := &sleepRecorder{}
	policy := retry.DefaultPolicy()
	policy.Sleep = rec.sleep
	const apiKey = "TOPSECRETKEY"
	s := NewGeminiStreamer(StreamConfig{
		BaseURL: "http://127.0.0.1:1/v1beta",
		Model:   "m",
		APIKey:  apiKey,
		Retry:   policy,
	}, &http.Client{Timeout: 5 * time.Second})

	frags := collect(s.Stream(context.Background(), "p"))
	if len(frags) != 1 || !strings.HasPrefix(frags[0], ErrorMessagePrefix) {
		t.Fatalf("fragments = %q", frags)
	}
	if strings.Contains(frags[0], apiKey) {
		t.Fatalf("fragment leaks the API key: %q", frags[0])
	}
	if !strings.Contains(frags[0], "key=***") {
		t.Fatalf("fragment should show the masked key: %q", frags[0])
	}
	if len(rec.get()) != 0 {
		t.Fatalf("transport errors must not be retried: %v", rec.get())
	}

	for _, entry := range logs.All() {
		line := entry.Message
		for k, v := range entry.ContextMap() {
			line += fmt.Sprintf(" %s=%v", k, v)
		}
		if strings.Contains(line, apiKey) {
			t.Fatalf("log entry leaks the API key: %s", line)
		}
	}
}

func TestRedactRequestError(t *testing.T) {
	err := &url.Error{Op: "Post", URL: "http://h/v1beta/models/m:streamGenerateContent?alt=sse&key=abc", Err: io.EOF}
	got := redactRequestError(err).Error()
	if strings.Contains(got, "abc") || !strings.Contains(got, "alt=sse&key=***") {
		t.Fatalf("redacted error = %q", got)
	}
	if redactRequestError(io.EOF) != io.EOF {
		t.Fatalf("non-url errors must pass through")
	}
}

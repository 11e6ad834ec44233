package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/api-mastery/internal/config"
)

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingLogger) add(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingLogger) count(msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m == msg {
			n++
		}
	}
	return n
}

func (r *recordingLogger) InfoObj(msg, _ string, _ any)  { r.add(msg) }
func (r *recordingLogger) DebugObj(msg, _ string, _ any) { r.add(msg) }
func (r *recordingLogger) WarnObj(msg, _ string, _ any)  { r.add(msg) }
func (r *recordingLogger) ErrorObj(msg, _ string, _ any) { r.add(msg) }

type upstream struct {
	srv      *httptest.Server
	dittoHit atomic.Int32

	mu     sync.Mutex
	agents map[string]string
}

// agent returns the User-Agent last seen under the given first path segment.
func (u *upstream) agent(prefix string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.agents[prefix]
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	mux := http.NewServeMux()
	jsonBody := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}

	mux.HandleFunc("/httpbin/headers", func(w http.ResponseWriter, r *http.Request) {
		jsonBody(w, http.StatusOK, `{"headers":{"Host":"`+r.Host+`"}}`)
	})
	mux.HandleFunc("/poke/pokemon", func(w http.ResponseWriter, _ *http.Request) {
		jsonBody(w, http.StatusOK, `{"count":1302,"next":null,"previous":null,"results":[{"name":"metapod","url":"https://pokeapi.co/api/v2/pokemon/11/"}]}`)
	})
	mux.HandleFunc("/poke/pokemon/ditto", func(w http.ResponseWriter, _ *http.Request) {
		u.dittoHit.Add(1)
		jsonBody(w, http.StatusOK, `{"id":132,"name":"ditto","height":3,"weight":40,"abilities":[{"ability":{"name":"limber"}}]}`)
	})
	mux.HandleFunc("/poke/pokemon/notapokemon", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Not Found"))
	})
	mux.HandleFunc("/rm/character", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "birdperson" {
			jsonBody(w, http.StatusOK, `{"info":{"count":1,"pages":1,"next":null,"prev":null},"results":[{"id":47,"name":"Birdperson","status":"Dead","species":"Bird-Person"}]}`)
			return
		}
		jsonBody(w, http.StatusOK, `{"info":{"count":826,"pages":42,"next":"https://x/character?page=3","prev":null},"results":[{"id":21,"name":"Aqua Morty"}]}`)
	})
	mux.HandleFunc("/rm/character/1", func(w http.ResponseWriter, _ *http.Request) {
		jsonBody(w, http.StatusOK, `{"id":1,"name":"Rick Sanchez","status":"Alive","species":"Human"}`)
	})

	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix, _, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
		u.mu.Lock()
		if u.agents == nil {
			u.agents = make(map[string]string)
		}
		u.agents[prefix] = r.Header.Get("User-Agent")
		u.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func testConfig(u *upstream) *config.Config {
	return &config.Config{
		HTTPBinURL:           u.srv.URL + "/httpbin",
		PokeAPIURL:           u.srv.URL + "/poke/",
		RickMortyURL:         u.srv.URL + "/rm",
		UserAgent:            "api-mastery/test",
		RequestTimeout:       2 * time.Second,
		MaxRetries:           1,
		RetryBaseDelay:       time.Millisecond,
		BackoffStrategy:      "linear",
		StorageType:          "none",
		CacheTTL:             time.Minute,
		CacheCleanupInterval: time.Minute,
	}
}

func TestDemoRunAll(t *testing.T) {
	u := newUpstream(t)
	log := &recordingLogger{}
	var out bytes.Buffer

	demo, err := NewDemo(context.Background(), testConfig(u), log, &out)
	if err != nil {
		t.Fatalf("NewDemo: %v", err)
	}
	defer demo.Close()

	if err := demo.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Host header: 127.0.0.1",
		"count: 1302",
		"first 5 names: [metapod]",
		"Name:ditto",
		"Caught APIError as expected: HTTP 404",
		"Not Found",
		"count: 826 pages: 42 has_next: true",
		"first 5: [Aqua Morty]",
		"Name:Rick Sanchez",
		"Name:Birdperson",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}

	// headers, list, ditto, error, page, two characters
	if n := log.count("record published"); n != 7 {
		t.Fatalf("expected 7 published records, got %d", n)
	}
}

func TestDemoCachesWithMemoryStore(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(u)
	cfg.StorageType = "memory"

	demo, err := NewDemo(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewDemo: %v", err)
	}
	defer demo.Close()

	for i := 0; i < 2; i++ {
		if err := demo.RunPokeAPI(context.Background()); err != nil {
			t.Fatalf("RunPokeAPI #%d: %v", i, err)
		}
	}
	if got := u.dittoHit.Load(); got != 1 {
		t.Fatalf("expected ditto to be served from cache on the second run, upstream hits=%d", got)
	}
}

func TestDemoReportsUpstreamFailures(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(u)
	cfg.HTTPBinURL = u.srv.URL + "/missing"

	var out bytes.Buffer
	demo, err := NewDemo(context.Background(), cfg, nil, &out)
	if err != nil {
		t.Fatalf("NewDemo: %v", err)
	}
	defer demo.Close()

	err = demo.RunAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "httpbin headers") {
		t.Fatalf("expected httpbin failure, got %v", err)
	}
	if !strings.Contains(out.String(), "Name:ditto") {
		t.Fatalf("later demos should still run:\n%s", out.String())
	}
}

func TestNewDemoRejectsCloudPublishersLocally(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(u)
	cfg.PublishersFile = t.TempDir() + "/publishers.yaml"
	raw := "publishers:\n  - id: q\n    type: sqs\n    sqs:\n      uri: https://sqs.us-east-1.amazonaws.com/1/q\n      region: us-east-1\n"
	if err := os.WriteFile(cfg.PublishersFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}

	if _, err := NewDemo(context.Background(), cfg, nil, nil); err == nil || !strings.Contains(err.Error(), "USE_AWS") {
		t.Fatalf("expected local-only refusal, got %v", err)
	}
}

func TestNewDemoValidatesInputs(t *testing.T) {
	if _, err := NewDemo(context.Background(), nil, nil, nil); err == nil {
		t.Fatalf("expected nil config to fail")
	}

	u := newUpstream(t)
	cfg := testConfig(u)
	cfg.PokeAPIURL = "not a url"
	if _, err := NewDemo(context.Background(), cfg, nil, nil); err == nil {
		t.Fatalf("expected invalid base url to fail")
	}
}

func TestDemoUserAgents(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(u)
	cfg.UserAgent = ""

	demo, err := NewDemo(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewDemo: %v", err)
	}
	defer demo.Close()
	if err := demo.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}

	want := map[string]string{
		"httpbin": "api-mastery/phase1-final",
		"poke":    "api-mastery/phase1",
		"rm":      "api-mastery/phase1b-rmapi",
	}
	for prefix, ua := range want {
		if got := u.agent(prefix); got != ua {
			t.Fatalf("%s: expected User-Agent %q, got %q", prefix, ua, got)
		}
	}

	u2 := newUpstream(t)
	demo2, err := NewDemo(context.Background(), testConfig(u2), nil, nil)
	if err != nil {
		t.Fatalf("NewDemo: %v", err)
	}
	defer demo2.Close()
	if err := demo2.RunPokeAPI(context.Background()); err != nil {
		t.Fatalf("RunPokeAPI: %v", err)
	}
	if got := u2.agent("poke"); got != "api-mastery/test" {
		t.Fatalf("configured User-Agent should win, got %q", got)
	}
}

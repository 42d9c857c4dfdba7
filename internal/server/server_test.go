/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/friendsincode/lessonboard/internal/config"
	"github.com/friendsincode/lessonboard/internal/logbuffer"
	"github.com/friendsincode/lessonboard/internal/render"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, tweak func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	slidesDir := filepath.Join(dir, "slides")
	if err := os.Mkdir(slidesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"slide1.png", "slide2.jpg"} {
		if err := os.WriteFile(filepath.Join(slidesDir, name), []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	schedulePath := filepath.Join(dir, "data.json")
	doc := `{"timeOnSlides": 30, "lessons": [{"start": "00:00", "end": "23:59", "title": "All day"}]}`
	if err := os.WriteFile(schedulePath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		Environment:      "test",
		HTTPBind:         "127.0.0.1",
		HTTPPort:         8080,
		ScheduleSource:   schedulePath,
		SlidesBackend:    config.SlidesFilesystem,
		SlidesDir:        slidesDir,
		SlidesPublicPath: "/slides",
		Tick:             50 * time.Millisecond,
		EntryTransition:  100 * time.Millisecond,
		ExitTransition:   100 * time.Millisecond,
		SlideFade:        50 * time.Millisecond,
		IdleMode:         "slides",
		Location:         time.UTC,
		LogBufferSize:    100,
	}
	if tweak != nil {
		tweak(cfg)
	}

	srv, err := New(cfg, logbuffer.New(100), zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return srv, ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestScheduleAndSlidesEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	var sched struct {
		Loaded   bool    `json:"loaded"`
		Rotation float64 `json:"rotation_interval_seconds"`
		Lessons  []struct {
			Start string `json:"start"`
			Title string `json:"title"`
		} `json:"lessons"`
	}
	if code := getJSON(t, ts.URL+"/api/schedule", &sched); code != http.StatusOK {
		t.Fatalf("schedule status = %d", code)
	}
	if !sched.Loaded || sched.Rotation != 30 || len(sched.Lessons) != 1 || sched.Lessons[0].Start != "00:00" {
		t.Fatalf("schedule = %+v", sched)
	}

	var sl struct {
		Slides []struct {
			URL string `json:"url"`
		} `json:"slides"`
	}
	getJSON(t, ts.URL+"/api/slides", &sl)
	if len(sl.Slides) != 2 || sl.Slides[1].URL != "/slides/slide2.jpg" {
		t.Fatalf("slides = %+v", sl)
	}

	resp, err := http.Get(ts.URL + "/slides/slide1.png")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "img" {
		t.Fatalf("slide file status=%d body=%q", resp.StatusCode, body)
	}

	resp, err = http.Get(ts.URL + "/slides/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("directory listing status = %d, want 404", resp.StatusCode)
	}
}

func TestStateEndpointReflectsLoop(t *testing.T) {
	_, ts := newTestServer(t)

	deadline := time.Now().Add(5 * time.Second)
	for {
		var snap struct {
			Mode        string `json:"mode"`
			LessonTitle string `json:"lesson_title"`
			SlideCount  int    `json:"slide_count"`
		}
		getJSON(t, ts.URL+"/api/state", &snap)
		if snap.LessonTitle == "All day" {
			if snap.Mode != "normal" || snap.SlideCount != 2 {
				t.Fatalf("state = %+v", snap)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("loop never published state, last = %+v", snap)
		}
		time.Sleep(20 * time.Millisecond)
	}

	var health map[string]any
	if code := getJSON(t, ts.URL+"/healthz", &health); code != http.StatusOK || health["status"] != "ok" {
		t.Fatalf("health = %d %+v", code, health)
	}
}

func TestRenderStreamReplaysAndStreams(t *testing.T) {
	_, ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var hello streamMessage
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != "hello" || hello.ClientID == "" {
		t.Fatalf("hello = %+v", hello)
	}

	for {
		var msg streamMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type != "command" || msg.Command == nil {
			t.Fatalf("unexpected frame %+v", msg)
		}
		if msg.Command.Kind == render.KindSetLessonTitle {
			if msg.Command.Text != "ALL DAY" {
				t.Fatalf("title = %q", msg.Command.Text)
			}
			return
		}
	}
}

func TestLogsEndpointValidatesParams(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.LogBuffer().Add(logbuffer.LogEntry{Level: "info", Message: "display primed", Component: "scheduler"})

	if code := getJSON(t, ts.URL+"/api/logs?limit=abc", nil); code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", code)
	}
	if code := getJSON(t, ts.URL+"/api/logs?since=yesterday", nil); code != http.StatusBadRequest {
		t.Fatalf("bad since status = %d", code)
	}

	var logs struct {
		Entries []logbuffer.LogEntry `json:"entries"`
	}
	getJSON(t, ts.URL+"/api/logs?component=scheduler", &logs)
	if len(logs.Entries) != 1 || logs.Entries[0].Message != "display primed" {
		t.Fatalf("logs = %+v", logs)
	}
}

func TestTracedRequestSkipsStreamsAndAssets(t *testing.T) {
	s := &Server{cfg: &config.Config{SlidesPublicPath: "/slides"}}
	tests := map[string]bool{
		"/api/state":     true,
		"/api/schedule":  true,
		"/ws":            false,
		"/healthz":       false,
		"/metrics":       false,
		"/slides/s1.png": false,
		"/slideshow.js":  true,
		"/index.html":    true,
	}
	for path, want := range tests {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		if got := s.tracedRequest(r); got != want {
			t.Errorf("tracedRequest(%s) = %v, want %v", path, got, want)
		}
	}
}

func TestAPIRateLimitAndCORS(t *testing.T) {
	_, ts := newTestServerWith(t, func(cfg *config.Config) { cfg.APIRateLimit = 2 })

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/state", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}

	statuses := []int{resp.StatusCode}
	for i := 0; i < 2; i++ {
		resp, err := http.Get(ts.URL + "/api/state")
		if err != nil {
			t.Fatalf("get state: %v", err)
		}
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}
	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK || statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("statuses = %v, want [200 200 429]", statuses)
	}

	// Outside /api nothing is limited.
	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}

func fastStartupRetry(t *testing.T) {
	t.Helper()
	prev := startupRetryInterval
	startupRetryInterval = 20 * time.Millisecond
	t.Cleanup(func() { startupRetryInterval = prev })
}

func TestStartupScheduleFailureIsRetried(t *testing.T) {
	fastStartupRetry(t)

	var requests atomic.Int32
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"timeOnSlides": 30, "lessons": [{"start": "00:00", "end": "23:59", "title": "Recovered"}]}`))
	}))
	defer source.Close()

	_, ts := newTestServerWith(t, func(cfg *config.Config) {
		cfg.ScheduleSource = source.URL + "/data.json"
		cfg.ScheduleReload = 0
	})

	deadline := time.Now().Add(5 * time.Second)
	for {
		var snap struct {
			ScheduleLoaded bool   `json:"schedule_loaded"`
			LessonTitle    string `json:"lesson_title"`
		}
		getJSON(t, ts.URL+"/api/state", &snap)
		if snap.ScheduleLoaded && snap.LessonTitle == "Recovered" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("schedule never recovered after %d requests, last = %+v", requests.Load(), snap)
		}
		time.Sleep(20 * time.Millisecond)
	}

	// Retries stop after the first success.
	seen := requests.Load()
	time.Sleep(200 * time.Millisecond)
	if got := requests.Load(); got != seen {
		t.Fatalf("source requested %d more times after recovery", got-seen)
	}
}

func TestStartupDiscoveryFailureIsRetried(t *testing.T) {
	fastStartupRetry(t)

	var slidesDir string
	_, ts := newTestServerWith(t, func(cfg *config.Config) {
		// A regular file where the directory should be makes discovery fail.
		slidesDir = filepath.Join(t.TempDir(), "slides")
		if err := os.WriteFile(slidesDir, []byte("not a dir"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg.SlidesDir = slidesDir
	})

	var sl struct {
		Slides []struct {
			URL string `json:"url"`
		} `json:"slides"`
	}
	getJSON(t, ts.URL+"/api/slides", &sl)
	if len(sl.Slides) != 0 {
		t.Fatalf("slides before recovery = %+v", sl.Slides)
	}

	if err := os.Remove(slidesDir); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(slidesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(slidesDir, "slide1.png"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		var snap struct {
			SlideCount int    `json:"slide_count"`
			SlideURL   string `json:"slide_url"`
		}
		getJSON(t, ts.URL+"/api/state", &snap)
		if snap.SlideCount == 1 {
			if snap.SlideURL != "/slides/slide1.png" {
				t.Fatalf("state = %+v", snap)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("deck never recovered, last = %+v", snap)
		}
		time.Sleep(20 * time.Millisecond)
	}

	getJSON(t, ts.URL+"/api/slides", &sl)
	if len(sl.Slides) != 1 || sl.Slides[0].URL != "/slides/slide1.png" {
		t.Fatalf("slides after recovery = %+v", sl.Slides)
	}
}

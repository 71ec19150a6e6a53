package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ritzau/trustflow/pkg/frames"
	"github.com/ritzau/trustflow/pkg/graphviz"
	"github.com/ritzau/trustflow/pkg/pubsub"
	"github.com/ritzau/trustflow/pkg/scenario"
)

func TestHandleScenario(t *testing.T) {
	s := NewServer()
	scn := scenario.Example()
	opts := frames.Defaults()
	snaps := []frames.Snapshot{{Time: 0, Ranks: make([]float64, 6), Weights: make([]float64, 6)}}
	s.SetResults(scn, snaps, opts)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/scenario", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var data ScenarioData
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if data.Name != "trust-flow-example" {
		t.Errorf("Name = %q, want %q", data.Name, "trust-flow-example")
	}
	if data.NumNodes != 6 || len(data.Positions) != 6 {
		t.Errorf("NumNodes = %d with %d positions, want 6 and 6", data.NumNodes, len(data.Positions))
	}
	if data.Options.MaxTime != 20 || data.Options.Damping != 0.5 {
		t.Errorf("Options = %+v", data.Options)
	}
	if data.Algorithm != frames.AlgorithmName {
		t.Errorf("Algorithm = %q, want %q", data.Algorithm, frames.AlgorithmName)
	}
}

func TestHandleScenarioUnavailable(t *testing.T) {
	s := NewServer()

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/scenario", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandleFrames(t *testing.T) {
	s := NewServer()
	scn := scenario.Example()
	snaps := []frames.Snapshot{
		{Time: 0, Ranks: make([]float64, 6), Weights: make([]float64, 6)},
		{Time: 1, Ranks: make([]float64, 6), Weights: make([]float64, 6)},
	}
	s.SetResults(scn, snaps, frames.Defaults())

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/frames", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []frames.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 2 || got[0].Time != 0 || got[1].Time != 1 {
		t.Errorf("frames = %+v, want times 0 and 1", got)
	}
}

func TestHandleFramesEmpty(t *testing.T) {
	s := NewServer()

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/frames", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want an empty array", body)
	}
}

func TestHandleFrameMatchesFile(t *testing.T) {
	scn := scenario.Example()
	opts := frames.Defaults()
	opts.OutDir = t.TempDir()
	opts.MaxTime = 2

	snaps, err := frames.Render(context.Background(), scn, opts)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	s := NewServer()
	s.SetResults(scn, snaps, opts)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/frames/1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var detail FrameDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if detail.Time != 1 {
		t.Errorf("Time = %d, want 1", detail.Time)
	}
	if detail.SVG != "" {
		t.Errorf("SVG should be empty without a Graphviz runner, got %d bytes", len(detail.SVG))
	}

	// The API must serve exactly what was written to disk
	file, err := os.ReadFile(filepath.Join(opts.OutDir, scn.Name, frames.FrameFilename(1)))
	if err != nil {
		t.Fatal(err)
	}
	if detail.DOT != string(file) {
		t.Errorf("API DOT differs from the frame file\napi:\n%s\nfile:\n%s", detail.DOT, file)
	}
}

func TestHandleFrameWithGraphviz(t *testing.T) {
	s := NewServer()
	scn := scenario.Example()
	snaps := []frames.Snapshot{{Time: 0, Ranks: make([]float64, 6), Weights: make([]float64, 6)}}
	s.SetResults(scn, snaps, frames.Defaults())
	s.SetGraphvizRunner(&graphviz.MockRunner{MockOutput: []byte("<svg/>")})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/frames/0", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var detail FrameDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if detail.SVG != "<svg/>" {
		t.Errorf("SVG = %q, want %q", detail.SVG, "<svg/>")
	}
}

func TestHandleFrameErrors(t *testing.T) {
	s := NewServer()
	scn := scenario.Example()
	snaps := []frames.Snapshot{{Time: 0, Ranks: make([]float64, 6), Weights: make([]float64, 6)}}
	s.SetResults(scn, snaps, frames.Defaults())

	tests := []struct {
		path string
		want int
	}{
		{"/api/frames/abc", http.StatusBadRequest},
		{"/api/frames/7", http.StatusNotFound},
		{"/api/frames/-1", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("GET %s status = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestHandleFrameUnavailable(t *testing.T) {
	s := NewServer()

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/frames/0", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestSubscribeRenderStatus(t *testing.T) {
	s := NewServer()

	// Publish before subscribing; the topic buffer replays the latest
	// state to new subscribers.
	if err := s.PublishRenderStatus("ready", "21 frames rendered", 21, 21); err != nil {
		t.Fatalf("PublishRenderStatus() error = %v", err)
	}

	ts := httptest.NewServer(s.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/subscribe/render_status", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event pubsub.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatalf("invalid SSE payload: %v", err)
		}
		if event.Topic != "render_status" || event.Type != "ready" {
			t.Errorf("event = %+v, want replayed ready status", event)
		}
		var status pubsub.RenderStatus
		if err := json.Unmarshal(event.Data, &status); err != nil {
			t.Fatalf("invalid status payload: %v", err)
		}
		if status.Frame != 21 || status.Total != 21 {
			t.Errorf("status = %+v, want frame 21/21", status)
		}
		return
	}
	t.Fatal("no SSE event received")
}

func TestStaticIndexServed(t *testing.T) {
	s := NewServer()

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "<title>Trust Flow</title>") {
		t.Error("index page not served")
	}
}

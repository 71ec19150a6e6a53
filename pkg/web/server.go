package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/ritzau/trustflow/pkg/frames"
	"github.com/ritzau/trustflow/pkg/graphviz"
	"github.com/ritzau/trustflow/pkg/logging"
	"github.com/ritzau/trustflow/pkg/pubsub"
	"github.com/ritzau/trustflow/pkg/rank"
	"github.com/ritzau/trustflow/pkg/render"
	"github.com/ritzau/trustflow/pkg/scenario"
)

//go:embed static/*
var staticFiles embed.FS

// RenderOptions is the subset of the run options exposed to the viewer
type RenderOptions struct {
	OutDir         string  `json:"outDir"`
	MaxTime        int     `json:"maxTime"`
	Iterations     int     `json:"iterations"`
	Damping        float64 `json:"damping"`
	Decay          float64 `json:"decay"`
	ExpertFraction float64 `json:"expertFraction"`
}

// ScenarioData describes the loaded scenario for the viewer
type ScenarioData struct {
	Name      string         `json:"name"`
	NumNodes  int            `json:"numNodes"`
	Edges     []rank.Edge    `json:"edges"`
	Experts   []int          `json:"experts"`
	Positions []render.Point `json:"positions"`
	Options   RenderOptions  `json:"options"`
	Algorithm string         `json:"algorithm"`
	DecayName string         `json:"decayName"`
}

// FrameDetail is one frame with its DOT source, and the rendered SVG
// when Graphviz is available on this host
type FrameDetail struct {
	Time    int       `json:"time"`
	Ranks   []float64 `json:"ranks"`
	Weights []float64 `json:"weights"`
	DOT     string    `json:"dot"`
	SVG     string    `json:"svg,omitempty"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher
	graphviz  graphviz.Runner // nil when the dot binary is unavailable

	mu        sync.RWMutex
	scn       *scenario.Scenario
	positions []render.Point
	snaps     []frames.Snapshot
	opts      frames.Options
}

// NewServer creates a new web server
func NewServer() *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// Configure topic buffering
	// render_status: buffer last 10 events, replay only last event to new subscribers
	ssePublisher.ConfigureTopic("render_status", pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false, // Only send current state
	})

	// frames: buffer last event only, late subscribers fetch the rest over the API
	ssePublisher.ConfigureTopic("frames", pubsub.TopicConfig{
		BufferSize: 1,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// SetGraphvizRunner enables server-side SVG rendering of frames
func (s *Server) SetGraphvizRunner(r graphviz.Runner) {
	s.graphviz = r
}

// SetResults stores a completed render for the API handlers. It is
// called again after every re-render in watch mode.
func (s *Server) SetResults(scn *scenario.Scenario, snaps []frames.Snapshot, opts frames.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scn = scn
	s.snaps = snaps
	s.opts = opts
	s.positions = render.CircleLayout(scn.NumNodes)
}

// PublishRenderStatus publishes a render pipeline status event
func (s *Server) PublishRenderStatus(state, message string, frame, total int) error {
	status := pubsub.RenderStatus{
		State:   state,
		Message: message,
		Frame:   frame,
		Total:   total,
	}
	return s.publisher.Publish("render_status", state, status)
}

// PublishFrame announces a newly rendered frame
func (s *Server) PublishFrame(time, done, total int) error {
	data := pubsub.FrameData{
		Time:  time,
		Done:  done,
		Total: total,
	}
	return s.publisher.Publish("frames", "frame_ready", data)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/render_status", s.handleSubscribe("render_status")).Methods("GET")
	s.router.HandleFunc("/api/subscribe/frames", s.handleSubscribe("frames")).Methods("GET")

	// API routes - more specific routes must come first
	s.router.HandleFunc("/api/scenario", s.handleScenario).Methods("GET")
	s.router.HandleFunc("/api/frames/{time}", s.handleFrame).Methods("GET")
	s.router.HandleFunc("/api/frames", s.handleFrames).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("static assets missing from binary", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// handleSubscribe streams a pub/sub topic as Server-Sent Events
func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Set SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

		// Send initial comment to establish connection (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		// Create subscription
		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		// Stream events
		for event := range sub.Events() {
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.WarnContext(r.Context(), "error writing SSE event", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.scn == nil {
		http.Error(w, "Scenario data not available", http.StatusServiceUnavailable)
		return
	}

	experts := s.scn.Experts
	if experts == nil {
		experts = []int{}
	}
	data := ScenarioData{
		Name:      s.scn.Name,
		NumNodes:  s.scn.NumNodes,
		Edges:     s.scn.Edges,
		Experts:   experts,
		Positions: s.positions,
		Options: RenderOptions{
			OutDir:         s.opts.OutDir,
			MaxTime:        s.opts.MaxTime,
			Iterations:     s.opts.Iterations,
			Damping:        s.opts.Damping,
			Decay:          s.opts.Decay,
			ExpertFraction: s.opts.ExpertFraction,
		},
		Algorithm: frames.AlgorithmName,
		DecayName: frames.DecayName,
	}

	json.NewEncoder(w).Encode(data)
}

func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snaps == nil {
		json.NewEncoder(w).Encode([]frames.Snapshot{})
		return
	}

	json.NewEncoder(w).Encode(s.snaps)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	t, err := strconv.Atoi(vars["time"])
	if err != nil {
		http.Error(w, "Frame time must be an integer", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	if s.scn == nil {
		s.mu.RUnlock()
		http.Error(w, "Scenario data not available", http.StatusServiceUnavailable)
		return
	}
	if t < 0 || t >= len(s.snaps) {
		s.mu.RUnlock()
		http.Error(w, fmt.Sprintf("No frame for time %d", t), http.StatusNotFound)
		return
	}
	snap := s.snaps[t]
	frame := render.Frame{
		Ranks:     snap.Ranks,
		Edges:     s.scn.Edges,
		Weights:   snap.Weights,
		Experts:   s.scn.Experts,
		Positions: s.positions,
		Index:     t + 1,
		Total:     len(s.snaps),
		Algorithm: frames.AlgorithmName,
		Decay:     frames.DecayName,
	}
	s.mu.RUnlock()

	var dot bytes.Buffer
	if err := render.WriteDOT(&dot, frame); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	detail := FrameDetail{
		Time:    snap.Time,
		Ranks:   snap.Ranks,
		Weights: snap.Weights,
		DOT:     dot.String(),
	}

	if s.graphviz != nil {
		svg, err := s.graphviz.RenderSVG(r.Context(), dot.Bytes())
		if err != nil {
			// The JSON payload is still useful without the picture
			logging.WarnContext(r.Context(), "graphviz render failed", "error", err, "time", t)
		} else {
			detail.SVG = string(svg)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}

// Start starts the web server on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, logging.RequestIDMiddleware(s.router))
}

package stagetest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"scopeui/pkg/stage"
)

// Home is where a fresh server parks the stage.
var Home = stage.Position{X: 320, Y: 3229, Z: 3298}

// NewServer returns an in-memory OpenFlexure stage serving the position and
// move endpoints.
func NewServer(logger *zap.Logger) *Server {
	s := &Server{
		pos:    Home,
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.mux.HandleFunc(stage.PositionPath, s.position)
	s.mux.HandleFunc(stage.MovePath, s.move)
	return s
}

type Server struct {
	mu    sync.Mutex
	pos   stage.Position
	moves int

	mux    *http.ServeMux
	logger *zap.Logger
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) Position() stage.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Moves reports how many move requests were accepted.
func (s *Server) Moves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves
}

func (s *Server) position(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reply(w, s.Position())
}

func (s *Server) move(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req stage.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if req.Absolute {
		s.pos = stage.Position{X: req.X, Y: req.Y, Z: req.Z}
	} else {
		s.pos.X += req.X
		s.pos.Y += req.Y
		s.pos.Z += req.Z
	}
	s.moves++
	pos := s.pos
	s.mu.Unlock()

	s.logger.With(
		zap.Int64("x", pos.X),
		zap.Int64("y", pos.Y),
		zap.Int64("z", pos.Z),
		zap.Bool("absolute", req.Absolute),
		zap.String("request-id", r.Header.Get("X-Request-ID")),
	).Info("stage-moved")

	reply(w, stage.MoveResponse{
		Input:  stage.MoveRequest{X: pos.X, Y: pos.Y, Z: pos.Z, Absolute: true},
		Status: "pending",
	})
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Serve binds s to srv and runs it for the lifetime of the fx app.
func Serve(s *Server, srv *http.Server, lifecycle fx.Lifecycle, logger *zap.Logger) {
	srv.Handler = s

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.With(zap.String("addr", srv.Addr)).Info("stage-listen")
			go func() {
				if err := srv.ListenAndServe(); err != http.ErrServerClosed {
					logger.With(zap.Error(err)).Fatal("stage-serve")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

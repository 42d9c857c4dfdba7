/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/friendsincode/lessonboard/internal/config"
	"github.com/friendsincode/lessonboard/internal/logbuffer"
	"github.com/friendsincode/lessonboard/internal/telemetry"
	"github.com/friendsincode/lessonboard/internal/version"
	"github.com/friendsincode/lessonboard/internal/web"
)

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", telemetry.Handler())
	s.router.Get("/ws", s.handleRenderStream)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		if s.cfg.APIRateLimit > 0 {
			r.Use(httprate.LimitByIP(s.cfg.APIRateLimit, time.Minute))
		}
		r.Get("/state", s.handleState)
		r.Get("/schedule", s.handleSchedule)
		r.Get("/slides", s.handleSlides)
		r.Get("/logs", s.handleLogs)
	})

	if s.cfg.SlidesBackend == config.SlidesFilesystem {
		prefix := strings.TrimRight(s.cfg.SlidesPublicPath, "/")
		files := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(s.cfg.SlidesDir)))
		s.router.Handle(prefix+"/*", noDirListing(files))
	}

	if s.cfg.WebRoot == "" {
		s.router.Handle("/*", web.Handler())
		return
	}
	if info, err := os.Stat(s.cfg.WebRoot); err != nil || !info.IsDir() {
		s.logger.Warn().Str("web_root", s.cfg.WebRoot).Msg("web root is not a directory, using built-in renderer")
		s.router.Handle("/*", web.Handler())
		return
	}
	s.router.Handle("/*", http.FileServer(http.Dir(s.cfg.WebRoot)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.scheduler.Snapshot()
	status := "ok"
	if snap.Waiting || !snap.ScheduleLoaded {
		status = "waiting"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"version":   version.Version,
		"renderers": s.bus.Subscribers(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduler.Snapshot())
}

type lessonView struct {
	Start          string `json:"start"`
	End            string `json:"end"`
	Title          string `json:"title"`
	ShowSlides     bool   `json:"show_slides"`
	ShowBackground bool   `json:"show_background"`
}

func (s *Server) handleSchedule(w http.ResponseWriter, _ *http.Request) {
	lessons := s.repo.Lessons()
	views := make([]lessonView, 0, len(lessons))
	for _, l := range lessons {
		views = append(views, lessonView{
			Start:          l.Start.String(),
			End:            l.End.String(),
			Title:          l.Title,
			ShowSlides:     l.ShowSlides,
			ShowBackground: l.ShowBackground,
		})
	}

	resp := map[string]any{
		"loaded":                    s.repo.Loaded(),
		"source":                    s.source.Name(),
		"rotation_interval_seconds": s.repo.RotationInterval().Seconds(),
		"lessons":                   views,
	}
	if at := s.repo.LoadedAt(); !at.IsZero() {
		resp["loaded_at"] = at
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSlides(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"backend": s.cfg.SlidesBackend,
		"slides":  s.currentSlides(),
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := logbuffer.QueryParams{
		Level:      q.Get("level"),
		Component:  q.Get("component"),
		Search:     q.Get("search"),
		Limit:      100,
		Descending: q.Get("order") != "asc",
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		params.Limit = n
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		params.Since = since
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": s.logBuffer.Query(params),
		"stats":   s.logBuffer.Stats(),
	})
}

// noDirListing hides directory indexes under the slides route.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

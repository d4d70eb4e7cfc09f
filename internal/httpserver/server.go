// Package httpserver exposes the sync core over HTTP for
// backend-for-frontend use.
package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sahayakapp/sahayak-core/internal/config"
	"github.com/sahayakapp/sahayak-core/internal/domain"
	"github.com/sahayakapp/sahayak-core/internal/feedsync"
	"github.com/sahayakapp/sahayak-core/internal/geo"
	"github.com/sahayakapp/sahayak-core/internal/proximity"
)

// FeedLoader is the slice of the feed engine the server needs.
type FeedLoader interface {
	LoadFirstPage(ctx context.Context, q feedsync.FeedQuery) (feedsync.PageResult, error)
	LoadNextPage(ctx context.Context, q feedsync.FeedQuery, cursor string) (feedsync.PageResult, error)
}

// MessageBus is the slice of the realtime bus the server needs.
type MessageBus interface {
	History(ctx context.Context, channel string) ([]domain.Message, error)
	Subscribe(ctx context.Context, channel string, onMessage func(domain.Message)) ([]domain.Message, func(), error)
	Send(ctx context.Context, channel, senderID, content string) (domain.Message, error)
}

// defaultCategories is the category set aggregated by /v1/category-stats.
var defaultCategories = []domain.CategoryDef{
	{Label: "Electricians"},
	{Label: "Plumbers"},
	{Label: "Mechanics"},
	{Label: "Carpenters"},
	{Label: "Painters"},
	{Label: "Cleaners"},
	{Label: "Tutors"},
	{Label: "Drivers"},
}

// Server is the HTTP server over the feed engine and message bus.
type Server struct {
	cfg        *config.Config
	feeds      FeedLoader
	bus        MessageBus
	logger     *slog.Logger
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// NewServer creates the HTTP server.
func NewServer(cfg *config.Config, feeds FeedLoader, bus MessageBus, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		feeds:  feeds,
		bus:    bus,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/feed", s.handleFeed)
	mux.HandleFunc("GET /v1/nearby", s.handleNearby)
	mux.HandleFunc("GET /v1/category-stats", s.handleCategoryStats)
	mux.HandleFunc("GET /v1/channels/{channel}/messages", s.handleChannelHistory)
	mux.HandleFunc("POST /v1/channels/{channel}/messages", s.handleChannelSend)
	mux.HandleFunc("GET /v1/channels/{channel}/ws", s.handleChannelWS)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      withLogging(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := feedsync.FeedQuery{
		Collection: query.Get("collection"),
		Category:   query.Get("category"),
		Search:     query.Get("search"),
		Sort:       query.Get("sort"),
	}
	if q.Collection == "" {
		q.Collection = "posts"
	}

	var (
		res feedsync.PageResult
		err error
	)
	if cursor := query.Get("cursor"); cursor != "" {
		res, err = s.feeds.LoadNextPage(r.Context(), q, cursor)
	} else {
		res, err = s.feeds.LoadFirstPage(r.Context(), q)
	}
	if err != nil {
		s.writeFetchError(w, "feed", err)
		return
	}

	resp := map[string]any{
		"items":     res.Page.Items,
		"hasMore":   res.HasMore,
		"fromCache": res.FromCache,
	}
	if res.Page.Cursor != "" {
		resp["cursor"] = res.Page.Cursor
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	origin, ok := parseOrigin(w, query.Get("lat"), query.Get("lon"))
	if !ok {
		return
	}

	collection := query.Get("collection")
	if collection == "" {
		collection = "helpers"
	}
	mode := proximity.SortMode(query.Get("sort"))
	if mode == "" {
		mode = proximity.SortDistance
	}

	res, err := s.feeds.LoadFirstPage(r.Context(), feedsync.FeedQuery{Collection: collection})
	if err != nil {
		s.writeFetchError(w, "nearby", err)
		return
	}

	matched := proximity.Match(res.Page.Items, origin, query.Get("category"), mode)

	type nearbyItem struct {
		domain.DistanceResult
		ETA string `json:"eta"`
	}
	items := make([]nearbyItem, len(matched))
	for i, m := range matched {
		items[i] = nearbyItem{DistanceResult: m, ETA: geo.ETAString(m.DistanceKm)}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results":   items,
		"fromCache": res.FromCache,
	})
}

func (s *Server) handleCategoryStats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	origin, ok := parseOrigin(w, query.Get("lat"), query.Get("lon"))
	if !ok {
		return
	}

	res, err := s.feeds.LoadFirstPage(r.Context(), feedsync.FeedQuery{Collection: "helpers"})
	if err != nil {
		s.writeFetchError(w, "category-stats", err)
		return
	}

	stats := proximity.AggregateByCategory(res.Page.Items, origin, defaultCategories)

	type statItem struct {
		Label   string `json:"label"`
		Count   int    `json:"count"`
		Nearest string `json:"nearest"`
	}
	items := make([]statItem, len(stats))
	for i, st := range stats {
		nearest := "None"
		if st.HasNearest {
			nearest = fmt.Sprintf("%.1f km", st.NearestKm)
		}
		items[i] = statItem{Label: st.Label, Count: st.Count, Nearest: nearest}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stats":     items,
		"fromCache": res.FromCache,
	})
}

func (s *Server) handleChannelHistory(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")
	history, err := s.bus.History(r.Context(), channel)
	if err != nil {
		s.writeFetchError(w, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": history})
}

func (s *Server) handleChannelSend(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")

	var body struct {
		SenderID string `json:"senderId"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SenderID == "" || body.Content == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "senderId and content are required")
		return
	}

	msg, err := s.bus.Send(r.Context(), channel, body.SenderID, body.Content)
	if err != nil {
		s.writeFetchError(w, "send", err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// handleChannelWS streams a channel's history followed by live messages over
// a websocket until the client disconnects.
func (s *Server) handleChannelWS(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "channel", channel, "error", err)
		return
	}
	defer conn.Close()

	out := make(chan domain.Message, 64)
	history, unsubscribe, err := s.bus.Subscribe(r.Context(), channel, func(m domain.Message) {
		select {
		case out <- m:
		default:
			// slow consumer; the client can refetch history on reconnect
		}
	})
	if err != nil {
		s.logger.Error("channel subscribe failed", "channel", channel, "error", err)
		return
	}
	defer unsubscribe()

	for _, m := range history {
		if err := conn.WriteJSON(m); err != nil {
			return
		}
	}

	// Read loop exists only to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case m := <-out:
			if err := conn.WriteJSON(m); err != nil {
				return
			}
		}
	}
}

// writeFetchError maps the error taxonomy onto HTTP: auth failures become
// 401 so the client can force re-authentication, everything else is an
// upstream failure.
func (s *Server) writeFetchError(w http.ResponseWriter, op string, err error) {
	if domain.IsUnauthorized(err) {
		s.logger.Warn("auth failure", "op", op, "error", err)
		writeError(w, http.StatusUnauthorized, "AuthRequired", "re-authentication required")
		return
	}
	s.logger.Error("request failed", "op", op, "error", err)
	writeError(w, http.StatusBadGateway, "UpstreamError", "remote store unavailable")
}

func parseOrigin(w http.ResponseWriter, latStr, lonStr string) (domain.Coordinate, bool) {
	lat, errLat := strconv.ParseFloat(latStr, 64)
	lon, errLon := strconv.ParseFloat(lonStr, 64)
	if errLat != nil || errLon != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "lat and lon are required")
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Lat: lat, Lon: lon}, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack passes through so the websocket upgrade works behind the logging
// middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

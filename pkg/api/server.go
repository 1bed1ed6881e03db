package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/skatteetaten/orderbook/pkg/order"
	"github.com/skatteetaten/orderbook/pkg/orderbook"
)

// Book is what the server needs from an order book
type Book interface {
	Add(o order.Order) error
	Remove(id int64) error
	Modify(id int64, newSize int64) error
	Level(side order.Side, level int) (float64, int64, error)
	AllOf(side order.Side) ([]order.Order, error)
	Depth(side order.Side, n int) ([]orderbook.Level, error)
	Changed(side order.Side) (<-chan struct{}, error)
}

// Server exposes a Book over HTTP
type Server struct {
	book     Book
	log      *logrus.Entry
	mux      *http.ServeMux
	upgrader websocket.Upgrader

	done      chan struct{}
	closeOnce sync.Once
}

type levelResponse struct {
	Side      order.Side `json:"side"`
	Level     int        `json:"level"`
	Price     float64    `json:"price"`
	TotalSize int64      `json:"totalSize"`
}

type modifyRequest struct {
	Size *int64 `json:"size"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(book Book) *Server {
	s := &Server{
		book: book,
		log:  logrus.WithField("component", "api"),
		mux:  http.NewServeMux(),
		done: make(chan struct{}),
	}
	s.mux.HandleFunc("GET /healthz", s.health)
	s.mux.HandleFunc("POST /api/v1/orders", s.addOrder)
	s.mux.HandleFunc("GET /api/v1/orders", s.listOrders)
	s.mux.HandleFunc("DELETE /api/v1/orders/{id}", s.removeOrder)
	s.mux.HandleFunc("PATCH /api/v1/orders/{id}", s.modifyOrder)
	s.mux.HandleFunc("GET /api/v1/levels/{level}", s.level)
	s.mux.HandleFunc("GET /api/v1/depth", s.depth)
	s.mux.HandleFunc("GET /api/v1/stream", s.stream)
	return s
}

// Handler returns the routes wrapped in request logging
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Close ends open streams
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		s.log.Infof("Listening on %s", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		s.Close()
		return errors.Wrapf(err, "Failed to serve on %s", addr)
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "Failed to shut down server")
	}
	if err := <-errs; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) addOrder(w http.ResponseWriter, r *http.Request) {
	var o order.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		s.writeError(w, errors.Wrap(err, "Invalid order body"), http.StatusBadRequest)
		return
	}
	if err := s.book.Add(o); err != nil {
		s.writeBookError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	side, ok := s.side(w, r)
	if !ok {
		return
	}
	orders, err := s.book.AllOf(side)
	if err != nil {
		s.writeBookError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) removeOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := s.orderID(w, r)
	if !ok {
		return
	}
	if err := s.book.Remove(id); err != nil {
		s.writeBookError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) modifyOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := s.orderID(w, r)
	if !ok {
		return
	}
	var req modifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Size == nil {
		s.writeError(w, errors.New("Expected a body with a size"), http.StatusBadRequest)
		return
	}
	if err := s.book.Modify(id, *req.Size); err != nil {
		s.writeBookError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) level(w http.ResponseWriter, r *http.Request) {
	side, ok := s.side(w, r)
	if !ok {
		return
	}
	level, err := strconv.Atoi(r.PathValue("level"))
	if err != nil {
		s.writeError(w, errors.Errorf("level must be a number, got %q", r.PathValue("level")), http.StatusBadRequest)
		return
	}
	price, total, err := s.book.Level(side, level)
	if err != nil {
		s.writeBookError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, levelResponse{Side: side, Level: level, Price: price, TotalSize: total})
}

func (s *Server) depth(w http.ResponseWriter, r *http.Request) {
	side, ok := s.side(w, r)
	if !ok {
		return
	}
	n := 5
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, errors.Errorf("n must be a number, got %q", raw), http.StatusBadRequest)
			return
		}
		n = parsed
	}
	levels, err := s.book.Depth(side, n)
	if err != nil {
		s.writeBookError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

func (s *Server) side(w http.ResponseWriter, r *http.Request) (order.Side, bool) {
	side, err := order.ParseSideString(r.URL.Query().Get("side"))
	if err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return 0, false
	}
	return side, true
}

func (s *Server) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, errors.Errorf("order id must be a number, got %q", r.PathValue("id")), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) writeBookError(w http.ResponseWriter, err error) {
	switch errors.Cause(err) {
	case orderbook.ErrDuplicateOrder:
		s.writeError(w, err, http.StatusConflict)
	case orderbook.ErrUnknownOrder, orderbook.ErrLevelOutOfRange:
		s.writeError(w, err, http.StatusNotFound)
	case orderbook.ErrClosed:
		s.writeError(w, err, http.StatusServiceUnavailable)
	case orderbook.ErrInvalidPrice:
		s.writeError(w, err, http.StatusBadRequest)
	default:
		s.writeError(w, err, http.StatusBadRequest)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error, status int) {
	s.log.Debugf("Request failed with %d: %v", status, err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Warnf("Unable to write response: %s", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": rec.status,
		}).Debugf("Handled request in %.3fs", time.Since(start).Seconds())
	})
}

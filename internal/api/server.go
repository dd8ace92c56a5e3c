// Package api provides the HTTP API and websocket stream over the query facade.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"screenprobe/internal/bitmap"
	"screenprobe/internal/compat"
	"screenprobe/internal/config"
	"screenprobe/internal/pixel"
	"screenprobe/internal/provider"
	"screenprobe/internal/robot"
)

// Facade is what the server queries
type Facade interface {
	compat.Facade
	Platform() provider.Platform
}

// Server provides the HTTP API
type Server struct {
	configMgr *config.Manager
	facade    Facade
	token     string
	wsMgr     *WSManager
	log       *zap.SugaredLogger
	http      *http.Server

	// facadeMu serializes queries; the facade is single-caller
	facadeMu sync.Mutex
}

// NewServer creates a new API server
func NewServer(configMgr *config.Manager, facade Facade, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	cfg := configMgr.Get()
	s := &Server{
		configMgr: configMgr,
		facade:    facade,
		token:     cfg.API.Token,
		log:       log.Named("api"),
	}
	s.wsMgr = newWSManager(s, cfg.API.StreamIntervalMs)
	return s
}

// Handler returns the routed handler with auth and panic recovery applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/screens", s.handleScreens)
	mux.HandleFunc("/api/screen-size", s.handleScreenSize)
	mux.HandleFunc("/api/pixel", s.handlePixel)
	mux.HandleFunc("/api/mouse-color", s.handleMouseColor)
	mux.HandleFunc("/api/capture", s.handleCapture)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	return s.authMiddleware(s.recoverMiddleware(mux))
}

// StartHub runs the websocket hub and sample stream until Shutdown
func (s *Server) StartHub() {
	s.wsMgr.start()
}

// Start starts the websocket hub and serves the API on the given port. It
// blocks until the server stops.
func (s *Server) Start(port int) error {
	go s.StartHub()

	// tcp4 avoids IPv6-only binding on Windows
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		s.log.Errorf("API: failed to listen on %s: %v", addr, err)
		return err
	}
	s.log.Infof("API: listening on %s", addr)

	s.http = &http.Server{Handler: s.Handler()}
	if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
		s.log.Errorf("API: server stopped: %v", err)
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and the websocket hub
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsMgr.stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// MouseColor samples the pointer color in turn with the server's own queries
func (s *Server) MouseColor() pixel.Sample {
	s.facadeMu.Lock()
	defer s.facadeMu.Unlock()
	return s.facade.MouseColor()
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Errorf("API: panic serving %s: %v", r.URL.Path, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks the API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debugf("API: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		if r.URL.Path == "/health" || s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError maps facade errors onto status codes
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, robot.ErrInvalidArguments):
		status = http.StatusBadRequest
	case errors.Is(err, robot.ErrOutOfBounds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, robot.ErrNoDisplay), errors.Is(err, provider.ErrResourcesInvalid):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.log.Warnf("API: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// queryArg returns the parameter as an int when it parses, or the raw string
// so argument checking reports the bad type.
func queryArg(v string) interface{} {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return v
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleScreens handles GET /api/screens
func (s *Server) handleScreens(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	s.facadeMu.Lock()
	monitors, err := compat.GetScreens(s.facade)
	s.facadeMu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, monitors)
}

// handleScreenSize handles GET /api/screen-size[?index=n]. A miss is a null body.
func (s *Server) handleScreenSize(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	var args []interface{}
	if q := r.URL.Query(); q.Has("index") {
		args = append(args, queryArg(q.Get("index")))
	}

	s.facadeMu.Lock()
	size, err := compat.GetScreenSize(s.facade, args...)
	s.facadeMu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, size)
}

// handlePixel handles GET /api/pixel?x=&y=[&rgb=true]
func (s *Server) handlePixel(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	q := r.URL.Query()
	var args []interface{}
	for _, key := range []string{"x", "y"} {
		if q.Has(key) {
			args = append(args, queryArg(q.Get(key)))
		}
	}
	if q.Has("rgb") {
		if b, err := strconv.ParseBool(q.Get("rgb")); err == nil {
			args = append(args, b)
		} else {
			args = append(args, q.Get("rgb"))
		}
	}

	s.facadeMu.Lock()
	result, err := compat.GetPixelColor(s.facade, args...)
	s.facadeMu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, result)
}

// handleMouseColor handles GET /api/mouse-color
func (s *Server) handleMouseColor(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	s.facadeMu.Lock()
	rec := compat.GetMouseColor(s.facade)
	s.facadeMu.Unlock()
	writeJSON(w, rec)
}

// handleCapture handles GET /api/capture[?x=&y=&w=&h=][&encoding=png|zstd]
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	q := r.URL.Query()
	var args []int
	for _, key := range []string{"x", "y", "w", "h"} {
		if !q.Has(key) {
			continue
		}
		n, err := strconv.Atoi(q.Get(key))
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: %s must be an integer", robot.ErrInvalidArguments, key))
			return
		}
		args = append(args, n)
	}

	encoding := q.Get("encoding")
	if encoding == "" {
		encoding = "png"
	}
	if encoding != "png" && encoding != "zstd" {
		s.writeError(w, fmt.Errorf("%w: unknown encoding %q", robot.ErrInvalidArguments, encoding))
		return
	}

	s.facadeMu.Lock()
	bmp, err := compat.Capture(s.facade, args...)
	s.facadeMu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	var body bytes.Buffer
	switch encoding {
	case "zstd":
		err = EncodeRaw(&body, bmp)
		w.Header().Set("Content-Type", "application/zstd")
		SetBitmapHeaders(w.Header(), bmp)
	default:
		err = png.Encode(&body, bmp.Image())
		w.Header().Set("Content-Type", "image/png")
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Write(body.Bytes())
}

// handleVersion handles GET /api/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	s.facadeMu.Lock()
	resp := map[string]interface{}{
		"version":         compat.GetVersion(s.facade),
		"platform":        s.facade.Platform().String(),
		"resources_valid": compat.IsResourcesValid(s.facade),
	}
	s.facadeMu.Unlock()
	writeJSON(w, resp)
}

// Bitmap metadata headers sent with raw captures
const (
	HeaderWidth         = "X-Bitmap-Width"
	HeaderHeight        = "X-Bitmap-Height"
	HeaderByteWidth     = "X-Bitmap-Byte-Width"
	HeaderBitsPerPixel  = "X-Bitmap-Bits-Per-Pixel"
	HeaderBytesPerPixel = "X-Bitmap-Bytes-Per-Pixel"
)

// SetBitmapHeaders describes the layout of a raw capture body
func SetBitmapHeaders(h http.Header, bmp *bitmap.Bitmap) {
	h.Set(HeaderWidth, strconv.Itoa(bmp.Width))
	h.Set(HeaderHeight, strconv.Itoa(bmp.Height))
	h.Set(HeaderByteWidth, strconv.Itoa(bmp.ByteWidth))
	h.Set(HeaderBitsPerPixel, strconv.Itoa(bmp.BitsPerPixel))
	h.Set(HeaderBytesPerPixel, strconv.Itoa(bmp.BytesPerPixel))
}

// EncodeRaw writes the bitmap buffer zstd-compressed
func EncodeRaw(w *bytes.Buffer, bmp *bitmap.Bitmap) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := enc.Write(bmp.Bytes()); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// DecodeRaw rebuilds a bitmap from a raw capture body and its headers
func DecodeRaw(h http.Header, body []byte) (*bitmap.Bitmap, error) {
	var dims [5]int
	for i, key := range []string{HeaderWidth, HeaderHeight, HeaderByteWidth, HeaderBitsPerPixel, HeaderBytesPerPixel} {
		n, err := strconv.Atoi(h.Get(key))
		if err != nil {
			return nil, fmt.Errorf("missing or invalid %s header: %w", key, err)
		}
		dims[i] = n
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	buf, err := dec.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress capture: %w", err)
	}
	return bitmap.New(dims[0], dims[1], dims[2], dims[3], dims[4], buf)
}

// Package sandbox is an in-memory stand-in for the back-office compensation
// backend. It speaks the same REST contract as production and is used by
// integration tests and local demos.
package sandbox

import (
	"net"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type Server struct {
	srv *fasthttp.Server
}

func NewServer(store *Store, log *zap.Logger) *Server {
	h := NewHandler(store, log)
	return &Server{srv: &fasthttp.Server{
		Handler:            h.Serve,
		Name:               "compensation-sandbox",
		MaxRequestBodySize: 32 << 20,
	}}
}

func (s *Server) ListenAndServe(addr string) error {
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

package monitor

import (
	"net"
	"net/http"
	"strconv"

	"github.com/vislab/jobpool/srcs/go/log"
)

type Server struct {
	srv *http.Server
}

// StartServer serves h on port in the background.
func StartServer(port int, h http.Handler) *Server {
	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
	s := &Server{
		srv: &http.Server{
			Handler: h,
			Addr:    addr,
		},
	}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("debug server on %s stopped: %v", addr, err)
		}
	}()
	return s
}

func (s *Server) Stop() error {
	return s.srv.Close()
}

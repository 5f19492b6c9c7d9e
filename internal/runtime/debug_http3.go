package runtime

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	http3 "github.com/quic-go/quic-go/http3"
)

// DebugHTTP3Server serves the same diagnostic endpoints over HTTP/3.
type DebugHTTP3Server struct {
	srv   *http3.Server
	pc    net.PacketConn
	addr  string
	close func() error
}

// NewDebugHTTP3Server creates a server bound to addr with the given TLS
// config, serving the runtime's diagnostic mux.
func NewDebugHTTP3Server(rt *Runtime, addr string, tlsCfg *tls.Config) *DebugHTTP3Server {
	s := &http3.Server{Addr: addr, TLSConfig: tlsCfg, Handler: rt.debugMux()}
	return &DebugHTTP3Server{srv: s, addr: addr}
}

// Start begins serving on a UDP port, ephemeral if addr ends with ":0".
// Returns the bound address.
func (s *DebugHTTP3Server) Start() (string, error) {
	var err error
	s.pc, err = net.ListenPacket("udp", s.addr)
	if err != nil {
		return "", err
	}
	realAddr := s.pc.LocalAddr().String()
	done := make(chan struct{})
	go func() {
		_ = s.srv.Serve(s.pc)
		close(done)
	}()
	s.close = func() error {
		_ = s.pc.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return nil
	}
	return realAddr, nil
}

// Stop stops the server.
func (s *DebugHTTP3Server) Stop() error {
	if s.close != nil {
		return s.close()
	}
	return nil
}

// DebugHTTP3Client returns an http.Client using an HTTP/3 transport.
func DebugHTTP3Client(tlsCfg *tls.Config, timeout time.Duration) *http.Client {
	tr := &http3.Transport{TLSClientConfig: tlsCfg}
	return &http.Client{Transport: tr, Timeout: timeout}
}

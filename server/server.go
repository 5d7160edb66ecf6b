package server

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/chris9740/swiftdns/dnsutil"
	"github.com/chris9740/swiftdns/middleware"
	"github.com/miekg/dns"
	"github.com/semihalev/zlog/v2"
	"golang.org/x/sync/semaphore"
)

// Server reads queries from a UDP socket and runs each one through the
// handler chain.
type Server struct {
	addr    string
	workers *semaphore.Weighted
	size    int64

	handlers  []middleware.Handler
	chainPool sync.Pool

	mu   sync.Mutex
	conn net.PacketConn
}

// New return new server
func New(addr string, workers int, handlers []middleware.Handler) *Server {
	if workers <= 0 {
		workers = 1
	}

	s := &Server{
		addr:     addr,
		workers:  semaphore.NewWeighted(int64(workers)),
		size:     int64(workers),
		handlers: handlers,
	}

	s.chainPool.New = func() any {
		return middleware.NewChain(s.handlers)
	}

	return s
}

// ListenAndServe binds the UDP socket and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return err
	}

	zlog.Info("DNS server listening...", "net", "udp", "addr", conn.LocalAddr().String())

	return s.Serve(ctx, conn)
}

// Addr returns the bound address, or nil before Serve is called.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Serve reads datagrams from conn until ctx is done. It closes conn and
// waits for in-flight queries before returning.
func (s *Server) Serve(ctx context.Context, conn net.PacketConn) error {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	defer conn.Close()

	buf := make([]byte, dns.MaxMsgSize)

	for {
		if ctx.Err() != nil {
			break
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}

			zlog.Warn("UDP read failed", "error", err.Error())
			continue
		}

		if err := s.workers.Acquire(ctx, 1); err != nil {
			break
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		go func() {
			defer s.workers.Release(1)
			s.handle(ctx, &udpWriter{conn: conn, addr: addr}, data)
		}()
	}

	// wait for in-flight queries
	if err := s.workers.Acquire(context.Background(), s.size); err == nil {
		s.workers.Release(s.size)
	}

	zlog.Info("DNS server stopped", "net", "udp", "addr", conn.LocalAddr().String())

	return nil
}

func (s *Server) handle(ctx context.Context, w middleware.Writer, data []byte) {
	req, err := dnsutil.Decode(data)
	if err != nil {
		zlog.Debug("Malformed query dropped", "client", w.RemoteAddr().String(), "error", err.Error())
		return
	}

	s.ServeDNS(ctx, w, req)
}

// ServeDNS runs a decoded query through the handler chain.
func (s *Server) ServeDNS(ctx context.Context, w middleware.Writer, r *dns.Msg) {
	ch := s.chainPool.Get().(*middleware.Chain)

	ch.Reset(w, r)
	ch.Next(ctx)

	s.chainPool.Put(ch)
}

type udpWriter struct {
	conn net.PacketConn
	addr net.Addr
}

func (w *udpWriter) RemoteAddr() net.Addr { return w.addr }

func (w *udpWriter) WriteMsg(m *dns.Msg) error {
	b, err := m.Pack()
	if err != nil {
		return err
	}

	_, err = w.conn.WriteTo(b, w.addr)
	return err
}

const readTimeout = time.Second

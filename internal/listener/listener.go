// Package listener accepts RESP-ish framed client connections and
// dispatches each parsed command against the keyspace engine, one
// goroutine per connection.
package listener

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nyxdb/nyxdb/internal/keyspace"
	"github.com/nyxdb/nyxdb/internal/logging"
	"github.com/nyxdb/nyxdb/internal/resp"
)

// AOFAppender is the subset of *persist.AOF a Server needs; kept as an
// interface here so this package doesn't import internal/persist.
type AOFAppender interface {
	Append(argv []string) error
}

// Server owns the set of listeners and routes accepted connections to
// the keyspace engine.
type Server struct {
	Srv    *keyspace.Server
	Log    *logging.Logger
	AOF    []AOFAppender // indexed by DB, nil entries mean no AOF for that DB

	mu        sync.Mutex
	listeners []net.Listener
	conns     map[net.Conn]struct{}
	count     int32
}

// New builds a listener Server bound to srv.
func New(srv *keyspace.Server, log *logging.Logger) *Server {
	return &Server{
		Srv:   srv,
		Log:   log,
		conns: make(map[net.Conn]struct{}),
	}
}

// ListenTCP starts a plain TCP listener on addr and serves it in a new
// goroutine.
func (s *Server) ListenTCP(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
	s.Log.Info("listening on %s (TCP)", addr)
	go s.serve(l)
	return nil
}

// ListenTLS starts a TLS listener on addr using the given certificate
// pair and serves it in a new goroutine.
func (s *Server) ListenTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return err
	}
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
	l, err := tls.Listen("tcp", addr, cfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
	s.Log.Info("listening on %s (TLS)", addr)
	go s.serve(l)
	return nil
}

func (s *Server) serve(l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			s.Log.Warn("listener on %s closed: %v", l.Addr(), err)
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		go s.handleConn(conn)
	}
}

// handleConn serves one connection for its lifetime, recovering a
// per-connection panic at the boundary rather than bringing down the
// rest of the process.
func (s *Server) handleConn(conn net.Conn) {
	n := atomic.AddInt32(&s.count, 1)
	s.Log.Info("[%d] accepted connection from %s", n, conn.RemoteAddr())

	defer func() {
		if r := recover(); r != nil {
			s.Log.Error("[%d] connection panic recovered: %v", n, r)
		}
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	dbIndex := 0
	reader := bufio.NewReader(conn)
	writer := resp.NewWriter(conn)

	for {
		argv, err := resp.ReadCommand(reader)
		if err != nil {
			return
		}
		if len(argv) == 0 {
			continue
		}

		if idx, ok := selectCommand(argv); ok {
			dbIndex = idx
			writer.WriteSimpleString("OK")
			writer.Flush()
			continue
		}

		req := keyspace.Request{Argv: argv, ExpiretimeIn: -1}
		result := keyspace.Dispatch(s.Srv, dbIndex, req, time.Now())
		if entry, ok := keyspace.Lookup(argv[0]); ok && !result.Code.IsError() && entry.Flags.Write {
			if dbIndex < len(s.AOF) && s.AOF[dbIndex] != nil {
				if err := s.AOF[dbIndex].Append(argv); err != nil {
					s.Log.Error("[%d] aof append failed: %v", n, err)
				}
			}
		}
		writeResult(writer, result)
		writer.Flush()
	}
}

// selectCommand recognizes the connection-local "select N" pseudo
// command that is not part of the keyspace engine's own command
// table.
func selectCommand(argv []string) (int, bool) {
	if len(argv) != 2 || !strings.EqualFold(argv[0], "select") {
		return 0, false
	}
	var idx int
	if _, err := fmt.Sscanf(argv[1], "%d", &idx); err != nil {
		return 0, false
	}
	return idx, true
}

func writeResult(w *resp.Writer, r keyspace.Result) {
	switch {
	case r.Code.IsError():
		w.WriteError(r.Code.String())
	case r.List != nil:
		w.WriteArray(r.List)
	case r.HasBulk:
		w.WriteBulk(r.Bulk)
	case r.Code == keyspace.OkNotExist:
		w.WriteNull()
	default:
		w.WriteInteger(r.Scalar)
	}
}

// Shutdown closes every listener and every currently open connection.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listeners {
		l.Close()
	}
	for c := range s.conns {
		c.Close()
	}
}

// Package server exposes the index over the framed TCP protocol: one command
// per accepted connection, dispatched onto the R/W scheduled worker pool.
// Query commands run inline as reader tasks; mutating commands register a
// deferred write task and return its ID immediately.
package server

import (
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edirooss/searchd/internal/index"
	"github.com/edirooss/searchd/internal/rwpool"
	"github.com/edirooss/searchd/internal/storage"
	"github.com/edirooss/searchd/pkg/wire"
)

// Server accepts connections and serves the command protocol.
type Server struct {
	log   *zap.Logger
	index *index.Manager
	store *storage.Store
	pool  *rwpool.Pool
	tasks *taskRegistry
}

// New wires the server over an index manager, its blob store and the pool.
func New(log *zap.Logger, idx *index.Manager, store *storage.Store, pool *rwpool.Pool) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:   log.Named("server"),
		index: idx,
		store: store,
		pool:  pool,
		tasks: newTaskRegistry(),
	}
}

// Serve accepts connections until the listener closes. Each connection is
// scheduled as a reader task; the protocol exchange happens on a pool worker.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("serving", zap.String("addr", ln.Addr().String()))

	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		if !s.pool.Working() {
			_ = c.Close()
			continue
		}
		s.pool.AddReaderTask(func() { s.serveConn(c) })
	}
}

// serveConn runs the one-command exchange of a single connection.
func (s *Server) serveConn(c net.Conn) {
	defer c.Close()

	start := time.Now()
	log := s.log.With(
		zap.String("conn_id", uuid.New().String()),
		zap.String("remote", c.RemoteAddr().String()),
	)

	cmd, err := wire.ReadCommand(c)
	if err != nil {
		_ = wire.WriteResponse(c, wire.RespErrorReceivingCommand)
		log.Warn("request", zap.Error(err))
		return
	}

	cn := &conn{c: c, log: log}

	switch cmd {
	case wire.CmdSetWriterDuration:
		s.handleSetWriterDuration(cn)
	case wire.CmdSetReaderDuration:
		s.handleSetReaderDuration(cn)
	case wire.CmdGetWriterDuration:
		s.handleGetWriterDuration(cn)
	case wire.CmdGetReaderDuration:
		s.handleGetReaderDuration(cn)
	case wire.CmdGetFileContent:
		s.handleGetFileContent(cn)
	case wire.CmdGetWriteResult:
		s.handleGetWriteResult(cn)
	case wire.CmdModifyFile:
		s.handleModifyFile(cn)
	case wire.CmdRemoveFile:
		s.handleRemoveFile(cn)
	case wire.CmdAddFile:
		s.handleAddFile(cn)
	case wire.CmdHasFile:
		s.handleHasFile(cn)
	case wire.CmdSearch:
		s.handleSearch(cn)
	default:
		cn.respond(wire.RespInvalidCommand)
	}

	log.Info("request",
		zap.Uint8("command", uint8(cmd)),
		zap.Duration("latency", time.Since(start)))
}

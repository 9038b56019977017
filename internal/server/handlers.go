package server

import (
	"go.uber.org/zap"

	"github.com/edirooss/searchd/pkg/wire"
)

func (s *Server) handleSetWriterDuration(cn *conn) {
	d, ok := cn.readFloat32()
	if !ok {
		return
	}
	if err := s.pool.SetWriterDuration(d); err != nil {
		cn.respond(wire.RespDurationTooSmall)
		return
	}
	cn.respond(wire.RespOK)
}

func (s *Server) handleSetReaderDuration(cn *conn) {
	d, ok := cn.readFloat32()
	if !ok {
		return
	}
	if err := s.pool.SetReaderDuration(d); err != nil {
		cn.respond(wire.RespDurationTooSmall)
		return
	}
	cn.respond(wire.RespOK)
}

func (s *Server) handleGetWriterDuration(cn *conn) {
	cn.respond(wire.RespOK)
	cn.writeFloat32(s.pool.WriterDuration())
}

func (s *Server) handleGetReaderDuration(cn *conn) {
	cn.respond(wire.RespOK)
	cn.writeFloat32(s.pool.ReaderDuration())
}

func (s *Server) handleGetFileContent(cn *conn) {
	filePath, ok := cn.readString(false)
	if !ok {
		return
	}

	body, err := s.index.FileContent(filePath)
	if err != nil {
		cn.respond(wire.RespFileNotFound)
		return
	}

	cn.respond(wire.RespOK)
	cn.writeString(string(body))
}

func (s *Server) handleGetWriteResult(cn *conn) {
	id, ok := cn.readUint64(false)
	if !ok {
		return
	}

	status, err := s.tasks.Get(TaskID(id))
	if err != nil {
		cn.respond(wire.RespTaskIDNotFound)
		return
	}
	cn.respond(status)
}

func (s *Server) handleModifyFile(cn *conn) {
	filePath, ok := cn.readString(false)
	if !ok {
		return
	}

	taskID := s.tasks.Register()
	s.pool.AddWriterTask(func() { s.runModify(taskID, filePath) })

	cn.respond(wire.RespOK)
	cn.writeUint64(uint64(taskID))
}

func (s *Server) handleRemoveFile(cn *conn) {
	filePath, ok := cn.readString(false)
	if !ok {
		return
	}

	taskID := s.tasks.Register()
	s.pool.AddWriterTask(func() { s.runRemove(taskID, filePath) })

	cn.respond(wire.RespOK)
	cn.writeUint64(uint64(taskID))
}

func (s *Server) handleAddFile(cn *conn) {
	filePath, ok := cn.readString(false)
	if !ok {
		return
	}
	onServer, ok := cn.readBool()
	if !ok {
		return
	}

	var body string
	if !onServer {
		if body, ok = cn.readString(false); !ok {
			return
		}
	}

	taskID := s.tasks.Register()
	if onServer {
		s.pool.AddWriterTask(func() { s.runAdd(taskID, filePath) })
	} else {
		// Client-supplied bodies land under the server's base directory.
		full := s.store.JoinBase(filePath)
		s.pool.AddWriterTask(func() { s.runAddCreate(taskID, full, []byte(body)) })
	}

	cn.respond(wire.RespOK)
	cn.writeUint64(uint64(taskID))
}

func (s *Server) handleHasFile(cn *conn) {
	filePath, ok := cn.readString(true)
	if !ok {
		return
	}

	// A tombstoned path reports (false, id) internally; the wire flattens
	// both that and "never seen" to file_not_found.
	present, _ := s.index.HasFile(filePath)
	if present {
		cn.respond(wire.RespOK)
	} else {
		cn.respond(wire.RespFileNotFound)
	}
}

func (s *Server) handleSearch(cn *conn) {
	filesOnly, ok := cn.readBool()
	if !ok {
		return
	}
	wordCount, ok := cn.readUint16(true)
	if !ok {
		return
	}
	if wordCount == 0 {
		cn.respond(wire.RespSearchEntriesNotFound)
		return
	}

	words := make([]string, 0, wordCount)
	for i := uint16(0); i < wordCount; i++ {
		w, ok := cn.readString(true)
		if !ok {
			return
		}
		words = append(words, w)
	}

	if filesOnly {
		files, err := s.index.SearchFiles(words)
		if err != nil {
			cn.respond(wire.RespSearchEntriesNotFound)
			return
		}

		cn.respond(wire.RespOK)
		if !cn.writeUint32(uint32(len(files))) {
			return
		}
		for _, p := range files {
			if !cn.writeString(p) {
				return
			}
		}
		return
	}

	files, hits, err := s.index.SearchHits(words)
	if err != nil {
		cn.respond(wire.RespSearchEntriesNotFound)
		return
	}

	cn.respond(wire.RespOK)
	if !cn.writeUint32(uint32(len(files))) {
		return
	}
	for id, p := range files {
		if !cn.writeUint32(uint32(id)) {
			return
		}
		if !cn.writeString(p) {
			return
		}
	}
	if !cn.writeUint64(uint64(len(hits))) {
		return
	}
	for _, h := range hits {
		if !cn.writeUint32(uint32(h.FileID)) {
			return
		}
		if !cn.writeUint32(uint32(h.Position)) {
			return
		}
	}
}

// Deferred write-task runners. Each flips the registry to in_progress, runs
// the mutation under the index manager's write lock, and records a terminal
// status drawn from {ok, could_not_add_file, file_not_found}.

func (s *Server) runAdd(taskID TaskID, filePath string) {
	s.tasks.Set(taskID, wire.RespInProgress)

	status := wire.RespOK
	if err := s.index.AddFile(filePath); err != nil {
		status = wire.RespCouldNotAddFile
		s.log.Warn("add task failed", zap.Uint64("task_id", uint64(taskID)), zap.Error(err))
	}
	s.tasks.Set(taskID, status)
}

func (s *Server) runAddCreate(taskID TaskID, filePath string, body []byte) {
	s.tasks.Set(taskID, wire.RespInProgress)

	status := wire.RespOK
	if err := s.index.AddCreateFile(filePath, body); err != nil {
		status = wire.RespCouldNotAddFile
		s.log.Warn("add-create task failed", zap.Uint64("task_id", uint64(taskID)), zap.Error(err))
	}
	s.tasks.Set(taskID, status)
}

func (s *Server) runRemove(taskID TaskID, filePath string) {
	s.tasks.Set(taskID, wire.RespInProgress)

	status := wire.RespOK
	if err := s.index.RemoveFile(filePath); err != nil {
		status = wire.RespFileNotFound
		s.log.Warn("remove task failed", zap.Uint64("task_id", uint64(taskID)), zap.Error(err))
	}
	s.tasks.Set(taskID, status)
}

func (s *Server) runModify(taskID TaskID, filePath string) {
	s.tasks.Set(taskID, wire.RespInProgress)

	status := wire.RespOK
	if err := s.index.ModifyFile(filePath); err != nil {
		status = wire.RespFileNotFound
		s.log.Warn("modify task failed", zap.Uint64("task_id", uint64(taskID)), zap.Error(err))
	}
	s.tasks.Set(taskID, status)
}

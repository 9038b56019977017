// Package wire implements the framed request/response protocol spoken over
// per-request TCP connections: single-byte command and response codes,
// big-endian integers, IEEE-754 floats carried as bit patterns, and
// length-prefixed UTF-8 strings.
package wire

// Command identifies a client request. One command is served per connection.
type Command uint8

const (
	CmdSetWriterDuration Command = 245 + iota
	CmdSetReaderDuration
	CmdGetWriterDuration
	CmdGetReaderDuration
	CmdGetFileContent
	CmdGetWriteResult
	CmdModifyFile
	CmdRemoveFile
	CmdAddFile
	CmdHasFile
	CmdSearch
)

// Response is the single-byte status prefix of every reply. The deferred
// write-task registry stores Response values directly, so task polling and
// the wire share one vocabulary.
type Response uint8

const (
	RespOK Response = iota
	RespInvalidCommand
	RespErrorReceivingCommand
	RespErrorReceivingData
	RespArgumentIsZero
	RespSearchEntriesNotFound
	RespFileNotFound
	RespCouldNotAddFile
	RespDurationTooSmall
	RespNotProcessed
	RespInProgress
	RespTaskIDNotFound
)

// String renders the code for log fields.
func (r Response) String() string {
	switch r {
	case RespOK:
		return "ok"
	case RespInvalidCommand:
		return "invalid_command"
	case RespErrorReceivingCommand:
		return "error_receiving_command"
	case RespErrorReceivingData:
		return "error_receiving_data"
	case RespArgumentIsZero:
		return "argument_is_zero"
	case RespSearchEntriesNotFound:
		return "search_query_entries_not_found"
	case RespFileNotFound:
		return "file_not_found"
	case RespCouldNotAddFile:
		return "could_not_add_file"
	case RespDurationTooSmall:
		return "new_duration_is_way_too_small"
	case RespNotProcessed:
		return "operation_is_not_processed"
	case RespInProgress:
		return "operation_is_in_progress"
	case RespTaskIDNotFound:
		return "write_task_id_not_found"
	default:
		return "unknown"
	}
}

// Terminal reports whether the code is a final write-task outcome. The
// registry transitions not_processed → in_progress → terminal, never back.
func (r Response) Terminal() bool {
	switch r {
	case RespOK, RespCouldNotAddFile, RespFileNotFound, RespTaskIDNotFound:
		return true
	}
	return false
}

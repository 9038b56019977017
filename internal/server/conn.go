package server

import (
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/edirooss/searchd/internal/textnorm"
	"github.com/edirooss/searchd/pkg/wire"
)

// conn wraps one accepted socket with the receive-and-police helpers the
// handlers share. Every read helper returns ok=false after already sending
// the appropriate error code (error_receiving_data on short reads,
// argument_is_zero when a required value is zero); the handler just returns
// and the deferred close tears the connection down.
type conn struct {
	c   net.Conn
	log *zap.Logger
}

func (cn *conn) respond(code wire.Response) {
	if err := wire.WriteResponse(cn.c, code); err != nil {
		cn.log.Debug("send response", zap.Error(err))
	}
}

func (cn *conn) readUint16(allowZero bool) (uint16, bool) {
	v, err := wire.ReadUint16(cn.c)
	if err != nil {
		cn.respond(wire.RespErrorReceivingData)
		return 0, false
	}
	if !allowZero && v == 0 {
		cn.respond(wire.RespArgumentIsZero)
		return 0, false
	}
	return v, true
}

func (cn *conn) readUint32(allowZero bool) (uint32, bool) {
	v, err := wire.ReadUint32(cn.c)
	if err != nil {
		cn.respond(wire.RespErrorReceivingData)
		return 0, false
	}
	if !allowZero && v == 0 {
		cn.respond(wire.RespArgumentIsZero)
		return 0, false
	}
	return v, true
}

func (cn *conn) readUint64(allowZero bool) (uint64, bool) {
	v, err := wire.ReadUint64(cn.c)
	if err != nil {
		cn.respond(wire.RespErrorReceivingData)
		return 0, false
	}
	if !allowZero && v == 0 {
		cn.respond(wire.RespArgumentIsZero)
		return 0, false
	}
	return v, true
}

func (cn *conn) readBool() (bool, bool) {
	v, err := wire.ReadBool(cn.c)
	if err != nil {
		cn.respond(wire.RespErrorReceivingData)
		return false, false
	}
	return v, true
}

// readFloat32 transports the IEEE-754 bit pattern as a u32; an all-zero
// pattern falls under the zero-argument rule.
func (cn *conn) readFloat32() (float32, bool) {
	bits, ok := cn.readUint32(false)
	if !ok {
		return 0, false
	}
	return wire.Float32FromBits(bits), true
}

// readString reads a length-prefixed UTF-8 string; empty strings fall under
// the zero-argument rule. With lower=true the value is case-folded at the
// wire, mirroring what the index does with interned keys.
func (cn *conn) readString(lower bool) (string, bool) {
	n, ok := cn.readUint16(false)
	if !ok {
		return "", false
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(cn.c, buf); err != nil {
		cn.respond(wire.RespErrorReceivingData)
		return "", false
	}

	s := string(buf)
	if lower {
		s = textnorm.Lower(s)
	}
	return s, true
}

func (cn *conn) writeUint32(v uint32) bool {
	if err := wire.WriteUint32(cn.c, v); err != nil {
		cn.log.Debug("send u32", zap.Error(err))
		return false
	}
	return true
}

func (cn *conn) writeUint64(v uint64) bool {
	if err := wire.WriteUint64(cn.c, v); err != nil {
		cn.log.Debug("send u64", zap.Error(err))
		return false
	}
	return true
}

func (cn *conn) writeFloat32(f float32) bool {
	if err := wire.WriteFloat32(cn.c, f); err != nil {
		cn.log.Debug("send f32", zap.Error(err))
		return false
	}
	return true
}

func (cn *conn) writeString(s string) bool {
	if err := wire.WriteString(cn.c, s); err != nil {
		cn.log.Debug("send string", zap.Error(err))
		return false
	}
	return true
}

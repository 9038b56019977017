package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxStringLen is the largest payload a length-prefixed string can carry;
// the 2-byte prefix cannot represent more.
const MaxStringLen = math.MaxUint16

// ErrStringTooLong is returned when a string exceeds MaxStringLen bytes.
var ErrStringTooLong = errors.New("wire: string exceeds 65535 bytes")

// All multi-byte integers travel big-endian.

func ReadUint8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func ReadUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func WriteUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func WriteUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func WriteUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// Bool is one byte; zero is false, anything else true.

func ReadBool(r io.Reader) (bool, error) {
	b, err := ReadUint8(r)
	return b != 0, err
}

func WriteBool(w io.Writer, v bool) error {
	if v {
		return WriteUint8(w, 1)
	}
	return WriteUint8(w, 0)
}

// Floats cross the wire as their IEEE-754 bit pattern in a big-endian u32.

func Float32ToBits(f float32) uint32 { return math.Float32bits(f) }

func Float32FromBits(bits uint32) float32 { return math.Float32frombits(bits) }

func ReadFloat32(r io.Reader) (float32, error) {
	bits, err := ReadUint32(r)
	if err != nil {
		return 0, err
	}
	return Float32FromBits(bits), nil
}

func WriteFloat32(w io.Writer, f float32) error {
	return WriteUint32(w, Float32ToBits(f))
}

// ReadString reads a 2-byte length followed by that many UTF-8 bytes.
func ReadString(r io.Reader) (string, error) {
	n, err := ReadUint16(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteString writes the 2-byte byte length followed by the string bytes.
// Strings longer than MaxStringLen are not representable.
func WriteString(w io.Writer, s string) error {
	if len(s) > MaxStringLen {
		return fmt.Errorf("%w (%d bytes)", ErrStringTooLong, len(s))
	}
	if err := WriteUint16(w, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func ReadCommand(r io.Reader) (Command, error) {
	b, err := ReadUint8(r)
	return Command(b), err
}

func WriteCommand(w io.Writer, c Command) error { return WriteUint8(w, uint8(c)) }

func ReadResponse(r io.Reader) (Response, error) {
	b, err := ReadUint8(r)
	return Response(b), err
}

func WriteResponse(w io.Writer, resp Response) error { return WriteUint8(w, uint8(resp)) }

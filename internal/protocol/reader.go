package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Reader последовательно читает типизированные значения из тела пакета.
// Тело пакета всегда полностью буферизовано, поэтому Reader знает,
// сколько байт осталось (нужно для стратегий Remaining).
type Reader struct {
	buf []byte
	off int
}

// NewReader создаёт Reader поверх body. Буфер не копируется.
func NewReader(body []byte) *Reader {
	return &Reader{buf: body}
}

// Remaining возвращает количество непрочитанных байт.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// take отрезает n байт или возвращает ErrTruncated.
func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadByte читает один байт.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBool читает байт 0/1. Любое другое значение — ErrInvalidEncoding.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: bool byte 0x%02x", ErrInvalidEncoding, b)
	}
}

// ReadUint16 читает big-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadInt32 читает int32 с учётом opts.VarInt.
func (r *Reader) ReadInt32(opts IntOptions) (int32, error) {
	if opts.VarInt {
		v, n, err := DecodeVarInt(r.buf[r.off:])
		if err != nil {
			return 0, err
		}
		r.off += n
		return v, nil
	}
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// ReadInt64 читает int64 с учётом opts.VarInt.
func (r *Reader) ReadInt64(opts IntOptions) (int64, error) {
	if opts.VarInt {
		v, n, err := DecodeVarLong(r.buf[r.off:])
		if err != nil {
			return 0, err
		}
		r.off += n
		return v, nil
	}
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// ReadFloat64 читает big-endian float64.
func (r *Reader) ReadFloat64() (float64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// ReadVarInt — сокращение для ReadInt32 с VarInt-опцией.
func (r *Reader) ReadVarInt() (int32, error) {
	return r.ReadInt32(IntOptions{VarInt: true})
}

// readLen читает неотрицательную длину (VarInt) и сверяет с max
// до какого-либо выделения памяти. max <= 0 означает "без ограничения".
func (r *Reader) readLen(max int) (int, error) {
	v, err := r.ReadVarInt()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrInvalidEncoding, v)
	}
	if max > 0 && int(v) > max {
		return 0, fmt.Errorf("%w: declared length %d, max %d", ErrExceededBound, v, max)
	}
	return int(v), nil
}

// ReadString читает строку с VarInt-префиксом байтовой длины.
// Длина сверяется с opts.MaxLen до чтения байт; невалидный UTF-8 отвергается.
func (r *Reader) ReadString(opts StringOptions) (string, error) {
	n, err := r.readLen(opts.MaxLen)
	if err != nil {
		return "", err
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: string is not valid UTF-8", ErrInvalidEncoding)
	}
	return string(b), nil
}

// ReadByteArray читает срез байт согласно стратегии длины.
func (r *Reader) ReadByteArray(opts ListOptions) ([]byte, error) {
	var n int
	switch opts.Length {
	case LengthVarInt:
		var err error
		n, err = r.readLen(opts.MaxLen)
		if err != nil {
			return nil, err
		}
	case LengthFixed:
		n = opts.Count
	case LengthRemaining:
		n = r.Remaining()
		if opts.MaxLen > 0 && n > opts.MaxLen {
			return nil, fmt.Errorf("%w: remaining %d bytes, max %d", ErrExceededBound, n, opts.MaxLen)
		}
	}
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadUUID читает UUID как 16 байт big-endian.
func (r *Reader) ReadUUID() (uuid.UUID, error) {
	b, err := r.take(16)
	if err != nil {
		return uuid.UUID{}, err
	}
	var id uuid.UUID
	copy(id[:], b)
	return id, nil
}

// ReadEnum читает VarInt-дискриминант и проверяет попадание в [0, count).
// Дискриминант вне диапазона — ErrInvalidEncoding.
func (r *Reader) ReadEnum(name string, count int32) (int32, error) {
	v, err := r.ReadVarInt()
	if err != nil {
		return 0, err
	}
	if v < 0 || v >= count {
		return 0, fmt.Errorf("%w: %s discriminant %d out of range [0,%d)", ErrInvalidEncoding, name, v, count)
	}
	return v, nil
}

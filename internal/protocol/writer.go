package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Writer последовательно записывает типизированные значения в тело пакета.
type Writer struct {
	buf []byte
}

// NewWriter создаёт пустой Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes возвращает накопленное тело пакета.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len возвращает текущую длину тела.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteByte записывает один байт.
func (w *Writer) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

// WriteBool записывает байт 0/1.
func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteByte(1)
	}
	return w.WriteByte(0)
}

// WriteUint16 записывает big-endian uint16.
func (w *Writer) WriteUint16(v uint16) error {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
	return nil
}

// WriteInt32 записывает int32 с учётом opts.VarInt.
func (w *Writer) WriteInt32(v int32, opts IntOptions) error {
	if opts.VarInt {
		w.buf = AppendVarInt(w.buf, v)
		return nil
	}
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
	return nil
}

// WriteInt64 записывает int64 с учётом opts.VarInt.
func (w *Writer) WriteInt64(v int64, opts IntOptions) error {
	if opts.VarInt {
		w.buf = AppendVarLong(w.buf, v)
		return nil
	}
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
	return nil
}

// WriteFloat64 записывает big-endian float64.
func (w *Writer) WriteFloat64(v float64) error {
	w.buf = binary.BigEndian.AppendUint64(w.buf, math.Float64bits(v))
	return nil
}

// WriteVarInt — сокращение для WriteInt32 с VarInt-опцией.
func (w *Writer) WriteVarInt(v int32) error {
	return w.WriteInt32(v, IntOptions{VarInt: true})
}

// WriteString записывает строку с VarInt-префиксом байтовой длины.
// Превышение opts.MaxLen — ErrExceededBound.
func (w *Writer) WriteString(s string, opts StringOptions) error {
	if opts.MaxLen > 0 && len(s) > opts.MaxLen {
		return fmt.Errorf("%w: string length %d, max %d", ErrExceededBound, len(s), opts.MaxLen)
	}
	w.buf = AppendVarInt(w.buf, int32(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}

// WriteByteArray записывает срез байт согласно стратегии длины.
func (w *Writer) WriteByteArray(b []byte, opts ListOptions) error {
	if opts.MaxLen > 0 && len(b) > opts.MaxLen {
		return fmt.Errorf("%w: byte array length %d, max %d", ErrExceededBound, len(b), opts.MaxLen)
	}
	switch opts.Length {
	case LengthVarInt:
		w.buf = AppendVarInt(w.buf, int32(len(b)))
	case LengthFixed:
		if len(b) != opts.Count {
			return fmt.Errorf("%w: fixed array expects %d bytes, got %d", ErrInvalidEncoding, opts.Count, len(b))
		}
	case LengthRemaining:
		// Длина не кодируется: массив занимает остаток тела.
	}
	w.buf = append(w.buf, b...)
	return nil
}

// WriteUUID записывает UUID как 16 байт big-endian.
func (w *Writer) WriteUUID(id uuid.UUID) error {
	w.buf = append(w.buf, id[:]...)
	return nil
}

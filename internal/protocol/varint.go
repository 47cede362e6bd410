package protocol

import "fmt"

// VarInt/VarLong: кодирование битового представления целого в дополнительном
// коде, по 7 бит на байт от младших к старшим, бит 0x80 — признак продолжения.
// Отрицательный int32 всегда занимает 5 байт (zig-zag не используется).

const (
	// MaxVarIntLen — максимальная длина VarInt (int32).
	MaxVarIntLen = 5
	// MaxVarLongLen — максимальная длина VarLong (int64).
	MaxVarLongLen = 10
)

// AppendVarInt дописывает VarInt-представление v к dst.
func AppendVarInt(dst []byte, v int32) []byte {
	u := uint32(v)
	for {
		b := byte(u & 0x7F)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if u == 0 {
			return dst
		}
	}
}

// AppendVarLong дописывает VarLong-представление v к dst.
func AppendVarLong(dst []byte, v int64) []byte {
	u := uint64(v)
	for {
		b := byte(u & 0x7F)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if u == 0 {
			return dst
		}
	}
}

// VarIntLen возвращает длину VarInt-представления v в байтах.
func VarIntLen(v int32) int {
	u := uint32(v)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}
	return n
}

// DecodeVarInt читает VarInt из начала b.
// Возвращает значение и количество потреблённых байт.
// Если байт недостаточно — ErrTruncated; если продолжение длиннее
// 5 байт — ErrInvalidEncoding.
func DecodeVarInt(b []byte) (int32, int, error) {
	var u uint32
	for i := 0; i < MaxVarIntLen; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[i]
		u |= uint32(c&0x7F) << (7 * i)
		if c&0x80 == 0 {
			return int32(u), i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: VarInt longer than %d bytes", ErrInvalidEncoding, MaxVarIntLen)
}

// DecodeVarLong читает VarLong из начала b.
func DecodeVarLong(b []byte) (int64, int, error) {
	var u uint64
	for i := 0; i < MaxVarLongLen; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[i]
		u |= uint64(c&0x7F) << (7 * i)
		if c&0x80 == 0 {
			return int64(u), i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: VarLong longer than %d bytes", ErrInvalidEncoding, MaxVarLongLen)
}

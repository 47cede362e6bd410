package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringRoundTrip(t *testing.T) {
	opts := StringOptions{MaxLen: 64}
	for _, s := range []string{"", "a", "привет мир", strings.Repeat("x", 64)} {
		w := NewWriter()
		require.NoError(t, w.WriteString(s, opts))

		r := NewReader(w.Bytes())
		got, err := r.ReadString(opts)
		require.NoError(t, err)
		require.Equal(t, s, got)
		require.Zero(t, r.Remaining())
	}
}

func TestStringExceedsBoundOnWrite(t *testing.T) {
	w := NewWriter()
	err := w.WriteString(strings.Repeat("x", 65), StringOptions{MaxLen: 64})
	require.ErrorIs(t, err, ErrExceededBound)
}

func TestStringExceedsBoundOnRead(t *testing.T) {
	// Заявленная длина проверяется до чтения байт: тело может быть короче.
	body := AppendVarInt(nil, 1000)
	r := NewReader(body)
	_, err := r.ReadString(StringOptions{MaxLen: 64})
	require.ErrorIs(t, err, ErrExceededBound)
}

func TestStringInvalidUTF8(t *testing.T) {
	body := AppendVarInt(nil, 2)
	body = append(body, 0xFF, 0xFE)
	r := NewReader(body)
	_, err := r.ReadString(StringOptions{MaxLen: 64})
	require.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestStringNegativeLength(t *testing.T) {
	body := AppendVarInt(nil, -5)
	r := NewReader(body)
	_, err := r.ReadString(StringOptions{})
	require.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestBoolRejectsGarbage(t *testing.T) {
	r := NewReader([]byte{7})
	_, err := r.ReadBool()
	require.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestListVarIntPrefixed(t *testing.T) {
	opts := ListOptions{Length: LengthVarInt, MaxLen: 16}
	in := []int32{1, -1, 300, 0}

	w := NewWriter()
	err := WriteList(w, opts, in, func(w *Writer, v int32) error {
		return w.WriteVarInt(v)
	})
	require.NoError(t, err)

	r := NewReader(w.Bytes())
	out, err := ReadList(r, opts, (*Reader).ReadVarInt)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestListFixed(t *testing.T) {
	opts := ListOptions{Length: LengthFixed, Count: 3}
	in := []int64{5, 6, 7}

	w := NewWriter()
	err := WriteList(w, opts, in, func(w *Writer, v int64) error {
		return w.WriteInt64(v, IntOptions{})
	})
	require.NoError(t, err)
	require.Equal(t, 24, w.Len(), "фиксированный список не должен кодировать длину")

	r := NewReader(w.Bytes())
	out, err := ReadList(r, opts, func(r *Reader) (int64, error) {
		return r.ReadInt64(IntOptions{})
	})
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestListRemaining(t *testing.T) {
	opts := ListOptions{Length: LengthRemaining}
	in := []int32{10, 20, 30}

	w := NewWriter()
	err := WriteList(w, opts, in, func(w *Writer, v int32) error {
		return w.WriteInt32(v, IntOptions{})
	})
	require.NoError(t, err)

	r := NewReader(w.Bytes())
	out, err := ReadList(r, opts, func(r *Reader) (int32, error) {
		return r.ReadInt32(IntOptions{})
	})
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestListDeclaredLengthOverBound(t *testing.T) {
	// Заявлено 1000 элементов при лимите 16 — отказ до выделения буфера.
	body := AppendVarInt(nil, 1000)
	r := NewReader(body)
	_, err := ReadList(r, ListOptions{Length: LengthVarInt, MaxLen: 16}, (*Reader).ReadVarInt)
	require.ErrorIs(t, err, ErrExceededBound)
}

func TestOptionBoolTag(t *testing.T) {
	opts := OptionOptions{Tag: TagBool}
	val := int32(42)

	for _, in := range []*int32{&val, nil} {
		w := NewWriter()
		err := WriteOption(w, opts, in, func(w *Writer, v int32) error {
			return w.WriteVarInt(v)
		})
		require.NoError(t, err)

		r := NewReader(w.Bytes())
		out, err := ReadOption(r, opts, (*Reader).ReadVarInt)
		require.NoError(t, err)
		if in == nil {
			require.Nil(t, out)
		} else {
			require.NotNil(t, out)
			require.Equal(t, *in, *out)
		}
	}
}

func TestOptionRemainingTag(t *testing.T) {
	opts := OptionOptions{Tag: TagRemaining}

	r := NewReader(nil)
	out, err := ReadOption(r, opts, (*Reader).ReadVarInt)
	require.NoError(t, err)
	require.Nil(t, out)

	r = NewReader(AppendVarInt(nil, 99))
	out, err = ReadOption(r, opts, (*Reader).ReadVarInt)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, int32(99), *out)
}

func TestByteArrayStrategies(t *testing.T) {
	in := []byte{1, 2, 3, 4}

	w := NewWriter()
	require.NoError(t, w.WriteByteArray(in, ListOptions{Length: LengthVarInt}))
	r := NewReader(w.Bytes())
	out, err := r.ReadByteArray(ListOptions{Length: LengthVarInt, MaxLen: 8})
	require.NoError(t, err)
	require.Equal(t, in, out)

	w = NewWriter()
	require.NoError(t, w.WriteByteArray(in, ListOptions{Length: LengthRemaining}))
	r = NewReader(w.Bytes())
	out, err = r.ReadByteArray(ListOptions{Length: LengthRemaining})
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestTruncatedPrimitives(t *testing.T) {
	r := NewReader([]byte{0x00, 0x01})
	_, err := r.ReadInt32(IntOptions{})
	require.ErrorIs(t, err, ErrTruncated)

	r = NewReader([]byte{0x03, 'a'})
	_, err = r.ReadString(StringOptions{MaxLen: 16})
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("Ожидался ErrTruncated, получено %v", err)
	}
}

func TestEnumDiscriminant(t *testing.T) {
	r := NewReader(AppendVarInt(nil, 2))
	v, err := r.ReadEnum("test", 3)
	require.NoError(t, err)
	require.Equal(t, int32(2), v)

	r = NewReader(AppendVarInt(nil, 3))
	_, err = r.ReadEnum("test", 3)
	require.ErrorIs(t, err, ErrInvalidEncoding)
}

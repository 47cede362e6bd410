package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// compressZlib сжимает b в формате zlib.
func compressZlib(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return nil, fmt.Errorf("protocol: zlib compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("protocol: zlib compress: %w", err)
	}
	return buf.Bytes(), nil
}

// decompressZlib распаковывает b и сверяет фактический размер с заявленным.
// Чтение ограничено declared+1 байтами, чтобы переполнение обнаруживалось
// без неограниченного выделения памяти.
func decompressZlib(b []byte, declared int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib header: %v", ErrInvalidEncoding, err)
	}
	defer zr.Close()

	out := make([]byte, 0, declared)
	buf := bytes.NewBuffer(out)
	n, err := io.Copy(buf, io.LimitReader(zr, int64(declared)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib stream: %v", ErrInvalidEncoding, err)
	}
	if n != int64(declared) {
		return nil, fmt.Errorf("%w: declared %d bytes, inflated %d", ErrCompressionMismatch, declared, n)
	}
	return buf.Bytes(), nil
}

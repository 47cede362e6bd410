package protocol

import (
	"errors"
	"fmt"
)

const (
	// MaxFrameLen — максимальная заявленная длина кадра (3-байтовый VarInt).
	MaxFrameLen = 1<<21 - 1
	// MaxUncompressedLen — максимальный заявленный размер распакованных данных.
	MaxUncompressedLen = 8 << 20
)

// CodecSettings — параметры кодека кадров, согласуемые при логине.
// Каждое поле меняется не более одного раза за жизнь соединения
// (SetCompression и включение шифрования), после чего заморожено.
type CodecSettings struct {
	// CompressionThreshold — минимальный размер id+тела для сжатия.
	// Отрицательное значение — сжатие выключено.
	CompressionThreshold int
	// EncryptionKey — 16-байтовый общий секрет либо nil.
	EncryptionKey []byte
}

// FrameCodec кадрирует пакеты: [VarInt длина][VarInt id][тело] без сжатия,
// [VarInt длина][VarInt dataLen][payload] после согласования сжатия.
// Шифрование — внешняя трансформация всех байт на проводе в обе стороны.
//
// Кодек не потокобезопасен: одним кодеком владеет одно соединение.
type FrameCodec struct {
	threshold int
	enc       *cfb8
	dec       *cfb8
}

// NewFrameCodec создаёт кодек без сжатия и шифрования.
func NewFrameCodec() *FrameCodec {
	return &FrameCodec{threshold: -1}
}

// EnableCompression включает сжатие с указанным порогом.
func (c *FrameCodec) EnableCompression(threshold int) {
	c.threshold = threshold
}

// EnableEncryption включает AES/CFB8 в обе стороны.
func (c *FrameCodec) EnableEncryption(key []byte) error {
	enc, err := newCFB8(key, false)
	if err != nil {
		return err
	}
	dec, err := newCFB8(key, true)
	if err != nil {
		return err
	}
	c.enc = enc
	c.dec = dec
	return nil
}

// CompressionEnabled сообщает, согласовано ли сжатие.
func (c *FrameCodec) CompressionEnabled() bool {
	return c.threshold >= 0
}

// DecryptInbound расшифровывает входящие байты на месте.
// Вызывается до буферизации и декодирования кадров.
func (c *FrameCodec) DecryptInbound(b []byte) {
	if c.dec != nil {
		c.dec.XORKeyStream(b, b)
	}
}

// Encode кадрирует пакет и, если включено, шифрует результат.
// Возвращает байты, готовые к записи в сокет.
func (c *FrameCodec) Encode(pkt *RawPacket) ([]byte, error) {
	idBody := AppendVarInt(nil, pkt.ID)
	idBody = append(idBody, pkt.Body...)

	var frame []byte
	if c.threshold >= 0 {
		data, err := c.encodeCompressed(idBody)
		if err != nil {
			return nil, err
		}
		frame = AppendVarInt(nil, int32(len(data)))
		frame = append(frame, data...)
	} else {
		if len(idBody) > MaxFrameLen {
			return nil, fmt.Errorf("%w: frame of %d bytes", ErrExceededBound, len(idBody))
		}
		frame = AppendVarInt(nil, int32(len(idBody)))
		frame = append(frame, idBody...)
	}

	if c.enc != nil {
		c.enc.XORKeyStream(frame, frame)
	}
	return frame, nil
}

// encodeCompressed формирует [VarInt dataLen][payload]: при достижении
// порога payload — zlib(id+тело) и dataLen — размер до сжатия, иначе
// dataLen=0 и payload без изменений. Порог сравнивается с размером до сжатия.
func (c *FrameCodec) encodeCompressed(idBody []byte) ([]byte, error) {
	if len(idBody) >= c.threshold {
		payload, err := compressZlib(idBody)
		if err != nil {
			return nil, err
		}
		data := AppendVarInt(nil, int32(len(idBody)))
		return append(data, payload...), nil
	}
	data := AppendVarInt(nil, 0)
	return append(data, idBody...), nil
}

// Decode пытается выделить один кадр из начала buf (уже расшифрованного).
// Пока кадр не накоплен целиком, возвращает (nil, 0, nil) — вызывающий код
// добирает байты и повторяет. Байты не потребляются, пока кадр не
// интерпретирован полностью. consumed — сколько байт buf занял кадр.
func (c *FrameCodec) Decode(buf []byte) (*RawPacket, int, error) {
	frameLen, n, err := DecodeVarInt(buf)
	if err != nil {
		if errors.Is(err, ErrTruncated) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	if frameLen <= 0 {
		return nil, 0, fmt.Errorf("%w: frame length %d", ErrInvalidEncoding, frameLen)
	}
	if frameLen > MaxFrameLen {
		return nil, 0, fmt.Errorf("%w: frame length %d, max %d", ErrExceededBound, frameLen, MaxFrameLen)
	}
	if len(buf)-n < int(frameLen) {
		return nil, 0, nil
	}
	frame := buf[n : n+int(frameLen)]
	consumed := n + int(frameLen)

	if c.threshold >= 0 {
		pkt, err := decodeCompressedFrame(frame)
		if err != nil {
			return nil, 0, err
		}
		return pkt, consumed, nil
	}
	pkt, err := splitIDBody(frame)
	if err != nil {
		return nil, 0, err
	}
	return pkt, consumed, nil
}

func decodeCompressedFrame(frame []byte) (*RawPacket, error) {
	dataLen, n, err := DecodeVarInt(frame)
	if err != nil {
		// Кадр получен целиком: обрыв внутри него — порча, а не нехватка байт.
		return nil, fmt.Errorf("%w: truncated dataLen inside frame", ErrInvalidEncoding)
	}
	payload := frame[n:]
	if dataLen == 0 {
		return splitIDBody(payload)
	}
	if dataLen < 0 {
		return nil, fmt.Errorf("%w: dataLen %d", ErrInvalidEncoding, dataLen)
	}
	if dataLen > MaxUncompressedLen {
		return nil, fmt.Errorf("%w: dataLen %d, max %d", ErrExceededBound, dataLen, MaxUncompressedLen)
	}
	idBody, err := decompressZlib(payload, int(dataLen))
	if err != nil {
		return nil, err
	}
	return splitIDBody(idBody)
}

// splitIDBody разбирает [VarInt id][тело].
func splitIDBody(idBody []byte) (*RawPacket, error) {
	id, n, err := DecodeVarInt(idBody)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated packet id", ErrInvalidEncoding)
	}
	body := make([]byte, len(idBody)-n)
	copy(body, idBody[n:])
	return &RawPacket{ID: id, Body: body}, nil
}

package protocol

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// cfb8 реализует потоковый шифр AES/CFB8, используемый протоколом после
// обмена ключами при логине. Ключ (16 байт) служит и вектором инициализации.
// Стандартный crypto/cipher предоставляет CFB только с полноблочным сдвигом,
// поэтому однобайтовый вариант реализован здесь.
type cfb8 struct {
	block   cipher.Block
	reg     []byte // сдвиговый регистр размером в блок
	decrypt bool
}

func newCFB8(key []byte, decrypt bool) (*cfb8, error) {
	if len(key) != 16 {
		return nil, fmt.Errorf("protocol: encryption key must be 16 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("protocol: aes init: %w", err)
	}
	reg := make([]byte, block.BlockSize())
	copy(reg, key) // IV = ключ
	return &cfb8{block: block, reg: reg, decrypt: decrypt}, nil
}

// XORKeyStream преобразует src в dst (допустимо dst == src).
// Шифр сохраняет состояние между вызовами: поток байт непрерывен.
func (c *cfb8) XORKeyStream(dst, src []byte) {
	ks := make([]byte, c.block.BlockSize())
	for i, in := range src {
		c.block.Encrypt(ks, c.reg)
		out := in ^ ks[0]
		feedback := out
		if c.decrypt {
			feedback = in
		}
		copy(c.reg, c.reg[1:])
		c.reg[len(c.reg)-1] = feedback
		dst[i] = out
	}
}

package protocol

import "errors"

// Ошибки кодека. Все, кроме ErrTruncated, фатальны для соединения:
// соединение разрывается, ошибка передаётся сессии.
var (
	// ErrTruncated означает, что в буфере недостаточно байт.
	// Это не ошибка протокола: вызывающий код добирает данные и повторяет вызов.
	ErrTruncated = errors.New("protocol: truncated input")

	// ErrInvalidEncoding означает структурно некорректные байты:
	// слишком длинный VarInt, невалидный UTF-8, неизвестный дискриминант enum.
	ErrInvalidEncoding = errors.New("protocol: invalid encoding")

	// ErrExceededBound означает, что заявленная или фактическая длина
	// превышает настроенный максимум. Проверяется до выделения буфера.
	ErrExceededBound = errors.New("protocol: length exceeds bound")

	// ErrCompressionMismatch означает расхождение заявленного и фактического
	// размера распакованных данных в сжатом кадре.
	ErrCompressionMismatch = errors.New("protocol: decompressed size mismatch")
)

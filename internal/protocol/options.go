package protocol

// Опции кодека. Каждый вызов чтения/записи получает явную конфигурацию:
// формат целого, лимит строки, стратегия длины списка, способ тега Option.
// Опции задаются вызывающим кодом, а не выводятся из типа.

// IntOptions настраивает кодирование int32/int64.
type IntOptions struct {
	// VarInt включает кодирование переменной длины (7 бит на байт).
	VarInt bool
}

// StringOptions настраивает кодирование строк.
type StringOptions struct {
	// MaxLen ограничивает длину строки в байтах. 0 — без ограничения.
	MaxLen int
}

// DefaultStringOptions — лимит ванильного протокола (32767 байт).
func DefaultStringOptions() StringOptions {
	return StringOptions{MaxLen: 32767}
}

// ListLength задаёт стратегию вычисления длины коллекции.
type ListLength int

const (
	// LengthVarInt — коллекция предваряется количеством элементов (VarInt).
	LengthVarInt ListLength = iota
	// LengthFixed — количество элементов известно из схемы (ListOptions.Count).
	LengthFixed
	// LengthRemaining — коллекция занимает все оставшиеся байты тела пакета.
	LengthRemaining
)

// ListOptions настраивает кодирование коллекций.
type ListOptions struct {
	Length ListLength
	// Count — количество элементов при LengthFixed.
	Count int
	// MaxLen ограничивает количество элементов. 0 — без ограничения.
	// Проверяется до выделения буфера под заявленную длину.
	MaxLen int
}

// OptionTag задаёт способ определения наличия опционального значения.
type OptionTag int

const (
	// TagBool — наличие кодируется префиксным байтом 0/1.
	TagBool OptionTag = iota
	// TagRemaining — значение присутствует, если в теле пакета остались байты.
	// Вариант "внешнего" тега (наличие следует из соседнего поля) реализуется
	// тем, что вызывающий код сам решает, читать ли поле.
	TagRemaining
)

// OptionOptions настраивает кодирование опциональных значений.
type OptionOptions struct {
	Tag OptionTag
}

package protocol

import "fmt"

// Композиция кодеков: список и Option собираются из кодека элемента,
// который передаётся замыканием. Составные типы (структуры пакетов)
// читают свои поля последовательно, в порядке объявления, каждое —
// со своими опциями.

// ReadList читает коллекцию элементов согласно стратегии длины.
// Кодек элемента задаётся замыканием elem.
func ReadList[T any](r *Reader, opts ListOptions, elem func(*Reader) (T, error)) ([]T, error) {
	switch opts.Length {
	case LengthVarInt:
		n, err := r.readLen(opts.MaxLen)
		if err != nil {
			return nil, err
		}
		return readN(r, n, elem)
	case LengthFixed:
		return readN(r, opts.Count, elem)
	case LengthRemaining:
		var out []T
		for r.Remaining() > 0 {
			if opts.MaxLen > 0 && len(out) >= opts.MaxLen {
				return nil, fmt.Errorf("%w: list exceeds %d elements", ErrExceededBound, opts.MaxLen)
			}
			v, err := elem(r)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown list length strategy %d", ErrInvalidEncoding, opts.Length)
	}
}

func readN[T any](r *Reader, n int, elem func(*Reader) (T, error)) ([]T, error) {
	// Ёмкость ограничена остатком буфера: заявленная длина
	// не должна приводить к неограниченному выделению.
	capHint := n
	if capHint > r.Remaining() {
		capHint = r.Remaining()
	}
	out := make([]T, 0, capHint)
	for i := 0; i < n; i++ {
		v, err := elem(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteList записывает коллекцию элементов согласно стратегии длины.
func WriteList[T any](w *Writer, opts ListOptions, list []T, elem func(*Writer, T) error) error {
	if opts.MaxLen > 0 && len(list) > opts.MaxLen {
		return fmt.Errorf("%w: list length %d, max %d", ErrExceededBound, len(list), opts.MaxLen)
	}
	switch opts.Length {
	case LengthVarInt:
		if err := w.WriteVarInt(int32(len(list))); err != nil {
			return err
		}
	case LengthFixed:
		if len(list) != opts.Count {
			return fmt.Errorf("%w: fixed list expects %d elements, got %d", ErrInvalidEncoding, opts.Count, len(list))
		}
	case LengthRemaining:
		// Длина не кодируется.
	}
	for _, v := range list {
		if err := elem(w, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadOption читает опциональное значение. При TagBool наличие определяется
// префиксным байтом, при TagRemaining — наличием непрочитанных байт.
func ReadOption[T any](r *Reader, opts OptionOptions, elem func(*Reader) (T, error)) (*T, error) {
	switch opts.Tag {
	case TagBool:
		present, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, nil
		}
	case TagRemaining:
		if r.Remaining() == 0 {
			return nil, nil
		}
	}
	v, err := elem(r)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// WriteOption записывает опциональное значение.
func WriteOption[T any](w *Writer, opts OptionOptions, v *T, elem func(*Writer, T) error) error {
	if opts.Tag == TagBool {
		if err := w.WriteBool(v != nil); err != nil {
			return err
		}
	}
	if v != nil {
		return elem(w, *v)
	}
	return nil
}

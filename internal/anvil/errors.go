package anvil

import "errors"

var (
	// ErrChunkNotFound — чанк отсутствует в регионе (нулевой указатель
	// сектора). Не признак порчи файла.
	ErrChunkNotFound = errors.New("anvil: chunk not found")

	// ErrCorrupt — файл региона структурно несогласован: указатель или
	// длина записи не соответствуют фактическому размеру файла.
	// Никогда не смешивается с ErrChunkNotFound.
	ErrCorrupt = errors.New("anvil: corrupt region file")

	// ErrChunkTooLarge — сериализованный чанк не помещается в 255 секторов,
	// адресуемых однобайтовым счётчиком указателя.
	ErrChunkTooLarge = errors.New("anvil: chunk exceeds maximum sector count")
)

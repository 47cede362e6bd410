// Package anvil реализует хранилище чанков в файлах регионов:
// два фиксированных заголовочных сектора (таблица указателей и таблица
// временных меток) и данные в секторах по 4096 байт.
package anvil

import "fmt"

// ChunksPerAxis — количество чанков по каждой оси региона.
const ChunksPerAxis = 32

// ChunkPos — глобальная координата чанка.
type ChunkPos struct {
	X int32
	Z int32
}

func (p ChunkPos) String() string {
	return fmt.Sprintf("chunk(%d, %d)", p.X, p.Z)
}

// RegionPos идентифицирует файл региона 32x32 чанков.
type RegionPos struct {
	X int32
	Z int32
}

// RegionOf возвращает регион, содержащий чанк. Деление с округлением
// к меньшему, чтобы отрицательные координаты попадали в свой регион
// (сдвиг — floor-деление для дополнения до двух).
func RegionOf(c ChunkPos) RegionPos {
	return RegionPos{X: c.X >> 5, Z: c.Z >> 5}
}

// Filename возвращает имя файла региона: r.<x>.<z>.mca.
func (p RegionPos) Filename() string {
	return fmt.Sprintf("r.%d.%d.mca", p.X, p.Z)
}

func (p RegionPos) String() string {
	return fmt.Sprintf("region(%d, %d)", p.X, p.Z)
}

// LocalChunkPos — координата чанка внутри региона, в [0,32) по обеим осям.
type LocalChunkPos struct {
	X uint8
	Z uint8
}

// LocalOf приводит глобальную координату по модулю 32.
// Остаток евклидов: всегда неотрицателен.
func LocalOf(c ChunkPos) LocalChunkPos {
	return LocalChunkPos{
		X: uint8(((c.X % ChunksPerAxis) + ChunksPerAxis) % ChunksPerAxis),
		Z: uint8(((c.Z % ChunksPerAxis) + ChunksPerAxis) % ChunksPerAxis),
	}
}

// TableIndex возвращает индекс чанка в заголовочных таблицах: x + z*32, в [0,1024).
func (p LocalChunkPos) TableIndex() int {
	return int(p.X) + int(p.Z)*ChunksPerAxis
}

// ToWorld возвращает глобальную координату чанка в регионе region.
func (p LocalChunkPos) ToWorld(region RegionPos) ChunkPos {
	return ChunkPos{
		X: region.X*ChunksPerAxis + int32(p.X),
		Z: region.Z*ChunksPerAxis + int32(p.Z),
	}
}

func (p LocalChunkPos) String() string {
	return fmt.Sprintf("local(%d, %d)", p.X, p.Z)
}

package world

import "time"

// Generator создаёт колонку для чанка, которого нет в хранилище.
type Generator interface {
	Generate(x, z int32) *ChunkColumn
}

// Вертикальные границы мира в секциях.
const (
	minSectionY  = -4
	maxSectionY  = 19
	flatSurfaceY = 0 // верхняя граница слоя камня
)

// FlatGenerator создаёт плоские колонки: бедрок, камень до поверхности,
// трава сверху. Используется, когда чанка нет в хранилище.
type FlatGenerator struct{}

// NewFlatGenerator возвращает генератор плоского мира.
func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{}
}

// Generate создаёт колонку для координат (x, z).
func (g *FlatGenerator) Generate(x, z int32) *ChunkColumn {
	col := &ChunkColumn{
		DataVersion: DataVersion,
		X:           x,
		Z:           z,
		YPos:        minSectionY,
		Status:      StatusFull,
		LastUpdate:  time.Now().Unix(),
	}

	for y := int8(minSectionY); y <= maxSectionY; y++ {
		col.Sections = append(col.Sections, g.section(y))
	}

	surface := make([]int64, 256)
	for i := range surface {
		surface[i] = int64(flatSurfaceY - minSectionY*16 + 1)
	}
	col.Heightmaps = Heightmaps{
		MotionBlocking: packHeights(surface),
		WorldSurface:   packHeights(surface),
	}
	return col
}

func (g *FlatGenerator) section(y int8) ChunkSection {
	section := ChunkSection{
		Y:      y,
		Biomes: BiomeContainer{Palette: []string{"minecraft:plains"}},
	}
	switch {
	case y < 0:
		section.BlockStates = PalettedContainer{
			Palette: []BlockState{{Name: "minecraft:stone"}},
		}
	case y == 0:
		// Нижний ряд — бедрок, остальное камень с травой наверху.
		section.BlockStates = mixedSurfaceSection()
	default:
		section.BlockStates = PalettedContainer{
			Palette: []BlockState{{Name: "minecraft:air"}},
		}
	}
	return section
}

// mixedSurfaceSection собирает секцию поверхности: один слой травы над
// камнем. Палитра из двух состояний, по одному биту на блок.
func mixedSurfaceSection() PalettedContainer {
	const (
		blocksPerSection = 16 * 16 * 16
		bitsPerBlock     = 4 // минимальная ширина индекса для блоков
		blocksPerWord    = 64 / bitsPerBlock
	)

	data := make([]int64, (blocksPerSection+blocksPerWord-1)/blocksPerWord)
	for i := 0; i < blocksPerSection; i++ {
		blockY := i / (16 * 16)
		idx := int64(0) // камень
		if blockY == flatSurfaceY {
			idx = 1 // трава
		}
		word := i / blocksPerWord
		shift := uint(i%blocksPerWord) * bitsPerBlock
		data[word] |= idx << shift
	}
	return PalettedContainer{
		Palette: []BlockState{
			{Name: "minecraft:stone"},
			{Name: "minecraft:grass_block", Properties: map[string]string{"snowy": "false"}},
		},
		Data: data,
	}
}

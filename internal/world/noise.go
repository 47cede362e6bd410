package world

import (
	"time"

	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина.
const (
	noiseAlpha   = 2.0  // сглаживание шума
	noiseBeta    = 2.0  // частота шума
	noiseOctaves = 3    // количество октав
	noiseScale   = 0.01 // шаг сетки шума на блок
	noiseHeight  = 24   // амплитуда рельефа в блоках
)

// NoiseGenerator создаёт холмистый рельеф по шуму Перлина.
type NoiseGenerator struct {
	noise *perlin.Perlin
}

// NewNoiseGenerator возвращает генератор рельефа для указанного сида.
func NewNoiseGenerator(seed int64) *NoiseGenerator {
	return &NoiseGenerator{
		noise: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
	}
}

// surfaceAt возвращает высоту поверхности в блоках для мировых координат.
func (g *NoiseGenerator) surfaceAt(blockX, blockZ int32) int32 {
	// Noise2D возвращает значение от -1 до 1.
	n := g.noise.Noise2D(float64(blockX)*noiseScale, float64(blockZ)*noiseScale)
	return flatSurfaceY + int32((n+1.0)/2.0*noiseHeight)
}

// Generate создаёт колонку с рельефом: камень до высоты шума, трава сверху.
func (g *NoiseGenerator) Generate(x, z int32) *ChunkColumn {
	col := &ChunkColumn{
		DataVersion: DataVersion,
		X:           x,
		Z:           z,
		YPos:        minSectionY,
		Status:      StatusFull,
		LastUpdate:  time.Now().Unix(),
	}

	// Высоты всех 256 столбцов колонки.
	var heights [16][16]int32
	maxHeight := int32(flatSurfaceY)
	for bz := int32(0); bz < 16; bz++ {
		for bx := int32(0); bx < 16; bx++ {
			h := g.surfaceAt(x*16+bx, z*16+bz)
			heights[bz][bx] = h
			if h > maxHeight {
				maxHeight = h
			}
		}
	}

	for y := int8(minSectionY); y <= maxSectionY; y++ {
		col.Sections = append(col.Sections, g.section(y, &heights))
	}

	surface := make([]int64, 0, 256)
	for bz := 0; bz < 16; bz++ {
		for bx := 0; bx < 16; bx++ {
			surface = append(surface, int64(heights[bz][bx])-int64(minSectionY)*16+1)
		}
	}
	col.Heightmaps = Heightmaps{
		MotionBlocking: packHeights(surface),
		WorldSurface:   packHeights(surface),
	}
	return col
}

func (g *NoiseGenerator) section(y int8, heights *[16][16]int32) ChunkSection {
	section := ChunkSection{
		Y:      y,
		Biomes: BiomeContainer{Palette: []string{"minecraft:plains"}},
	}
	bottom := int32(y) * 16

	// Секция целиком под рельефом или целиком над ним кодируется
	// одним состоянием палитры.
	allBelow, allAbove := true, true
	for bz := 0; bz < 16; bz++ {
		for bx := 0; bx < 16; bx++ {
			if bottom+15 > heights[bz][bx] {
				allBelow = false
			}
			if bottom <= heights[bz][bx] {
				allAbove = false
			}
		}
	}
	switch {
	case allBelow:
		section.BlockStates = PalettedContainer{
			Palette: []BlockState{{Name: "minecraft:stone"}},
		}
	case allAbove:
		section.BlockStates = PalettedContainer{
			Palette: []BlockState{{Name: "minecraft:air"}},
		}
	default:
		section.BlockStates = g.mixedSection(bottom, heights)
	}
	return section
}

// mixedSection кодирует секцию, через которую проходит поверхность:
// палитра воздух/камень/трава, по 4 бита на блок.
func (g *NoiseGenerator) mixedSection(bottom int32, heights *[16][16]int32) PalettedContainer {
	const (
		blocksPerSection = 16 * 16 * 16
		bitsPerBlock     = 4
		blocksPerWord    = 64 / bitsPerBlock
	)

	data := make([]int64, (blocksPerSection+blocksPerWord-1)/blocksPerWord)
	for i := 0; i < blocksPerSection; i++ {
		bx := i % 16
		bz := (i / 16) % 16
		by := bottom + int32(i/(16*16))

		var idx int64
		switch {
		case by < heights[bz][bx]:
			idx = 1 // камень
		case by == heights[bz][bx]:
			idx = 2 // трава
		default:
			idx = 0 // воздух
		}
		word := i / blocksPerWord
		shift := uint(i%blocksPerWord) * bitsPerBlock
		data[word] |= idx << shift
	}
	return PalettedContainer{
		Palette: []BlockState{
			{Name: "minecraft:air"},
			{Name: "minecraft:stone"},
			{Name: "minecraft:grass_block", Properties: map[string]string{"snowy": "false"}},
		},
		Data: data,
	}
}

// packHeights упаковывает 256 высот по 9 бит на значение.
func packHeights(values []int64) []int64 {
	const (
		bitsPerEntry  = 9
		entriesPerI64 = 64 / bitsPerEntry
	)

	words := make([]int64, (len(values)+entriesPerI64-1)/entriesPerI64)
	for i, v := range values {
		word := i / entriesPerI64
		shift := uint(i%entriesPerI64) * bitsPerEntry
		words[word] |= v << shift
	}
	return words
}

// Package world описывает сохраняемую модель чанка и связывает её
// с хранилищем регионов: колонки сериализуются в NBT и кладутся в
// файлы r.<x>.<z>.mca.
package world

import "github.com/annel0/craft-server/internal/anvil"

// DataVersion — версия формата данных, записываемая в каждый чанк.
const DataVersion = 3337

// Имена статусов генерации, которые встречаются в сохранениях.
const (
	StatusEmpty = "minecraft:empty"
	StatusFull  = "minecraft:full"
)

// ChunkColumn — колонка чанка в том виде, в котором она лежит на диске.
type ChunkColumn struct {
	DataVersion int32  `nbt:"DataVersion"`
	X           int32  `nbt:"xPos"`
	Z           int32  `nbt:"zPos"`
	YPos        int32  `nbt:"yPos"`
	Status      string `nbt:"Status"`

	LastUpdate    int64 `nbt:"LastUpdate"`
	InhabitedTime int64 `nbt:"InhabitedTime"`

	Sections []ChunkSection `nbt:"sections"`

	Heightmaps Heightmaps `nbt:"Heightmaps"`

	BlockEntities []BlockEntity `nbt:"block_entities"`
}

// Pos возвращает глобальную координату колонки.
func (c *ChunkColumn) Pos() anvil.ChunkPos {
	return anvil.ChunkPos{X: c.X, Z: c.Z}
}

// ChunkSection — вертикальная секция 16x16x16 блоков.
type ChunkSection struct {
	Y int8 `nbt:"Y"`

	BlockStates PalettedContainer `nbt:"block_states"`
	Biomes      BiomeContainer    `nbt:"biomes"`

	BlockLight []byte `nbt:"BlockLight"`
	SkyLight   []byte `nbt:"SkyLight"`
}

// PalettedContainer хранит блоки секции: палитра состояний и упакованные
// индексы. Пустое поле Data означает, что вся секция из единственного
// состояния палитры.
type PalettedContainer struct {
	Palette []BlockState `nbt:"palette"`
	Data    []int64      `nbt:"data"`
}

// BlockState — запись палитры: имя блока и его свойства.
type BlockState struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties"`
}

// BiomeContainer — палитра биомов секции.
type BiomeContainer struct {
	Palette []string `nbt:"palette"`
	Data    []int64  `nbt:"data"`
}

// Heightmaps — карты высот колонки, по 9 бит на столбец.
type Heightmaps struct {
	MotionBlocking []int64 `nbt:"MOTION_BLOCKING"`
	WorldSurface   []int64 `nbt:"WORLD_SURFACE"`
}

// BlockEntity — блок с данными (сундук, табличка и т.п.).
type BlockEntity struct {
	ID string `nbt:"id"`
	X  int32  `nbt:"x"`
	Y  int32  `nbt:"y"`
	Z  int32  `nbt:"z"`
}

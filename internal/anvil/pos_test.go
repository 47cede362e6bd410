package anvil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegionOfFloorsNegatives(t *testing.T) {
	cases := []struct {
		chunk  ChunkPos
		region RegionPos
	}{
		{ChunkPos{0, 0}, RegionPos{0, 0}},
		{ChunkPos{31, 31}, RegionPos{0, 0}},
		{ChunkPos{32, 32}, RegionPos{1, 1}},
		{ChunkPos{-1, -1}, RegionPos{-1, -1}},
		{ChunkPos{-32, -32}, RegionPos{-1, -1}},
		{ChunkPos{-33, -33}, RegionPos{-2, -2}},
		{ChunkPos{65, -3}, RegionPos{2, -1}},
	}
	for _, c := range cases {
		require.Equal(t, c.region, RegionOf(c.chunk), "чанк %v", c.chunk)
	}
}

func TestLocalOfAlwaysNonNegative(t *testing.T) {
	require.Equal(t, LocalChunkPos{X: 1, Z: 29}, LocalOf(ChunkPos{65, -3}))
	require.Equal(t, LocalChunkPos{X: 0, Z: 0}, LocalOf(ChunkPos{-32, 32}))
	require.Equal(t, LocalChunkPos{X: 31, Z: 31}, LocalOf(ChunkPos{-1, -1}))
}

func TestLocalRoundTripsThroughWorld(t *testing.T) {
	for _, c := range []ChunkPos{{0, 0}, {31, 31}, {-1, -1}, {-33, 100}, {1000, -1000}} {
		region := RegionOf(c)
		local := LocalOf(c)
		require.Equal(t, c, local.ToWorld(region))
	}
}

func TestTableIndexCoversTable(t *testing.T) {
	seen := make(map[int]bool)
	for z := uint8(0); z < ChunksPerAxis; z++ {
		for x := uint8(0); x < ChunksPerAxis; x++ {
			idx := LocalChunkPos{X: x, Z: z}.TableIndex()
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, TableEntries)
			require.False(t, seen[idx], "индекс %d занят дважды", idx)
			seen[idx] = true
		}
	}
	require.Len(t, seen, TableEntries)
}

func TestRegionFilename(t *testing.T) {
	require.Equal(t, "r.0.0.mca", RegionPos{0, 0}.Filename())
	require.Equal(t, "r.-2.13.mca", RegionPos{-2, 13}.Filename())
}

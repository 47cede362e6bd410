package anvil

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

func openTestRegion(t *testing.T) *Region {
	t.Helper()
	path := filepath.Join(t.TempDir(), RegionPos{0, 0}.Filename())
	reg, err := OpenRegion(path, RegionPos{0, 0})
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestRegionCreatesHeaderForNewFile(t *testing.T) {
	reg := openTestRegion(t)
	require.NoError(t, reg.Close())

	info, err := os.Stat(reg.path)
	require.NoError(t, err)
	require.Equal(t, int64(dataStartSector*SectorSize), info.Size())
}

func TestRegionReadWriteRoundTrip(t *testing.T) {
	reg := openTestRegion(t)

	payload := []byte(`{"Level":{"xPos":0,"zPos":0}}`)
	require.NoError(t, reg.Write(LocalChunkPos{0, 0}, payload))

	got, err := reg.Read(LocalChunkPos{0, 0})
	require.NoError(t, err)
	require.Equal(t, payload, got)

	// Крайний чанк таблицы.
	corner := bytes.Repeat([]byte{0xAB}, 100)
	require.NoError(t, reg.Write(LocalChunkPos{31, 31}, corner))
	got, err = reg.Read(LocalChunkPos{31, 31})
	require.NoError(t, err)
	require.Equal(t, corner, got)
}

func TestRegionMissingChunk(t *testing.T) {
	reg := openTestRegion(t)

	_, err := reg.Read(LocalChunkPos{5, 5})
	require.ErrorIs(t, err, ErrChunkNotFound)
	require.False(t, reg.Has(LocalChunkPos{5, 5}))
	require.True(t, reg.LastWritten(LocalChunkPos{5, 5}).IsZero())
}

func TestRegionOverwriteInPlace(t *testing.T) {
	reg := openTestRegion(t)
	pos := LocalChunkPos{3, 7}

	require.NoError(t, reg.Write(pos, bytes.Repeat([]byte{1}, 500)))
	ptrBefore := reg.ptrs[pos.TableIndex()]

	// Новая запись меньше прежней: диапазон переиспользуется на месте.
	require.NoError(t, reg.Write(pos, []byte("small")))
	require.Equal(t, ptrBefore, reg.ptrs[pos.TableIndex()])

	got, err := reg.Read(pos)
	require.NoError(t, err)
	require.Equal(t, []byte("small"), got)
}

func TestRegionRelocatesGrownChunk(t *testing.T) {
	reg := openTestRegion(t)
	a := LocalChunkPos{0, 0}
	b := LocalChunkPos{1, 0}

	// Несжимаемые данные, чтобы контролировать число секторов.
	rng := rand.New(rand.NewSource(7))
	small := make([]byte, 2000)
	rng.Read(small)
	require.NoError(t, reg.Write(a, small))
	require.NoError(t, reg.Write(b, small)) // не даёт a расти на месте

	grown := make([]byte, 3*SectorSize)
	rng.Read(grown)
	require.NoError(t, reg.Write(a, grown))

	got, err := reg.Read(a)
	require.NoError(t, err)
	require.Equal(t, grown, got)

	// Сосед не пострадал от переезда.
	got, err = reg.Read(b)
	require.NoError(t, err)
	require.Equal(t, small, got)
}

func TestRegionFullTableSurvivesRewrites(t *testing.T) {
	reg := openTestRegion(t)
	rng := rand.New(rand.NewSource(42))

	expect := make(map[LocalChunkPos][]byte)
	for z := uint8(0); z < ChunksPerAxis; z++ {
		for x := uint8(0); x < ChunksPerAxis; x++ {
			pos := LocalChunkPos{X: x, Z: z}
			payload := make([]byte, 100+rng.Intn(4000))
			rng.Read(payload)
			require.NoError(t, reg.Write(pos, payload))
			expect[pos] = payload
		}
	}
	require.Equal(t, TableEntries, reg.Count())

	// Перезапись части чанков данными другого размера вызывает переезды.
	for i := 0; i < 200; i++ {
		pos := LocalChunkPos{X: uint8(rng.Intn(32)), Z: uint8(rng.Intn(32))}
		payload := make([]byte, 100+rng.Intn(8000))
		rng.Read(payload)
		require.NoError(t, reg.Write(pos, payload))
		expect[pos] = payload
	}

	for pos, payload := range expect {
		got, err := reg.Read(pos)
		require.NoError(t, err, "чанк %s", pos)
		require.Equal(t, payload, got, "чанк %s", pos)
	}
}

func TestRegionPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, RegionPos{-1, 3}.Filename())

	reg, err := OpenRegion(path, RegionPos{-1, 3})
	require.NoError(t, err)
	payload := []byte("persistent chunk data")
	require.NoError(t, reg.Write(LocalChunkPos{10, 20}, payload))
	require.NoError(t, reg.Close())

	reg, err = OpenRegion(path, RegionPos{-1, 3})
	require.NoError(t, err)
	defer reg.Close()

	got, err := reg.Read(LocalChunkPos{10, 20})
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.False(t, reg.LastWritten(LocalChunkPos{10, 20}).IsZero())
}

func TestRegionRemove(t *testing.T) {
	reg := openTestRegion(t)
	pos := LocalChunkPos{4, 4}

	require.NoError(t, reg.Write(pos, []byte("doomed")))
	require.NoError(t, reg.Remove(pos))

	_, err := reg.Read(pos)
	require.ErrorIs(t, err, ErrChunkNotFound)
	// Повторное удаление — не ошибка.
	require.NoError(t, reg.Remove(pos))

	// Освобождённый диапазон переиспользуется следующей записью.
	require.NoError(t, reg.Write(LocalChunkPos{5, 5}, []byte("replacement")))
	require.Equal(t, uint32(dataStartSector), reg.ptrs[LocalChunkPos{5, 5}.TableIndex()].Start())
}

func TestRegionLastWritten(t *testing.T) {
	reg := openTestRegion(t)
	pos := LocalChunkPos{9, 9}

	before := time.Now().Add(-time.Second)
	require.NoError(t, reg.Write(pos, []byte("stamped")))
	stamp := reg.LastWritten(pos)
	require.True(t, stamp.After(before))
	require.True(t, stamp.Before(time.Now().Add(time.Second)))
}

func TestRegionRejectsOversizedChunk(t *testing.T) {
	reg := openTestRegion(t)

	// Несжимаемые данные за пределами 255 секторов.
	rng := rand.New(rand.NewSource(1))
	huge := make([]byte, (maxRunSectors+1)*SectorSize)
	rng.Read(huge)
	err := reg.Write(LocalChunkPos{0, 0}, huge)
	require.ErrorIs(t, err, ErrChunkTooLarge)

	// Таблица не тронута.
	require.False(t, reg.Has(LocalChunkPos{0, 0}))
}

func TestRegionDropsInvalidPointers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, RegionPos{0, 0}.Filename())

	reg, err := OpenRegion(path, RegionPos{0, 0})
	require.NoError(t, err)
	require.NoError(t, reg.Write(LocalChunkPos{0, 0}, []byte("valid")))
	require.NoError(t, reg.Close())

	// Портим таблицу: указатель в заголовок, нулевая длина, выход за файл.
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(NewSectorPtr(0, 1)))
	_, err = f.WriteAt(buf[:], 1*4)
	require.NoError(t, err)
	binary.BigEndian.PutUint32(buf[:], uint32(NewSectorPtr(5, 0)))
	_, err = f.WriteAt(buf[:], 2*4)
	require.NoError(t, err)
	binary.BigEndian.PutUint32(buf[:], uint32(NewSectorPtr(9999, 4)))
	_, err = f.WriteAt(buf[:], 3*4)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reg, err = OpenRegion(path, RegionPos{0, 0})
	require.NoError(t, err)
	defer reg.Close()

	// Корректный чанк жив, битые указатели отброшены как отсутствующие.
	got, err := reg.Read(LocalChunkPos{0, 0})
	require.NoError(t, err)
	require.Equal(t, []byte("valid"), got)
	for x := uint8(1); x <= 3; x++ {
		_, err = reg.Read(LocalChunkPos{X: x, Z: 0})
		require.ErrorIs(t, err, ErrChunkNotFound, "указатель %d", x)
	}
}

func TestRegionCorruptRecordLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, RegionPos{0, 0}.Filename())

	reg, err := OpenRegion(path, RegionPos{0, 0})
	require.NoError(t, err)
	require.NoError(t, reg.Write(LocalChunkPos{0, 0}, []byte("short")))
	require.NoError(t, reg.Close())

	// Длина записи больше выделенного диапазона.
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(10*SectorSize))
	_, err = f.WriteAt(buf[:], dataStartSector*SectorSize)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reg, err = OpenRegion(path, RegionPos{0, 0})
	require.NoError(t, err)
	defer reg.Close()

	_, err = reg.Read(LocalChunkPos{0, 0})
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestRegionReadsForeignCompressionTags(t *testing.T) {
	reg := openTestRegion(t)
	payload := []byte("written by another implementation")

	// Запись в формате gzip, как делали старые сохранения.
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	writeRawRecord(t, reg, LocalChunkPos{0, 0}, CompressionGzip, gz.Bytes())

	got, err := reg.Read(LocalChunkPos{0, 0})
	require.NoError(t, err)
	require.Equal(t, payload, got)

	// Тег "без сжатия".
	writeRawRecord(t, reg, LocalChunkPos{1, 0}, CompressionNone, payload)
	got, err = reg.Read(LocalChunkPos{1, 0})
	require.NoError(t, err)
	require.Equal(t, payload, got)

	// Неизвестный тег — порча.
	writeRawRecord(t, reg, LocalChunkPos{2, 0}, CompressionTag(9), payload)
	_, err = reg.Read(LocalChunkPos{2, 0})
	require.ErrorIs(t, err, ErrCorrupt)
}

// writeRawRecord кладёт запись с произвольным тегом сжатия напрямую,
// минуя Write, который всегда пишет zlib.
func writeRawRecord(t *testing.T, reg *Region, pos LocalChunkPos, tag CompressionTag, payload []byte) {
	t.Helper()
	record := make([]byte, chunkHeaderSize+len(payload))
	binary.BigEndian.PutUint32(record, uint32(len(payload)+1))
	record[4] = byte(tag)
	copy(record[chunkHeaderSize:], payload)

	needed := uint32((len(record) + SectorSize - 1) / SectorSize)
	run := reg.alloc.allocate(needed)
	require.NoError(t, reg.writeRun(run.start, record, run.count))
	require.NoError(t, reg.writePtr(pos.TableIndex(), NewSectorPtr(run.start, uint8(needed))))
	require.NoError(t, reg.writeStamp(pos.TableIndex()))
}

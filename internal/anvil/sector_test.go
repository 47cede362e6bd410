package anvil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSectorPtrPacking(t *testing.T) {
	ptr := NewSectorPtr(2, 1)
	require.Equal(t, uint32(2), ptr.Start())
	require.Equal(t, uint32(1), ptr.Count())
	require.False(t, ptr.IsZero())

	ptr = NewSectorPtr(0xFFFFFF, 0xFF)
	require.Equal(t, uint32(0xFFFFFF), ptr.Start())
	require.Equal(t, uint32(0xFF), ptr.Count())

	require.True(t, SectorPtr(0).IsZero())
}

func TestAllocatorStartsAfterHeader(t *testing.T) {
	a := newAllocator(nil)
	run := a.allocate(1)
	require.Equal(t, uint32(dataStartSector), run.start)

	next := a.allocate(3)
	require.Equal(t, uint32(3), next.start)
	require.Equal(t, uint32(3), next.count)
}

func TestAllocatorReusesHoles(t *testing.T) {
	a := newAllocator(nil)
	first := a.allocate(2)  // секторы 2-3
	second := a.allocate(1) // сектор 4
	a.allocate(1)           // сектор 5, держит конец файла

	a.release(first)
	// Дыра на 2 сектора: запись на 1 сектор должна попасть в её начало.
	got := a.allocate(1)
	require.Equal(t, first.start, got.start)
	// Остаток дыры используется следующим.
	got = a.allocate(1)
	require.Equal(t, first.start+1, got.start)

	// Дыра точно под размер тоже переиспользуется.
	a.release(second)
	got = a.allocate(1)
	require.Equal(t, second.start, got.start)
}

func TestAllocatorCoalescesNeighbours(t *testing.T) {
	a := newAllocator(nil)
	r1 := a.allocate(1) // 2
	r2 := a.allocate(1) // 3
	r3 := a.allocate(1) // 4
	a.allocate(1)       // 5, якорь конца

	a.release(r1)
	a.release(r3)
	a.release(r2)

	// Три смежные дыры слились: диапазон на 3 сектора помещается.
	got := a.allocate(3)
	require.Equal(t, r1.start, got.start)
}

func TestAllocatorShrinksTail(t *testing.T) {
	a := newAllocator(nil)
	r1 := a.allocate(1) // 2
	r2 := a.allocate(2) // 3-4

	// Освобождение хвоста двигает границу файла назад.
	a.release(r2)
	a.release(r1)
	got := a.allocate(1)
	require.Equal(t, uint32(dataStartSector), got.start)
	require.Empty(t, a.free)
}

func TestAllocatorFromLivePointers(t *testing.T) {
	live := []SectorPtr{
		NewSectorPtr(2, 1), // сектор 2
		NewSectorPtr(5, 2), // секторы 5-6, дыра 3-4
	}
	a := newAllocator(live)

	got := a.allocate(2)
	require.Equal(t, uint32(3), got.start)

	// Дыры больше нет: следующее выделение расширяет файл.
	got = a.allocate(1)
	require.Equal(t, uint32(7), got.start)
}

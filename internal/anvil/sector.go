package anvil

import "sort"

// SectorPtr упаковывает 24-битный индекс первого сектора и 8-битное
// количество секторов в одно 32-битное слово. Нулевое значение означает
// "чанк отсутствует": легальный индекс данных никогда не меньше 2,
// потому что первые два сектора заняты заголовочными таблицами.
type SectorPtr uint32

// NewSectorPtr собирает указатель из индекса и количества секторов.
func NewSectorPtr(start uint32, count uint8) SectorPtr {
	return SectorPtr(start<<8 | uint32(count))
}

// Start возвращает индекс первого сектора.
func (p SectorPtr) Start() uint32 {
	return uint32(p) >> 8
}

// Count возвращает количество секторов.
func (p SectorPtr) Count() uint32 {
	return uint32(p) & 0xFF
}

// IsZero сообщает, что указатель пуст (чанк отсутствует).
func (p SectorPtr) IsZero() bool {
	return p == 0
}

// sectorRun — непрерывный диапазон секторов [start, start+count).
type sectorRun struct {
	start uint32
	count uint32
}

func (r sectorRun) end() uint32 {
	return r.start + r.count
}

// allocator отслеживает свободные диапазоны секторов: отсортированный
// список дыр плюс граница конца файла. Живые диапазоны никогда не
// пересекаются; скан всей таблицы указателей на каждую запись не нужен.
type allocator struct {
	free []sectorRun // отсортированы по start, не смежны
	end  uint32      // первый сектор за концом файла
}

// newAllocator строит список свободных диапазонов по живым указателям.
// Данные начинаются с сектора 2.
func newAllocator(live []SectorPtr) *allocator {
	used := make([]sectorRun, 0, len(live))
	for _, ptr := range live {
		if !ptr.IsZero() {
			used = append(used, sectorRun{start: ptr.Start(), count: ptr.Count()})
		}
	}
	sort.Slice(used, func(i, j int) bool { return used[i].start < used[j].start })

	a := &allocator{end: dataStartSector}
	for _, run := range used {
		if run.start > a.end {
			a.free = append(a.free, sectorRun{start: a.end, count: run.start - a.end})
		}
		if run.end() > a.end {
			a.end = run.end()
		}
	}
	return a
}

// allocate возвращает первый свободный диапазон на count секторов
// (first-fit), при отсутствии — расширяет файл.
func (a *allocator) allocate(count uint32) sectorRun {
	for i, hole := range a.free {
		if hole.count < count {
			continue
		}
		run := sectorRun{start: hole.start, count: count}
		if hole.count == count {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = sectorRun{start: hole.start + count, count: hole.count - count}
		}
		return run
	}
	run := sectorRun{start: a.end, count: count}
	a.end += count
	return run
}

// release возвращает диапазон в список свободных, сливая смежные дыры.
func (a *allocator) release(run sectorRun) {
	if run.count == 0 {
		return
	}
	if run.end() == a.end {
		// Хвост файла: просто сдвигаем границу и подбираем смежную дыру.
		a.end = run.start
		if n := len(a.free); n > 0 && a.free[n-1].end() == a.end {
			a.end = a.free[n-1].start
			a.free = a.free[:n-1]
		}
		return
	}

	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].start > run.start })
	a.free = append(a.free, sectorRun{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = run

	// Слияние с соседями.
	if i+1 < len(a.free) && a.free[i].end() == a.free[i+1].start {
		a.free[i].count += a.free[i+1].count
		a.free = append(a.free[:i+1], a.free[i+2:]...)
	}
	if i > 0 && a.free[i-1].end() == a.free[i].start {
		a.free[i-1].count += a.free[i].count
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
}

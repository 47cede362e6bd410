package anvil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/annel0/craft-server/internal/logging"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	// SectorSize — размер сектора, единица выделения места в файле.
	SectorSize = 4096
	// TableEntries — записей в каждой заголовочной таблице.
	TableEntries = 1024
	// dataStartSector — первый сектор данных: секторы 0 и 1 заняты
	// таблицей указателей и таблицей временных меток.
	dataStartSector = 2
	// chunkHeaderSize — заголовок записи чанка: u32 длина + u8 тег сжатия.
	chunkHeaderSize = 5
	// maxRunSectors — предел однобайтового счётчика секторов.
	maxRunSectors = 255
)

// CompressionTag — тег сжатия записи чанка.
type CompressionTag uint8

const (
	CompressionGzip CompressionTag = 1
	CompressionZlib CompressionTag = 2
	CompressionNone CompressionTag = 3
)

// Region владеет одним открытым файлом региона и выполняет все операции
// с ним. Внутренней блокировки нет: регионом в каждый момент владеет
// один вызывающий (менеджер или актор региона).
type Region struct {
	file  *os.File
	path  string
	pos   RegionPos
	ptrs  [TableEntries]SectorPtr
	stamp [TableEntries]uint32
	alloc *allocator
}

// OpenRegion открывает (или создаёт) файл региона и читает его заголовок.
// Структурно некорректные указатели отбрасываются с предупреждением,
// как это делает ванильная реализация.
func OpenRegion(path string, pos RegionPos) (*Region, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("anvil: open %s: %w", path, err)
	}
	r := &Region{file: file, path: path, pos: pos}
	if err := r.readHeader(); err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

func (r *Region) readHeader() error {
	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("anvil: stat %s: %w", r.path, err)
	}
	size := info.Size()

	if size == 0 {
		// Новый файл: два пустых заголовочных сектора.
		if _, err := r.file.Write(make([]byte, dataStartSector*SectorSize)); err != nil {
			return fmt.Errorf("anvil: init header %s: %w", r.path, err)
		}
		r.alloc = newAllocator(nil)
		return nil
	}
	if size < dataStartSector*SectorSize {
		return fmt.Errorf("%w: %s is %d bytes, header needs %d", ErrCorrupt, r.path, size, dataStartSector*SectorSize)
	}

	header := make([]byte, dataStartSector*SectorSize)
	if _, err := r.file.ReadAt(header, 0); err != nil {
		return fmt.Errorf("anvil: read header %s: %w", r.path, err)
	}
	for i := 0; i < TableEntries; i++ {
		r.ptrs[i] = SectorPtr(binary.BigEndian.Uint32(header[i*4:]))
		r.stamp[i] = binary.BigEndian.Uint32(header[SectorSize+i*4:])
	}

	// Отбрасываем указатели, несогласованные с размером файла.
	fileSectors := uint32((size + SectorSize - 1) / SectorSize)
	for i, ptr := range r.ptrs {
		if ptr.IsZero() {
			continue
		}
		switch {
		case ptr.Start() < dataStartSector:
			logging.LogWarn("Регион %s: указатель %d пересекает заголовок (сектор %d), отброшен", r.path, i, ptr.Start())
			r.ptrs[i] = 0
		case ptr.Count() == 0:
			logging.LogWarn("Регион %s: указатель %d с нулевой длиной, отброшен", r.path, i)
			r.ptrs[i] = 0
		case ptr.Start()+ptr.Count() > fileSectors:
			logging.LogWarn("Регион %s: указатель %d выходит за конец файла, отброшен", r.path, i)
			r.ptrs[i] = 0
		}
	}
	r.alloc = newAllocator(r.ptrs[:])
	return nil
}

// Pos возвращает координаты региона.
func (r *Region) Pos() RegionPos {
	return r.pos
}

// Has сообщает, хранится ли чанк, не читая его данные.
func (r *Region) Has(pos LocalChunkPos) bool {
	return !r.ptrs[pos.TableIndex()].IsZero()
}

// Read возвращает распакованные байты чанка.
// Отсутствующий чанк — ErrChunkNotFound; несогласованная запись — ErrCorrupt.
func (r *Region) Read(pos LocalChunkPos) ([]byte, error) {
	ptr := r.ptrs[pos.TableIndex()]
	if ptr.IsZero() {
		return nil, fmt.Errorf("%w: %s in %s", ErrChunkNotFound, pos, r.path)
	}

	run := make([]byte, ptr.Count()*SectorSize)
	if _, err := r.file.ReadAt(run, int64(ptr.Start())*SectorSize); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: %s in %s: run truncated by file end", ErrCorrupt, pos, r.path)
		}
		return nil, fmt.Errorf("anvil: read %s in %s: %w", pos, r.path, err)
	}

	// Поле длины включает байт тега сжатия.
	stored := binary.BigEndian.Uint32(run)
	if stored == 0 {
		return nil, fmt.Errorf("%w: %s in %s: allocated but empty", ErrCorrupt, pos, r.path)
	}
	payloadLen := int(stored) - 1
	if payloadLen > len(run)-chunkHeaderSize {
		return nil, fmt.Errorf("%w: %s in %s: length %d exceeds %d-sector run", ErrCorrupt, pos, r.path, stored, ptr.Count())
	}
	tag := CompressionTag(run[4])
	payload := run[chunkHeaderSize : chunkHeaderSize+payloadLen]

	raw, err := decompress(tag, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s: %v", ErrCorrupt, pos, r.path, err)
	}
	return raw, nil
}

// Write сохраняет чанк. Запись двумя упорядоченными шагами: сначала
// данные, затем указатель; старый диапазон освобождается последним.
// Обрыв между шагами оставляет прежний указатель корректным.
func (r *Region) Write(pos LocalChunkPos, raw []byte) error {
	payload, err := compressZlib(raw)
	if err != nil {
		return fmt.Errorf("anvil: compress %s: %w", pos, err)
	}

	record := make([]byte, chunkHeaderSize+len(payload))
	binary.BigEndian.PutUint32(record, uint32(len(payload)+1))
	record[4] = byte(CompressionZlib)
	copy(record[chunkHeaderSize:], payload)

	needed := uint32((len(record) + SectorSize - 1) / SectorSize)
	if needed > maxRunSectors {
		return fmt.Errorf("%w: %s needs %d sectors", ErrChunkTooLarge, pos, needed)
	}

	idx := pos.TableIndex()
	old := r.ptrs[idx]

	if !old.IsZero() && needed <= old.Count() {
		// Запись помещается в прежний диапазон: перезаписываем на месте,
		// указатель не меняется.
		if err := r.writeRun(old.Start(), record, old.Count()); err != nil {
			return fmt.Errorf("anvil: write %s in %s: %w", pos, r.path, err)
		}
		return r.writeStamp(idx)
	}

	run := r.alloc.allocate(needed)
	if err := r.writeRun(run.start, record, run.count); err != nil {
		// Неудавшаяся запись не должна оставить диапазон занятым.
		r.alloc.release(run)
		return fmt.Errorf("anvil: write %s in %s: %w", pos, r.path, err)
	}
	// Данные на диске; только теперь публикуем указатель.
	newPtr := NewSectorPtr(run.start, uint8(needed))
	if err := r.writePtr(idx, newPtr); err != nil {
		r.alloc.release(run)
		return err
	}
	if err := r.writeStamp(idx); err != nil {
		return err
	}
	if !old.IsZero() {
		r.alloc.release(sectorRun{start: old.Start(), count: old.Count()})
	}
	return nil
}

// Remove удаляет чанк: обнуляет указатель и освобождает диапазон.
func (r *Region) Remove(pos LocalChunkPos) error {
	idx := pos.TableIndex()
	old := r.ptrs[idx]
	if old.IsZero() {
		return nil
	}
	if err := r.writePtr(idx, 0); err != nil {
		return err
	}
	if err := r.writeStamp(idx); err != nil {
		return err
	}
	r.alloc.release(sectorRun{start: old.Start(), count: old.Count()})
	return nil
}

// LastWritten возвращает время последней записи чанка из таблицы меток,
// не декодируя данные. Для отсутствующего чанка — нулевое время.
func (r *Region) LastWritten(pos LocalChunkPos) time.Time {
	stamp := r.stamp[pos.TableIndex()]
	if stamp == 0 {
		return time.Time{}
	}
	return time.Unix(int64(stamp), 0)
}

// Count возвращает количество сохранённых чанков.
func (r *Region) Count() int {
	n := 0
	for _, ptr := range r.ptrs {
		if !ptr.IsZero() {
			n++
		}
	}
	return n
}

// Close дополняет файл до целого числа секторов и закрывает его.
func (r *Region) Close() error {
	if err := r.padToSector(); err != nil {
		logging.LogWarn("Регион %s: не удалось дополнить до сектора: %v", r.path, err)
	}
	return r.file.Close()
}

// writeRun пишет запись чанка, дополняя её нулями до границы диапазона,
// и сбрасывает данные на диск до публикации указателя.
func (r *Region) writeRun(start uint32, record []byte, runSectors uint32) error {
	padded := make([]byte, runSectors*SectorSize)
	copy(padded, record)
	if _, err := r.file.WriteAt(padded, int64(start)*SectorSize); err != nil {
		return err
	}
	return r.file.Sync()
}

// writePtr пишет запись таблицы указателей на диск и в память.
func (r *Region) writePtr(idx int, ptr SectorPtr) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(ptr))
	if _, err := r.file.WriteAt(buf[:], int64(idx)*4); err != nil {
		return fmt.Errorf("anvil: update pointer %d in %s: %w", idx, r.path, err)
	}
	r.ptrs[idx] = ptr
	return nil
}

// writeStamp обновляет временную метку чанка.
func (r *Region) writeStamp(idx int) error {
	stamp := uint32(time.Now().Unix())
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], stamp)
	if _, err := r.file.WriteAt(buf[:], SectorSize+int64(idx)*4); err != nil {
		return fmt.Errorf("anvil: update timestamp %d in %s: %w", idx, r.path, err)
	}
	r.stamp[idx] = stamp
	return nil
}

// padToSector выравнивает конец файла на границу сектора.
func (r *Region) padToSector() error {
	info, err := r.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	padded := (size + SectorSize - 1) / SectorSize * SectorSize
	if size == padded {
		return nil
	}
	if _, err := r.file.WriteAt(make([]byte, padded-size), size); err != nil {
		return err
	}
	return nil
}

func compressZlib(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(tag CompressionTag, payload []byte) ([]byte, error) {
	switch tag {
	case CompressionGzip:
		gr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		return io.ReadAll(gr)
	case CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case CompressionNone:
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression tag %d", tag)
	}
}

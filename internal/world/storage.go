package world

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Tnze/go-mc/nbt"
	"github.com/annel0/craft-server/internal/anvil"
	"github.com/annel0/craft-server/internal/logging"
	"github.com/annel0/craft-server/internal/metrics"
)

// ErrChunkNotFound пробрасывается из хранилища регионов, чтобы вызывающим
// не нужно было импортировать anvil ради проверки.
var ErrChunkNotFound = anvil.ErrChunkNotFound

// MarshalColumn сериализует колонку в NBT для отправки или хранения.
func MarshalColumn(col *ChunkColumn) ([]byte, error) {
	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode(col, ""); err != nil {
		return nil, fmt.Errorf("ошибка сериализации чанка %s: %w", col.Pos(), err)
	}
	return buf.Bytes(), nil
}

// WorldStorage сохраняет и загружает колонки чанков: NBT-сериализация
// поверх файлов регионов.
type WorldStorage struct {
	regions *anvil.Storage

	mutex   sync.RWMutex
	isReady bool
}

// NewWorldStorage открывает хранилище мира в указанном каталоге.
func NewWorldStorage(dir string, mc *metrics.Collector) (*WorldStorage, error) {
	regions, err := anvil.NewStorage(dir, mc)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть хранилище мира: %w", err)
	}
	return &WorldStorage{regions: regions, isReady: true}, nil
}

// Close закрывает все открытые файлы регионов.
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}
	ws.isReady = false
	return ws.regions.Close()
}

// SaveChunk сериализует колонку и записывает её в файл региона.
func (ws *WorldStorage) SaveChunk(col *ChunkColumn) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	col.LastUpdate = time.Now().Unix()

	raw, err := MarshalColumn(col)
	if err != nil {
		return err
	}
	if err := ws.regions.Write(col.Pos(), raw); err != nil {
		return err
	}
	logging.LogChunkSave(col.X, col.Z, len(raw))
	return nil
}

// LoadChunk читает и десериализует колонку.
// Отсутствующий чанк — ErrChunkNotFound.
func (ws *WorldStorage) LoadChunk(pos anvil.ChunkPos) (*ChunkColumn, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	raw, err := ws.regions.Read(pos)
	if err != nil {
		return nil, err
	}
	logging.LogChunkLoad(pos.X, pos.Z, len(raw))

	var col ChunkColumn
	if _, err := nbt.NewDecoder(bytes.NewReader(raw)).Decode(&col); err != nil {
		return nil, fmt.Errorf("%w: %s: bad NBT: %v", anvil.ErrCorrupt, pos, err)
	}
	if col.X != pos.X || col.Z != pos.Z {
		return nil, fmt.Errorf("%w: %s: column claims (%d, %d)", anvil.ErrCorrupt, pos, col.X, col.Z)
	}
	return &col, nil
}

// LoadOrGenerate возвращает колонку из хранилища либо создаёт новую
// генератором, сохраняя результат.
func (ws *WorldStorage) LoadOrGenerate(pos anvil.ChunkPos, gen Generator) (*ChunkColumn, error) {
	col, err := ws.LoadChunk(pos)
	if err == nil {
		return col, nil
	}
	if !errors.Is(err, ErrChunkNotFound) {
		return nil, err
	}

	col = gen.Generate(pos.X, pos.Z)
	if err := ws.SaveChunk(col); err != nil {
		return nil, err
	}
	return col, nil
}

// HasChunk сообщает, сохранён ли чанк.
func (ws *WorldStorage) HasChunk(pos anvil.ChunkPos) (bool, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return false, fmt.Errorf("хранилище не готово")
	}
	return ws.regions.Has(pos)
}

// RemoveChunk удаляет чанк из хранилища.
func (ws *WorldStorage) RemoveChunk(pos anvil.ChunkPos) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	return ws.regions.Remove(pos)
}

// ChunkLastWritten возвращает время последнего сохранения чанка без
// его декодирования.
func (ws *WorldStorage) ChunkLastWritten(pos anvil.ChunkPos) (time.Time, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return time.Time{}, fmt.Errorf("хранилище не готово")
	}
	return ws.regions.LastWritten(pos)
}

// UnloadRegion закрывает файл региона до следующего обращения.
func (ws *WorldStorage) UnloadRegion(pos anvil.RegionPos) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil
	}
	return ws.regions.Unload(pos)
}

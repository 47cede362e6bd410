package anvil

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/annel0/craft-server/internal/logging"
	"github.com/annel0/craft-server/internal/metrics"
)

// Storage — менеджер регионов: лениво открывает файлы по мере обращений
// и сериализует доступ к каждому. Все операции принимают глобальные
// координаты чанка и сами находят нужный регион.
type Storage struct {
	dir     string
	metrics *metrics.Collector

	mu      sync.Mutex
	regions map[RegionPos]*Region
	closed  bool
}

// NewStorage создаёт менеджер поверх каталога с файлами r.<x>.<z>.mca.
// Каталог создаётся при необходимости.
func NewStorage(dir string, mc *metrics.Collector) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("anvil: create directory %s: %w", dir, err)
	}
	return &Storage{
		dir:     dir,
		metrics: mc,
		regions: make(map[RegionPos]*Region),
	}, nil
}

// region возвращает открытый регион для чанка, открывая файл при первом
// обращении. Вызывается под s.mu.
func (s *Storage) region(pos RegionPos) (*Region, error) {
	if s.closed {
		return nil, fmt.Errorf("anvil: storage %s is closed", s.dir)
	}
	if reg, ok := s.regions[pos]; ok {
		return reg, nil
	}
	reg, err := OpenRegion(filepath.Join(s.dir, pos.Filename()), pos)
	if err != nil {
		return nil, err
	}
	s.regions[pos] = reg
	s.metrics.RegionOpened()
	logging.LogDebug("Открыт регион %s (%d чанков)", pos, reg.Count())
	return reg, nil
}

// Read возвращает распакованные байты чанка.
func (s *Storage) Read(pos ChunkPos) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, err := s.region(RegionOf(pos))
	if err != nil {
		return nil, err
	}
	raw, err := reg.Read(LocalOf(pos))
	if err != nil {
		return nil, err
	}
	s.metrics.RegionRead()
	return raw, nil
}

// Write сохраняет чанк.
func (s *Storage) Write(pos ChunkPos, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, err := s.region(RegionOf(pos))
	if err != nil {
		return err
	}
	if err := reg.Write(LocalOf(pos), raw); err != nil {
		return err
	}
	s.metrics.RegionWrite()
	return nil
}

// Has сообщает, сохранён ли чанк, не читая его данные.
func (s *Storage) Has(pos ChunkPos) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, err := s.region(RegionOf(pos))
	if err != nil {
		return false, err
	}
	return reg.Has(LocalOf(pos)), nil
}

// Remove удаляет чанк из его региона.
func (s *Storage) Remove(pos ChunkPos) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, err := s.region(RegionOf(pos))
	if err != nil {
		return err
	}
	return reg.Remove(LocalOf(pos))
}

// LastWritten возвращает время последней записи чанка (нулевое время,
// если чанк отсутствует).
func (s *Storage) LastWritten(pos ChunkPos) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, err := s.region(RegionOf(pos))
	if err != nil {
		return time.Time{}, err
	}
	return reg.LastWritten(LocalOf(pos)), nil
}

// Unload закрывает регион, если он открыт. Следующее обращение к его
// чанкам откроет файл заново.
func (s *Storage) Unload(pos RegionPos) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regions[pos]
	if !ok {
		return nil
	}
	delete(s.regions, pos)
	s.metrics.RegionClosed()
	return reg.Close()
}

// Close закрывает все открытые регионы. Возвращает первую ошибку,
// продолжая закрывать остальные.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	for pos, reg := range s.regions {
		if err := reg.Close(); err != nil {
			logging.LogError("Ошибка закрытия региона %s: %v", pos, err)
			if firstErr == nil {
				firstErr = err
			}
		}
		s.metrics.RegionClosed()
		delete(s.regions, pos)
	}
	return firstErr
}

// region-cli — утилита для осмотра и правки файлов регионов без запуска
// сервера: список регионов, сведения о чанке, выгрузка NBT, удаление.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/annel0/craft-server/internal/anvil"
	"github.com/annel0/craft-server/internal/world"
)

func main() {
	var (
		worldDir = flag.String("world", "world/region", "каталог с файлами r.<x>.<z>.mca")
		command  = flag.String("cmd", "list", "Команда: list, info, dump, remove")
		chunk    = flag.String("chunk", "", "координаты чанка в виде x,z")
		out      = flag.String("out", "", "файл для выгрузки NBT (dump)")
	)
	flag.Parse()

	switch *command {
	case "list":
		if err := listRegions(*worldDir); err != nil {
			log.Fatalf("❌ List failed: %v", err)
		}
	case "info":
		if err := chunkInfo(*worldDir, *chunk); err != nil {
			log.Fatalf("❌ Info failed: %v", err)
		}
	case "dump":
		if err := dumpChunk(*worldDir, *chunk, *out); err != nil {
			log.Fatalf("❌ Dump failed: %v", err)
		}
	case "remove":
		if err := removeChunk(*worldDir, *chunk); err != nil {
			log.Fatalf("❌ Remove failed: %v", err)
		}
	default:
		log.Fatalf("❌ Неизвестная команда: %s", *command)
	}
}

// listRegions печатает все файлы регионов каталога и число чанков в каждом.
func listRegions(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "r.*.mca"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Println("Регионы не найдены")
		return nil
	}

	fmt.Printf("%-20s %8s %12s\n", "REGION", "CHUNKS", "SIZE")
	for _, path := range matches {
		var x, z int32
		if _, err := fmt.Sscanf(filepath.Base(path), "r.%d.%d.mca", &x, &z); err != nil {
			continue
		}
		reg, err := anvil.OpenRegion(path, anvil.RegionPos{X: x, Z: z})
		if err != nil {
			fmt.Printf("%-20s %s\n", filepath.Base(path), err)
			continue
		}
		info, _ := os.Stat(path)
		fmt.Printf("%-20s %8d %12d\n", filepath.Base(path), reg.Count(), info.Size())
		reg.Close()
	}
	return nil
}

// chunkInfo печатает сводку по одному чанку.
func chunkInfo(dir, chunkArg string) error {
	pos, err := parseChunk(chunkArg)
	if err != nil {
		return err
	}
	ws, err := world.NewWorldStorage(dir, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	col, err := ws.LoadChunk(pos)
	if err != nil {
		return err
	}
	stamp, err := ws.ChunkLastWritten(pos)
	if err != nil {
		return err
	}

	fmt.Printf("Чанк:          (%d, %d)\n", col.X, col.Z)
	fmt.Printf("Регион:        %s\n", anvil.RegionOf(pos).Filename())
	fmt.Printf("Статус:        %s\n", col.Status)
	fmt.Printf("DataVersion:   %d\n", col.DataVersion)
	fmt.Printf("Секции:        %d\n", len(col.Sections))
	fmt.Printf("Блок-сущности: %d\n", len(col.BlockEntities))
	fmt.Printf("Записан:       %s\n", stamp)
	return nil
}

// dumpChunk выгружает несжатый NBT чанка в файл или stdout.
func dumpChunk(dir, chunkArg, out string) error {
	pos, err := parseChunk(chunkArg)
	if err != nil {
		return err
	}
	ws, err := world.NewWorldStorage(dir, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	col, err := ws.LoadChunk(pos)
	if err != nil {
		return err
	}
	raw, err := world.MarshalColumn(col)
	if err != nil {
		return err
	}

	if out == "" {
		_, err = os.Stdout.Write(raw)
		return err
	}
	if err := os.WriteFile(out, raw, 0o644); err != nil {
		return err
	}
	fmt.Printf("Записано %d байт в %s\n", len(raw), out)
	return nil
}

// removeChunk удаляет чанк из его региона.
func removeChunk(dir, chunkArg string) error {
	pos, err := parseChunk(chunkArg)
	if err != nil {
		return err
	}
	ws, err := world.NewWorldStorage(dir, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.RemoveChunk(pos); err != nil {
		return err
	}
	fmt.Printf("Чанк (%d, %d) удалён\n", pos.X, pos.Z)
	return nil
}

// parseChunk разбирает аргумент -chunk вида "x,z".
func parseChunk(arg string) (anvil.ChunkPos, error) {
	if arg == "" {
		return anvil.ChunkPos{}, fmt.Errorf("не задан -chunk x,z")
	}
	parts := strings.Split(arg, ",")
	if len(parts) != 2 {
		return anvil.ChunkPos{}, fmt.Errorf("ожидается -chunk x,z, получено %q", arg)
	}
	var pos anvil.ChunkPos
	if _, err := fmt.Sscanf(arg, "%d,%d", &pos.X, &pos.Z); err != nil {
		return anvil.ChunkPos{}, fmt.Errorf("ожидается -chunk x,z, получено %q", arg)
	}
	return pos, nil
}

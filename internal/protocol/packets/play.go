package packets

import "github.com/annel0/craft-server/internal/protocol"

// Минимальный набор пакетов состояния Play: поддержание соединения,
// выгрузка чанка клиенту и разрыв.

// KeepAlive — периодический пакет поддержания соединения.
// Клиент обязан вернуть ту же метку.
type KeepAlive struct {
	ID int64
}

func (*KeepAlive) Kind() Kind { return KindKeepAlive }

func (p *KeepAlive) Decode(r *protocol.Reader) error {
	var err error
	p.ID, err = r.ReadInt64(protocol.IntOptions{})
	return err
}

func (p *KeepAlive) Encode(w *protocol.Writer) error {
	return w.WriteInt64(p.ID, protocol.IntOptions{})
}

// ChunkData передаёт клиенту сериализованную колонку чанка.
// Содержимое непрозрачно для сетевого слоя: NBT-байты как есть.
type ChunkData struct {
	ChunkX int32
	ChunkZ int32
	Data   []byte
}

func (*ChunkData) Kind() Kind { return KindChunkData }

func (p *ChunkData) Decode(r *protocol.Reader) error {
	var err error
	if p.ChunkX, err = r.ReadInt32(protocol.IntOptions{}); err != nil {
		return err
	}
	if p.ChunkZ, err = r.ReadInt32(protocol.IntOptions{}); err != nil {
		return err
	}
	p.Data, err = r.ReadByteArray(protocol.ListOptions{Length: protocol.LengthVarInt, MaxLen: protocol.MaxUncompressedLen})
	return err
}

func (p *ChunkData) Encode(w *protocol.Writer) error {
	if err := w.WriteInt32(p.ChunkX, protocol.IntOptions{}); err != nil {
		return err
	}
	if err := w.WriteInt32(p.ChunkZ, protocol.IntOptions{}); err != nil {
		return err
	}
	return w.WriteByteArray(p.Data, protocol.ListOptions{Length: protocol.LengthVarInt, MaxLen: protocol.MaxUncompressedLen})
}

// PlayDisconnect разрывает игру с причиной (непрозрачный JSON-текст).
type PlayDisconnect struct {
	Reason string
}

func (*PlayDisconnect) Kind() Kind { return KindPlayDisconnect }

func (p *PlayDisconnect) Decode(r *protocol.Reader) error {
	var err error
	p.Reason, err = r.ReadString(protocol.StringOptions{MaxLen: 262144})
	return err
}

func (p *PlayDisconnect) Encode(w *protocol.Writer) error {
	return w.WriteString(p.Reason, protocol.StringOptions{MaxLen: 262144})
}

package packets

import (
	"github.com/annel0/craft-server/internal/protocol"
	"github.com/google/uuid"
)

// Пакеты состояния Login: старт логина, обмен ключами шифрования,
// согласование сжатия и завершение.

// LoginStart начинает логин. UUID игрока опционален (булев тег).
type LoginStart struct {
	Name string
	UUID *uuid.UUID
}

func (*LoginStart) Kind() Kind { return KindLoginStart }

func (p *LoginStart) Decode(r *protocol.Reader) error {
	var err error
	if p.Name, err = r.ReadString(protocol.StringOptions{MaxLen: 16}); err != nil {
		return err
	}
	p.UUID, err = protocol.ReadOption(r, protocol.OptionOptions{Tag: protocol.TagBool}, (*protocol.Reader).ReadUUID)
	return err
}

func (p *LoginStart) Encode(w *protocol.Writer) error {
	if err := w.WriteString(p.Name, protocol.StringOptions{MaxLen: 16}); err != nil {
		return err
	}
	return protocol.WriteOption(w, protocol.OptionOptions{Tag: protocol.TagBool}, p.UUID, (*protocol.Writer).WriteUUID)
}

// EncryptionRequest передаёт клиенту публичный ключ сервера (DER)
// и одноразовый токен для проверки.
type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte
	VerifyToken []byte
}

func (*EncryptionRequest) Kind() Kind { return KindEncryptionRequest }

func (p *EncryptionRequest) Decode(r *protocol.Reader) error {
	var err error
	if p.ServerID, err = r.ReadString(protocol.StringOptions{MaxLen: 20}); err != nil {
		return err
	}
	if p.PublicKey, err = r.ReadByteArray(protocol.ListOptions{Length: protocol.LengthVarInt, MaxLen: 512}); err != nil {
		return err
	}
	p.VerifyToken, err = r.ReadByteArray(protocol.ListOptions{Length: protocol.LengthVarInt, MaxLen: 64})
	return err
}

func (p *EncryptionRequest) Encode(w *protocol.Writer) error {
	if err := w.WriteString(p.ServerID, protocol.StringOptions{MaxLen: 20}); err != nil {
		return err
	}
	if err := w.WriteByteArray(p.PublicKey, protocol.ListOptions{Length: protocol.LengthVarInt}); err != nil {
		return err
	}
	return w.WriteByteArray(p.VerifyToken, protocol.ListOptions{Length: protocol.LengthVarInt})
}

// EncryptionResponse несёт общий секрет и токен, зашифрованные
// публичным ключом сервера.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

func (*EncryptionResponse) Kind() Kind { return KindEncryptionResponse }

func (p *EncryptionResponse) Decode(r *protocol.Reader) error {
	var err error
	if p.SharedSecret, err = r.ReadByteArray(protocol.ListOptions{Length: protocol.LengthVarInt, MaxLen: 256}); err != nil {
		return err
	}
	p.VerifyToken, err = r.ReadByteArray(protocol.ListOptions{Length: protocol.LengthVarInt, MaxLen: 256})
	return err
}

func (p *EncryptionResponse) Encode(w *protocol.Writer) error {
	if err := w.WriteByteArray(p.SharedSecret, protocol.ListOptions{Length: protocol.LengthVarInt}); err != nil {
		return err
	}
	return w.WriteByteArray(p.VerifyToken, protocol.ListOptions{Length: protocol.LengthVarInt})
}

// SetCompression сообщает клиенту порог сжатия. После отправки обе
// стороны переключают кодек кадров в сжатый режим.
type SetCompression struct {
	Threshold int32
}

func (*SetCompression) Kind() Kind { return KindSetCompression }

func (p *SetCompression) Decode(r *protocol.Reader) error {
	var err error
	p.Threshold, err = r.ReadVarInt()
	return err
}

func (p *SetCompression) Encode(w *protocol.Writer) error {
	return w.WriteVarInt(p.Threshold)
}

// Property — подписываемое свойство игрового профиля (например, скин).
type Property struct {
	Name      string
	Value     string
	Signature *string
}

// LoginSuccess завершает логин и переводит соединение дальше.
type LoginSuccess struct {
	UUID       uuid.UUID
	Name       string
	Properties []Property
}

func (*LoginSuccess) Kind() Kind { return KindLoginSuccess }

func (p *LoginSuccess) Decode(r *protocol.Reader) error {
	var err error
	if p.UUID, err = r.ReadUUID(); err != nil {
		return err
	}
	if p.Name, err = r.ReadString(protocol.StringOptions{MaxLen: 16}); err != nil {
		return err
	}
	p.Properties, err = protocol.ReadList(r, protocol.ListOptions{Length: protocol.LengthVarInt, MaxLen: 16}, readProperty)
	return err
}

func (p *LoginSuccess) Encode(w *protocol.Writer) error {
	if err := w.WriteUUID(p.UUID); err != nil {
		return err
	}
	if err := w.WriteString(p.Name, protocol.StringOptions{MaxLen: 16}); err != nil {
		return err
	}
	return protocol.WriteList(w, protocol.ListOptions{Length: protocol.LengthVarInt, MaxLen: 16}, p.Properties, writeProperty)
}

func readProperty(r *protocol.Reader) (Property, error) {
	var prop Property
	var err error
	if prop.Name, err = r.ReadString(protocol.StringOptions{MaxLen: 64}); err != nil {
		return prop, err
	}
	if prop.Value, err = r.ReadString(protocol.DefaultStringOptions()); err != nil {
		return prop, err
	}
	prop.Signature, err = protocol.ReadOption(r, protocol.OptionOptions{Tag: protocol.TagBool}, func(r *protocol.Reader) (string, error) {
		return r.ReadString(protocol.DefaultStringOptions())
	})
	return prop, err
}

func writeProperty(w *protocol.Writer, prop Property) error {
	if err := w.WriteString(prop.Name, protocol.StringOptions{MaxLen: 64}); err != nil {
		return err
	}
	if err := w.WriteString(prop.Value, protocol.DefaultStringOptions()); err != nil {
		return err
	}
	return protocol.WriteOption(w, protocol.OptionOptions{Tag: protocol.TagBool}, prop.Signature, func(w *protocol.Writer, s string) error {
		return w.WriteString(s, protocol.DefaultStringOptions())
	})
}

// LoginDisconnect разрывает логин с причиной (непрозрачный JSON-текст).
type LoginDisconnect struct {
	Reason string
}

func (*LoginDisconnect) Kind() Kind { return KindLoginDisconnect }

func (p *LoginDisconnect) Decode(r *protocol.Reader) error {
	var err error
	p.Reason, err = r.ReadString(protocol.StringOptions{MaxLen: 262144})
	return err
}

func (p *LoginDisconnect) Encode(w *protocol.Writer) error {
	return w.WriteString(p.Reason, protocol.StringOptions{MaxLen: 262144})
}

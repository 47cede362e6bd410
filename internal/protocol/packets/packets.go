// Package packets содержит репрезентативный набор типизированных пакетов
// по состояниям протокола. Каждый пакет читает и пишет свои поля
// в порядке объявления, передавая примитивам кодека явные опции.
package packets

import "github.com/annel0/craft-server/internal/protocol"

// Kind — явный ключ типа пакета. Реестр сопоставляет Kind и числовой id
// для каждой пары (состояние, направление) без идентификации типов
// во время выполнения.
type Kind int

const (
	KindHandshake Kind = iota

	KindStatusRequest
	KindStatusResponse
	KindPingRequest
	KindPongResponse

	KindLoginStart
	KindEncryptionRequest
	KindEncryptionResponse
	KindSetCompression
	KindLoginSuccess
	KindLoginDisconnect

	KindKeepAlive
	KindChunkData
	KindPlayDisconnect
)

// String возвращает имя типа пакета для логов.
func (k Kind) String() string {
	switch k {
	case KindHandshake:
		return "Handshake"
	case KindStatusRequest:
		return "StatusRequest"
	case KindStatusResponse:
		return "StatusResponse"
	case KindPingRequest:
		return "PingRequest"
	case KindPongResponse:
		return "PongResponse"
	case KindLoginStart:
		return "LoginStart"
	case KindEncryptionRequest:
		return "EncryptionRequest"
	case KindEncryptionResponse:
		return "EncryptionResponse"
	case KindSetCompression:
		return "SetCompression"
	case KindLoginSuccess:
		return "LoginSuccess"
	case KindLoginDisconnect:
		return "LoginDisconnect"
	case KindKeepAlive:
		return "KeepAlive"
	case KindChunkData:
		return "ChunkData"
	case KindPlayDisconnect:
		return "PlayDisconnect"
	default:
		return "Unknown"
	}
}

// Packet — типизированный пакет протокола.
type Packet interface {
	Kind() Kind
	Decode(r *protocol.Reader) error
	Encode(w *protocol.Writer) error
}

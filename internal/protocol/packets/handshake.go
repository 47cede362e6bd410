package packets

import (
	"fmt"

	"github.com/annel0/craft-server/internal/protocol"
)

// NextState — enum-дискриминант из пакета Handshake, выбирающий
// следующее состояние соединения.
type NextState int32

const (
	NextStatus NextState = 1
	NextLogin  NextState = 2
)

// Handshake — первый и единственный пакет состояния Handshake.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       NextState
}

func (*Handshake) Kind() Kind { return KindHandshake }

func (p *Handshake) Decode(r *protocol.Reader) error {
	var err error
	if p.ProtocolVersion, err = r.ReadVarInt(); err != nil {
		return err
	}
	if p.ServerAddress, err = r.ReadString(protocol.StringOptions{MaxLen: 255}); err != nil {
		return err
	}
	if p.ServerPort, err = r.ReadUint16(); err != nil {
		return err
	}
	next, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	switch NextState(next) {
	case NextStatus, NextLogin:
		p.NextState = NextState(next)
	default:
		return fmt.Errorf("%w: handshake next state %d", protocol.ErrInvalidEncoding, next)
	}
	return nil
}

func (p *Handshake) Encode(w *protocol.Writer) error {
	if err := w.WriteVarInt(p.ProtocolVersion); err != nil {
		return err
	}
	if err := w.WriteString(p.ServerAddress, protocol.StringOptions{MaxLen: 255}); err != nil {
		return err
	}
	if err := w.WriteUint16(p.ServerPort); err != nil {
		return err
	}
	return w.WriteVarInt(int32(p.NextState))
}

package network

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/annel0/craft-server/internal/logging"
	"github.com/annel0/craft-server/internal/metrics"
	"github.com/annel0/craft-server/internal/protocol"
	"github.com/annel0/craft-server/internal/protocol/packets"
)

// Conn — одно клиентское соединение: сокет, кодек кадров, буфер приёма
// и машина состояний. Соединением владеет одна горутина; внутренней
// синхронизации нет.
type Conn struct {
	conn    net.Conn
	codec   *protocol.FrameCodec
	regs    *RegistrySet
	reg     *Registry
	state   State
	version Version
	buf     []byte
	metrics *metrics.Collector
}

// readChunkSize — размер порции чтения из сокета.
const readChunkSize = 4096

// NewConn оборачивает принятое соединение. Реестр версии выбирается
// после Handshake (см. Negotiate).
func NewConn(conn net.Conn, regs *RegistrySet, mc *metrics.Collector) *Conn {
	return &Conn{
		conn:    conn,
		codec:   protocol.NewFrameCodec(),
		regs:    regs,
		state:   StateHandshake,
		metrics: mc,
	}
}

// RemoteAddr возвращает адрес клиента для логов и ошибок.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// State возвращает текущее состояние протокола.
func (c *Conn) State() State {
	return c.state
}

// Version возвращает согласованную версию протокола.
func (c *Conn) Version() Version {
	return c.version
}

// Negotiate фиксирует версию из Handshake и выбирает реестр,
// чей диапазон её содержит.
func (c *Conn) Negotiate(v Version) error {
	reg, err := c.regs.For(v)
	if err != nil {
		return err
	}
	c.version = v
	c.reg = reg
	return nil
}

// Transition переводит соединение в следующее состояние.
// Недопустимый переход — ErrBadTransition.
func (c *Conn) Transition(to State) error {
	if !CanTransition(c.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, c.state, to)
	}
	c.state = to
	return nil
}

// EnableCompression переключает кодек кадров в сжатый режим.
// Вызывается после отправки SetCompression, один раз за соединение.
func (c *Conn) EnableCompression(threshold int) {
	c.codec.EnableCompression(threshold)
}

// EnableEncryption включает AES/CFB8 в обе стороны.
// Вызывается после успешного обмена ключами, один раз за соединение.
func (c *Conn) EnableEncryption(key []byte) error {
	return c.codec.EnableEncryption(key)
}

// ReadPacket блокируется до получения полного кадра, затем декодирует
// типизированный пакет по реестру текущего состояния. Частичная доставка —
// норма: недокодированный кадр остаётся в буфере до следующего чтения.
func (c *Conn) ReadPacket() (packets.Packet, error) {
	for {
		raw, consumed, err := c.codec.Decode(c.buf)
		if err != nil {
			return nil, c.fatal(err, nil)
		}
		if raw != nil {
			// Сдвигаем буфер только после полной интерпретации кадра.
			c.buf = c.buf[consumed:]
			c.metrics.PacketIn(consumed)
			return c.decodeTyped(raw)
		}

		chunk := make([]byte, readChunkSize)
		n, err := c.conn.Read(chunk)
		if n > 0 {
			chunk = chunk[:n]
			c.codec.DecryptInbound(chunk)
			c.buf = append(c.buf, chunk...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(c.buf) == 0 {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("network: read from %s: %w", c.RemoteAddr(), err)
		}
	}
}

// decodeTyped превращает RawPacket в типизированный пакет.
func (c *Conn) decodeTyped(raw *protocol.RawPacket) (packets.Packet, error) {
	reg := c.reg
	if reg == nil {
		// До Handshake действует реестр минимальной поддерживаемой версии.
		var err error
		reg, err = c.regs.For(minSupported(c.regs))
		if err != nil {
			return nil, c.fatal(err, raw)
		}
	}
	pkt, err := reg.NewPacket(c.state, raw.ID)
	if err != nil {
		return nil, c.fatal(err, raw)
	}
	r := protocol.NewReader(raw.Body)
	if err := pkt.Decode(r); err != nil {
		return nil, c.fatal(fmt.Errorf("decode %s: %w", pkt.Kind(), err), raw)
	}
	if r.Remaining() != 0 {
		err := fmt.Errorf("%w: %s left %d bytes unread", protocol.ErrInvalidEncoding, pkt.Kind(), r.Remaining())
		return nil, c.fatal(err, raw)
	}
	logging.LogPacket(c.RemoteAddr(), "IN", raw.ID, raw.Body)
	return pkt, nil
}

// WritePacket кодирует и отправляет пакет, id берётся из реестра
// для текущего состояния.
func (c *Conn) WritePacket(pkt packets.Packet) error {
	reg := c.reg
	if reg == nil {
		return c.fatal(ErrUnsupportedVersion, nil)
	}
	id, err := reg.OutboundID(c.state, pkt.Kind())
	if err != nil {
		return c.fatal(err, nil)
	}
	w := protocol.NewWriter()
	if err := pkt.Encode(w); err != nil {
		return c.fatal(fmt.Errorf("encode %s: %w", pkt.Kind(), err), nil)
	}
	frame, err := c.codec.Encode(&protocol.RawPacket{ID: id, Body: w.Bytes()})
	if err != nil {
		return c.fatal(fmt.Errorf("frame %s: %w", pkt.Kind(), err), nil)
	}
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("network: write to %s: %w", c.RemoteAddr(), err)
	}
	c.metrics.PacketOut(len(frame))
	return nil
}

// fatal оформляет фатальную ошибку протокола: адрес клиента и, если
// известен, id пакета. Повторов нет — соединение разрывается.
func (c *Conn) fatal(err error, raw *protocol.RawPacket) error {
	c.metrics.ProtocolError(errorKind(err))
	if raw != nil {
		logging.LogProtocolError(c.RemoteAddr(), err, raw.Body)
		return fmt.Errorf("network: peer %s, packet 0x%02x: %w", c.RemoteAddr(), raw.ID, err)
	}
	logging.LogProtocolError(c.RemoteAddr(), err, nil)
	return fmt.Errorf("network: peer %s: %w", c.RemoteAddr(), err)
}

// Close разрывает соединение. Безопасно в любой момент между кадрами:
// незавершённых ресурсов за соединением не остаётся.
func (c *Conn) Close() error {
	return c.conn.Close()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, protocol.ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, protocol.ErrExceededBound):
		return "exceeded_bound"
	case errors.Is(err, protocol.ErrCompressionMismatch):
		return "compression_mismatch"
	case errors.Is(err, ErrUnregisteredPacket):
		return "unregistered_packet"
	case errors.Is(err, ErrBadTransition):
		return "bad_transition"
	case errors.Is(err, ErrUnsupportedVersion):
		return "unsupported_version"
	default:
		return "other"
	}
}

// minSupported возвращает минимальную версию, покрытую набором реестров.
func minSupported(s *RegistrySet) Version {
	min := Version(0)
	first := true
	for _, reg := range s.registries {
		if first || reg.versions.Min < min {
			min = reg.versions.Min
			first = false
		}
	}
	return min
}

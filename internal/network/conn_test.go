package network

import (
	"net"
	"testing"

	"github.com/annel0/craft-server/internal/protocol"
	"github.com/annel0/craft-server/internal/protocol/packets"
	"github.com/stretchr/testify/require"
)

func newTestConn(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	set, err := BuildRegistries(DefaultRows())
	require.NoError(t, err)

	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() {
		serverSide.Close()
		clientSide.Close()
	})
	return NewConn(serverSide, set, nil), clientSide
}

func encodeFrame(t *testing.T, codec *protocol.FrameCodec, id int32, pkt packets.Packet) []byte {
	t.Helper()
	w := protocol.NewWriter()
	require.NoError(t, pkt.Encode(w))
	frame, err := codec.Encode(&protocol.RawPacket{ID: id, Body: w.Bytes()})
	require.NoError(t, err)
	return frame
}

func TestConnReadsHandshakeSplitAcrossWrites(t *testing.T) {
	conn, client := newTestConn(t)

	frame := encodeFrame(t, protocol.NewFrameCodec(), 0x00, &packets.Handshake{
		ProtocolVersion: int32(V1_19_4),
		ServerAddress:   "localhost",
		ServerPort:      25565,
		NextState:       packets.NextStatus,
	})

	// Кадр доставляется по одному байту: декодер обязан добирать данные.
	go func() {
		for i := range frame {
			client.Write(frame[i : i+1])
		}
	}()

	pkt, err := conn.ReadPacket()
	require.NoError(t, err)
	hs, ok := pkt.(*packets.Handshake)
	require.True(t, ok)
	require.Equal(t, int32(V1_19_4), hs.ProtocolVersion)
	require.Equal(t, packets.NextStatus, hs.NextState)
}

func TestConnRejectsUnregisteredID(t *testing.T) {
	conn, client := newTestConn(t)

	frame := encodeFrame(t, protocol.NewFrameCodec(), 0x55, &packets.StatusRequest{})
	go client.Write(frame)

	_, err := conn.ReadPacket()
	require.ErrorIs(t, err, ErrUnregisteredPacket)
}

func TestConnRejectsTrailingGarbage(t *testing.T) {
	conn, client := newTestConn(t)

	// Handshake с лишними байтами в теле: пакет обязан потреблять тело целиком.
	w := protocol.NewWriter()
	require.NoError(t, (&packets.Handshake{
		ProtocolVersion: int32(V1_19_4),
		ServerAddress:   "localhost",
		ServerPort:      25565,
		NextState:       packets.NextLogin,
	}).Encode(w))
	body := append(w.Bytes(), 0xDE, 0xAD)
	frame, err := protocol.NewFrameCodec().Encode(&protocol.RawPacket{ID: 0x00, Body: body})
	require.NoError(t, err)
	go client.Write(frame)

	_, err = conn.ReadPacket()
	require.ErrorIs(t, err, protocol.ErrInvalidEncoding)
}

func TestConnTransitionGuards(t *testing.T) {
	conn, _ := newTestConn(t)
	require.NoError(t, conn.Negotiate(V1_19_4))

	require.ErrorIs(t, conn.Transition(StatePlay), ErrBadTransition)
	require.NoError(t, conn.Transition(StateLogin))
	require.NoError(t, conn.Transition(StatePlay))
	require.ErrorIs(t, conn.Transition(StateStatus), ErrBadTransition)
}

func TestConnWriteLooksUpOutboundID(t *testing.T) {
	conn, client := newTestConn(t)
	require.NoError(t, conn.Negotiate(V1_19_4))
	require.NoError(t, conn.Transition(StateStatus))

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 256)
		n, _ := client.Read(buf)
		got <- buf[:n]
	}()

	require.NoError(t, conn.WritePacket(&packets.StatusResponse{Payload: `{}`}))

	frame := <-got
	clientCodec := protocol.NewFrameCodec()
	raw, _, err := clientCodec.Decode(frame)
	require.NoError(t, err)
	require.Equal(t, int32(0x00), raw.ID)

	// Тип, не зарегистрированный для Status, не должен отправляться.
	err = conn.WritePacket(&packets.ChunkData{Data: []byte{}})
	require.ErrorIs(t, err, ErrUnregisteredPacket)
}

func TestConnVersionNegotiation(t *testing.T) {
	conn, _ := newTestConn(t)
	require.ErrorIs(t, conn.Negotiate(Version(2)), ErrUnsupportedVersion)
	require.NoError(t, conn.Negotiate(V1_8))
	require.Equal(t, V1_8, conn.Version())
}

package network

import (
	"testing"

	"github.com/annel0/craft-server/internal/protocol/packets"
	"github.com/stretchr/testify/require"
)

func TestVersionRange(t *testing.T) {
	r := NewVersionRange(V1_8, V1_16)
	require.True(t, r.Contains(V1_8), "диапазон полуоткрытый: нижняя граница входит")
	require.True(t, r.Contains(V1_12))
	require.False(t, r.Contains(V1_16), "верхняя граница не входит")
	require.False(t, r.Contains(V1_7_2))

	require.True(t, r.Overlaps(NewVersionRange(V1_12, V1_19)))
	require.False(t, r.Overlaps(NewVersionRange(V1_16, V1_19)), "смежные диапазоны не пересекаются")
}

func TestBuildDefaultRegistries(t *testing.T) {
	set, err := BuildRegistries(DefaultRows())
	require.NoError(t, err)

	reg, err := set.For(V1_19_4)
	require.NoError(t, err)

	pkt, err := reg.NewPacket(StateHandshake, 0x00)
	require.NoError(t, err)
	require.Equal(t, packets.KindHandshake, pkt.Kind())

	id, err := reg.OutboundID(StateLogin, packets.KindLoginSuccess)
	require.NoError(t, err)
	require.Equal(t, int32(0x02), id)
}

func TestUnregisteredPacket(t *testing.T) {
	set, err := BuildRegistries(DefaultRows())
	require.NoError(t, err)
	reg, err := set.For(V1_19_4)
	require.NoError(t, err)

	// Id, валидный в Login, в Handshake не зарегистрирован.
	_, err = reg.NewPacket(StateHandshake, 0x01)
	require.ErrorIs(t, err, ErrUnregisteredPacket)

	// Исходящий тип вне своего состояния.
	_, err = reg.OutboundID(StateStatus, packets.KindChunkData)
	require.ErrorIs(t, err, ErrUnregisteredPacket)
}

func TestOverlappingRangesRejectedAtBuild(t *testing.T) {
	rows := []Row{
		{packets.KindKeepAlive, StatePlay, Clientbound, 0x23, nil, NewVersionRange(V1_8, V1_16)},
		{packets.KindChunkData, StatePlay, Clientbound, 0x24, nil, NewVersionRange(V1_12, V1_19)},
	}
	_, err := BuildRegistries(rows)
	require.Error(t, err, "пересечение диапазонов должно отвергаться при построении")
}

func TestDisjointRangesResolveByVersion(t *testing.T) {
	rows := []Row{
		{packets.KindKeepAlive, StatePlay, Clientbound, 0x1F, nil, NewVersionRange(V1_8, V1_16)},
		{packets.KindKeepAlive, StatePlay, Clientbound, 0x23, nil, NewVersionRange(V1_16, V1_19_4+1)},
	}
	set, err := BuildRegistries(rows)
	require.NoError(t, err)

	old, err := set.For(V1_12)
	require.NoError(t, err)
	id, err := old.OutboundID(StatePlay, packets.KindKeepAlive)
	require.NoError(t, err)
	require.Equal(t, int32(0x1F), id)

	modern, err := set.For(V1_19)
	require.NoError(t, err)
	id, err = modern.OutboundID(StatePlay, packets.KindKeepAlive)
	require.NoError(t, err)
	require.Equal(t, int32(0x23), id)

	_, err = set.For(V1_7_2)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDuplicateInboundIDRejected(t *testing.T) {
	all := NewVersionRange(V1_7_2, V1_19_4+1)
	rows := []Row{
		{packets.KindStatusRequest, StateStatus, Serverbound, 0x00,
			func() packets.Packet { return &packets.StatusRequest{} }, all},
		{packets.KindPingRequest, StateStatus, Serverbound, 0x00,
			func() packets.Packet { return &packets.PingRequest{} }, all},
	}
	_, err := BuildRegistries(rows)
	require.Error(t, err)
}

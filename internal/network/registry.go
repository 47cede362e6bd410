package network

import (
	"fmt"

	"github.com/annel0/craft-server/internal/protocol/packets"
)

// Direction — направление пакета относительно сервера.
type Direction int

const (
	// Serverbound — от клиента к серверу (входящие).
	Serverbound Direction = iota
	// Clientbound — от сервера к клиенту (исходящие).
	Clientbound
)

// Row — строка декларативной таблицы реестра: тип пакета, состояние,
// направление, числовой id и диапазон версий, в котором id действует.
type Row struct {
	Kind     packets.Kind
	State    State
	Dir      Direction
	ID       int32
	Factory  func() packets.Packet
	Versions VersionRange
}

// Registry — неизменяемый реестр пакетов одного диапазона версий:
// входящие id -> фабрика, исходящие тип -> id, отдельно по состояниям.
// После построения безопасно разделяется соединениями без синхронизации.
type Registry struct {
	versions VersionRange
	inbound  map[State]map[int32]func() packets.Packet
	outbound map[State]map[packets.Kind]int32
}

// Versions возвращает диапазон версий реестра.
func (r *Registry) Versions() VersionRange {
	return r.versions
}

// NewPacket создаёт пакет по входящему id для состояния.
// Незарегистрированный id — ErrUnregisteredPacket.
func (r *Registry) NewPacket(state State, id int32) (packets.Packet, error) {
	factory, ok := r.inbound[state][id]
	if !ok {
		return nil, fmt.Errorf("%w: inbound id 0x%02x in state %s", ErrUnregisteredPacket, id, state)
	}
	return factory(), nil
}

// OutboundID возвращает исходящий id для типа пакета в состоянии.
func (r *Registry) OutboundID(state State, kind packets.Kind) (int32, error) {
	id, ok := r.outbound[state][kind]
	if !ok {
		return 0, fmt.Errorf("%w: outbound %s in state %s", ErrUnregisteredPacket, kind, state)
	}
	return id, nil
}

// RegistrySet — набор реестров по непересекающимся диапазонам версий.
// Строится один раз при старте процесса.
type RegistrySet struct {
	registries []*Registry
}

// BuildRegistries строит набор реестров из декларативной таблицы.
// Строки с одинаковым диапазоном версий попадают в один реестр;
// пересечение различных диапазонов — ошибка построения, не поиска.
func BuildRegistries(rows []Row) (*RegistrySet, error) {
	var set RegistrySet
	byRange := make(map[VersionRange]*Registry)

	for _, row := range rows {
		if row.Versions.Min >= row.Versions.Max {
			return nil, fmt.Errorf("network: empty version range %s for %s", row.Versions, row.Kind)
		}
		reg, ok := byRange[row.Versions]
		if !ok {
			for _, existing := range set.registries {
				if existing.versions.Overlaps(row.Versions) {
					return nil, fmt.Errorf("network: version range %s overlaps %s", row.Versions, existing.versions)
				}
			}
			reg = &Registry{
				versions: row.Versions,
				inbound:  make(map[State]map[int32]func() packets.Packet),
				outbound: make(map[State]map[packets.Kind]int32),
			}
			byRange[row.Versions] = reg
			set.registries = append(set.registries, reg)
		}
		if err := reg.add(row); err != nil {
			return nil, err
		}
	}
	return &set, nil
}

func (r *Registry) add(row Row) error {
	switch row.Dir {
	case Serverbound:
		if row.Factory == nil {
			return fmt.Errorf("network: inbound row %s in state %s has no factory", row.Kind, row.State)
		}
		byID := r.inbound[row.State]
		if byID == nil {
			byID = make(map[int32]func() packets.Packet)
			r.inbound[row.State] = byID
		}
		if _, dup := byID[row.ID]; dup {
			return fmt.Errorf("network: duplicate inbound id 0x%02x in state %s", row.ID, row.State)
		}
		byID[row.ID] = row.Factory
	case Clientbound:
		byKind := r.outbound[row.State]
		if byKind == nil {
			byKind = make(map[packets.Kind]int32)
			r.outbound[row.State] = byKind
		}
		if _, dup := byKind[row.Kind]; dup {
			return fmt.Errorf("network: duplicate outbound %s in state %s", row.Kind, row.State)
		}
		byKind[row.Kind] = row.ID
	}
	return nil
}

// For выбирает реестр, чей диапазон содержит согласованную версию.
func (s *RegistrySet) For(v Version) (*Registry, error) {
	for _, reg := range s.registries {
		if reg.versions.Contains(v) {
			return reg, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
}

// DefaultRows — таблица репрезентативного набора пакетов для всего
// поддерживаемого окна версий. Числовые id соответствуют современным
// версиям протокола; исторические расхождения id решаются добавлением
// строк с другими диапазонами.
func DefaultRows() []Row {
	all := NewVersionRange(V1_7_2, V1_19_4+1)
	return []Row{
		// Handshake: единственный входящий пакет.
		{packets.KindHandshake, StateHandshake, Serverbound, 0x00,
			func() packets.Packet { return &packets.Handshake{} }, all},

		// Status: запрос/ответ и пинг/понг, затем закрытие.
		{packets.KindStatusRequest, StateStatus, Serverbound, 0x00,
			func() packets.Packet { return &packets.StatusRequest{} }, all},
		{packets.KindPingRequest, StateStatus, Serverbound, 0x01,
			func() packets.Packet { return &packets.PingRequest{} }, all},
		{packets.KindStatusResponse, StateStatus, Clientbound, 0x00, nil, all},
		{packets.KindPongResponse, StateStatus, Clientbound, 0x01, nil, all},

		// Login.
		{packets.KindLoginStart, StateLogin, Serverbound, 0x00,
			func() packets.Packet { return &packets.LoginStart{} }, all},
		{packets.KindEncryptionResponse, StateLogin, Serverbound, 0x01,
			func() packets.Packet { return &packets.EncryptionResponse{} }, all},
		{packets.KindLoginDisconnect, StateLogin, Clientbound, 0x00, nil, all},
		{packets.KindEncryptionRequest, StateLogin, Clientbound, 0x01, nil, all},
		{packets.KindLoginSuccess, StateLogin, Clientbound, 0x02, nil, all},
		{packets.KindSetCompression, StateLogin, Clientbound, 0x03, nil, all},

		// Play: минимальный рабочий набор.
		{packets.KindKeepAlive, StatePlay, Serverbound, 0x12,
			func() packets.Packet { return &packets.KeepAlive{} }, all},
		{packets.KindKeepAlive, StatePlay, Clientbound, 0x23, nil, all},
		{packets.KindChunkData, StatePlay, Clientbound, 0x24, nil, all},
		{packets.KindPlayDisconnect, StatePlay, Clientbound, 0x1A, nil, all},
	}
}

package network

import "errors"

var (
	// ErrUnregisteredPacket — id или тип пакета не зарегистрирован
	// для текущего состояния и версии. Фатально для соединения.
	ErrUnregisteredPacket = errors.New("network: packet not registered for state")

	// ErrBadTransition — недопустимый переход состояния протокола.
	ErrBadTransition = errors.New("network: illegal protocol state transition")

	// ErrUnsupportedVersion — согласованная версия не покрыта
	// ни одним реестром.
	ErrUnsupportedVersion = errors.New("network: unsupported protocol version")
)

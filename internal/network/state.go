package network

// State — состояние соединения в протоколе. В каждый момент активно
// ровно одно; набор допустимых пакетов определяется состоянием.
type State int

const (
	StateHandshake State = iota
	StateStatus
	StateLogin
	StateConfiguration
	StatePlay
)

// String возвращает имя состояния для логов.
func (s State) String() string {
	switch s {
	case StateHandshake:
		return "handshake"
	case StateStatus:
		return "status"
	case StateLogin:
		return "login"
	case StateConfiguration:
		return "configuration"
	case StatePlay:
		return "play"
	default:
		return "unknown"
	}
}

// legalTransitions — допустимые переходы состояния. Выбор Status/Login
// делает поле NextState пакета Handshake; после логина соединение идёт
// в Play напрямую либо через промежуточное Configuration.
var legalTransitions = map[State][]State{
	StateHandshake:     {StateStatus, StateLogin},
	StateLogin:         {StateConfiguration, StatePlay},
	StateConfiguration: {StatePlay},
}

// CanTransition сообщает, допустим ли переход from -> to.
func CanTransition(from, to State) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal сообщает, что из состояния нет переходов:
// после обмена соединение закрывается.
func (s State) Terminal() bool {
	return len(legalTransitions[s]) == 0
}

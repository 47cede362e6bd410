package network

import "testing"

func TestLegalTransitions(t *testing.T) {
	legal := []struct{ from, to State }{
		{StateHandshake, StateStatus},
		{StateHandshake, StateLogin},
		{StateLogin, StateConfiguration},
		{StateLogin, StatePlay},
		{StateConfiguration, StatePlay},
	}
	for _, tr := range legal {
		if !CanTransition(tr.from, tr.to) {
			t.Errorf("Переход %s -> %s должен быть допустим", tr.from, tr.to)
		}
	}

	illegal := []struct{ from, to State }{
		{StateHandshake, StatePlay},
		{StateStatus, StateLogin},
		{StateStatus, StatePlay},
		{StatePlay, StateLogin},
		{StateLogin, StateStatus},
		{StatePlay, StateHandshake},
	}
	for _, tr := range illegal {
		if CanTransition(tr.from, tr.to) {
			t.Errorf("Переход %s -> %s должен быть запрещён", tr.from, tr.to)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	if !StateStatus.Terminal() {
		t.Error("Status должен быть терминальным состоянием")
	}
	if StateHandshake.Terminal() || StateLogin.Terminal() {
		t.Error("Handshake и Login не терминальны")
	}
}

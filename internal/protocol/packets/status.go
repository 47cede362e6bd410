package packets

import "github.com/annel0/craft-server/internal/protocol"

// Статусный обмен: один запрос/ответ и один пинг, затем соединение
// закрывается (состояние терминально).

// StatusRequest — пустой запрос статуса сервера.
type StatusRequest struct{}

func (*StatusRequest) Kind() Kind                       { return KindStatusRequest }
func (*StatusRequest) Decode(r *protocol.Reader) error  { return nil }
func (*StatusRequest) Encode(w *protocol.Writer) error  { return nil }

// StatusResponse несёт JSON-описание сервера. Форматированный текст
// трактуется как непрозрачная строка с ограничением длины.
type StatusResponse struct {
	Payload string
}

func (*StatusResponse) Kind() Kind { return KindStatusResponse }

func (p *StatusResponse) Decode(r *protocol.Reader) error {
	var err error
	p.Payload, err = r.ReadString(protocol.DefaultStringOptions())
	return err
}

func (p *StatusResponse) Encode(w *protocol.Writer) error {
	return w.WriteString(p.Payload, protocol.DefaultStringOptions())
}

// PingRequest — эхо-запрос с произвольной меткой клиента.
type PingRequest struct {
	Payload int64
}

func (*PingRequest) Kind() Kind { return KindPingRequest }

func (p *PingRequest) Decode(r *protocol.Reader) error {
	var err error
	p.Payload, err = r.ReadInt64(protocol.IntOptions{})
	return err
}

func (p *PingRequest) Encode(w *protocol.Writer) error {
	return w.WriteInt64(p.Payload, protocol.IntOptions{})
}

// PongResponse возвращает метку из PingRequest без изменений.
type PongResponse struct {
	Payload int64
}

func (*PongResponse) Kind() Kind { return KindPongResponse }

func (p *PongResponse) Decode(r *protocol.Reader) error {
	var err error
	p.Payload, err = r.ReadInt64(protocol.IntOptions{})
	return err
}

func (p *PongResponse) Encode(w *protocol.Writer) error {
	return w.WriteInt64(p.Payload, protocol.IntOptions{})
}

package network

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/annel0/craft-server/internal/logging"
	"github.com/annel0/craft-server/internal/metrics"
	"github.com/annel0/craft-server/internal/protocol/packets"
	"github.com/google/uuid"
)

// Handler — игровой коллаборатор: получает сессии, вошедшие в Play,
// и их пакеты. Сетевое ядро не содержит игровой логики.
type Handler interface {
	HandleJoin(s *Session)
	HandlePacket(s *Session, pkt packets.Packet) error
	HandleQuit(s *Session, err error)
}

// Session — соединение, прошедшее логин.
type Session struct {
	Conn *Conn
	Name string
	UUID uuid.UUID
}

// Options — параметры сервера, потребляемые сетевым ядром.
type Options struct {
	BindAddr             string
	CompressionThreshold int // отрицательное значение — сжатие выключено
	OnlineMode           bool
	MOTD                 string
	MaxPlayers           int
	KeepAliveInterval    time.Duration
}

// Server принимает TCP-соединения и ведёт каждое через машину состояний
// до передачи обработчику. Одна пара горутин на соединение.
type Server struct {
	opts     Options
	regs     *RegistrySet
	handler  Handler
	metrics  *metrics.Collector
	listener net.Listener
	key      *rsa.PrivateKey

	connections map[uint64]*Conn
	nextConnID  uint64
	mu          sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer создаёт сервер. Ключ RSA генерируется на старте и живёт
// столько же, сколько процесс.
func NewServer(opts Options, regs *RegistrySet, handler Handler, mc *metrics.Collector) (*Server, error) {
	listener, err := net.Listen("tcp", opts.BindAddr)
	if err != nil {
		return nil, fmt.Errorf("network: listen %s: %w", opts.BindAddr, err)
	}
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		listener.Close()
		return nil, fmt.Errorf("network: rsa keygen: %w", err)
	}
	if opts.KeepAliveInterval <= 0 {
		opts.KeepAliveInterval = 15 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		opts:        opts,
		regs:        regs,
		handler:     handler,
		metrics:     mc,
		listener:    listener,
		key:         key,
		connections: make(map[uint64]*Conn),
		nextConnID:  1,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Addr возвращает адрес, на котором слушает сервер.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start запускает цикл приёма соединений.
func (s *Server) Start() {
	s.wg.Add(1)
	go s.acceptLoop()
	logging.LogInfo("TCP сервер запущен: %s", s.Addr())
}

// Stop останавливает сервер и закрывает все соединения.
func (s *Server) Stop() {
	s.cancel()
	s.listener.Close()

	s.mu.Lock()
	for _, conn := range s.connections {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				logging.LogWarn("Ошибка accept: %v", err)
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(netConn net.Conn) {
	defer s.wg.Done()

	conn := NewConn(netConn, s.regs, s.metrics)
	s.metrics.ConnOpened()
	defer s.metrics.ConnClosed()

	s.mu.Lock()
	id := s.nextConnID
	s.nextConnID++
	s.connections[id] = conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.connections, id)
		s.mu.Unlock()
		conn.Close()
	}()

	if err := s.runConnection(conn); err != nil && !errors.Is(err, io.EOF) {
		logging.LogWarn("Соединение %s завершено с ошибкой: %v", conn.RemoteAddr(), err)
	}
}

// runConnection ведёт соединение по состояниям: Handshake, затем
// Status (терминально) или Login -> Play.
func (s *Server) runConnection(conn *Conn) error {
	pkt, err := conn.ReadPacket()
	if err != nil {
		return err
	}
	hs, ok := pkt.(*packets.Handshake)
	if !ok {
		return fmt.Errorf("network: peer %s: first packet is %s, want Handshake", conn.RemoteAddr(), pkt.Kind())
	}
	if err := conn.Negotiate(Version(hs.ProtocolVersion)); err != nil {
		return err
	}

	switch hs.NextState {
	case packets.NextStatus:
		if err := conn.Transition(StateStatus); err != nil {
			return err
		}
		return s.serveStatus(conn)
	case packets.NextLogin:
		if err := conn.Transition(StateLogin); err != nil {
			return err
		}
		session, err := s.serveLogin(conn)
		if err != nil {
			return err
		}
		return s.servePlay(session)
	}
	return nil
}

// statusPayload — JSON статусного ответа. Форматированный текст описания
// остаётся непрозрачной строкой.
type statusPayload struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int32  `json:"protocol"`
	} `json:"version"`
	Players struct {
		Max    int `json:"max"`
		Online int `json:"online"`
	} `json:"players"`
	Description json.RawMessage `json:"description"`
}

// serveStatus обслуживает один обмен статусом и закрывает соединение.
func (s *Server) serveStatus(conn *Conn) error {
	pkt, err := conn.ReadPacket()
	if err != nil {
		return err
	}
	if _, ok := pkt.(*packets.StatusRequest); !ok {
		return fmt.Errorf("network: peer %s: expected StatusRequest, got %s", conn.RemoteAddr(), pkt.Kind())
	}

	var payload statusPayload
	payload.Version.Name = "craft-server"
	payload.Version.Protocol = int32(conn.Version())
	payload.Players.Max = s.opts.MaxPlayers
	s.mu.Lock()
	payload.Players.Online = len(s.connections) - 1
	s.mu.Unlock()
	desc, err := json.Marshal(map[string]string{"text": s.opts.MOTD})
	if err != nil {
		return err
	}
	payload.Description = desc

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := conn.WritePacket(&packets.StatusResponse{Payload: string(body)}); err != nil {
		return err
	}

	pkt, err = conn.ReadPacket()
	if err != nil {
		return err
	}
	ping, ok := pkt.(*packets.PingRequest)
	if !ok {
		return fmt.Errorf("network: peer %s: expected PingRequest, got %s", conn.RemoteAddr(), pkt.Kind())
	}
	// Status терминально: после понга соединение закрывается.
	return conn.WritePacket(&packets.PongResponse{Payload: ping.Payload})
}

// serveLogin проводит логин: опционально шифрование, затем сжатие,
// LoginSuccess и переход в Play.
func (s *Server) serveLogin(conn *Conn) (*Session, error) {
	pkt, err := conn.ReadPacket()
	if err != nil {
		return nil, err
	}
	start, ok := pkt.(*packets.LoginStart)
	if !ok {
		return nil, fmt.Errorf("network: peer %s: expected LoginStart, got %s", conn.RemoteAddr(), pkt.Kind())
	}

	if s.opts.OnlineMode {
		if err := s.negotiateEncryption(conn); err != nil {
			return nil, err
		}
	}

	if s.opts.CompressionThreshold >= 0 {
		if err := conn.WritePacket(&packets.SetCompression{Threshold: int32(s.opts.CompressionThreshold)}); err != nil {
			return nil, err
		}
		// Порог действует на все последующие кадры в обе стороны.
		conn.EnableCompression(s.opts.CompressionThreshold)
	}

	id := offlineUUID(start.Name)
	if start.UUID != nil {
		id = *start.UUID
	}
	if err := conn.WritePacket(&packets.LoginSuccess{UUID: id, Name: start.Name}); err != nil {
		return nil, err
	}
	if err := conn.Transition(StatePlay); err != nil {
		return nil, err
	}

	logging.LogInfo("Игрок %s (%s) вошёл с %s, протокол %d", start.Name, id, conn.RemoteAddr(), conn.Version())
	return &Session{Conn: conn, Name: start.Name, UUID: id}, nil
}

// negotiateEncryption выполняет обмен ключами: публичный ключ сервера,
// расшифровка общего секрета, проверка токена, включение CFB8.
func (s *Server) negotiateEncryption(conn *Conn) error {
	token := make([]byte, 4)
	if _, err := rand.Read(token); err != nil {
		return fmt.Errorf("network: verify token: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&s.key.PublicKey)
	if err != nil {
		return fmt.Errorf("network: marshal public key: %w", err)
	}
	if err := conn.WritePacket(&packets.EncryptionRequest{
		PublicKey:   pubDER,
		VerifyToken: token,
	}); err != nil {
		return err
	}

	pkt, err := conn.ReadPacket()
	if err != nil {
		return err
	}
	resp, ok := pkt.(*packets.EncryptionResponse)
	if !ok {
		return fmt.Errorf("network: peer %s: expected EncryptionResponse, got %s", conn.RemoteAddr(), pkt.Kind())
	}

	secret, err := rsa.DecryptPKCS1v15(rand.Reader, s.key, resp.SharedSecret)
	if err != nil {
		return fmt.Errorf("network: peer %s: decrypt shared secret: %w", conn.RemoteAddr(), err)
	}
	gotToken, err := rsa.DecryptPKCS1v15(rand.Reader, s.key, resp.VerifyToken)
	if err != nil {
		return fmt.Errorf("network: peer %s: decrypt verify token: %w", conn.RemoteAddr(), err)
	}
	if string(gotToken) != string(token) {
		return fmt.Errorf("network: peer %s: verify token mismatch", conn.RemoteAddr())
	}
	return conn.EnableEncryption(secret)
}

// servePlay гоняет цикл Play: KeepAlive по таймеру, остальные пакеты —
// обработчику. Фатальная ошибка протокола разрывает соединение.
func (s *Server) servePlay(session *Session) error {
	s.handler.HandleJoin(session)

	inbound := make(chan packets.Packet)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			pkt, err := session.Conn.ReadPacket()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case inbound <- pkt:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(s.opts.KeepAliveInterval)
	defer ticker.Stop()

	var err error
loop:
	for {
		select {
		case <-s.ctx.Done():
			break loop
		case err = <-readErr:
			break loop
		case <-ticker.C:
			if err = session.Conn.WritePacket(&packets.KeepAlive{ID: time.Now().UnixMilli()}); err != nil {
				break loop
			}
		case pkt := <-inbound:
			if _, ok := pkt.(*packets.KeepAlive); ok {
				continue
			}
			if err = s.handler.HandlePacket(session, pkt); err != nil {
				break loop
			}
		}
	}

	s.handler.HandleQuit(session, err)
	return err
}

// offlineUUID выводит стабильный UUID игрока из имени (оффлайн-режим).
func offlineUUID(name string) uuid.UUID {
	return uuid.NewMD5(uuid.UUID{}, []byte("OfflinePlayer:"+name))
}

package protocol

// RawPacket — декодированный кадр: числовой идентификатор и сырое тело.
// Живёт один обмен: создаётся кодеком при чтении и вызывающим кодом при записи.
type RawPacket struct {
	ID   int32
	Body []byte
}

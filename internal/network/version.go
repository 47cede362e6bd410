package network

import "fmt"

// Version — номер версии протокола: упорядоченное 32-битное целое,
// согласуемое в пакете Handshake.
type Version int32

// Номера протокола релизных версий.
const (
	V1_7_2  Version = 4
	V1_7_6  Version = 5
	V1_8    Version = 47
	V1_9    Version = 107
	V1_10   Version = 210
	V1_11   Version = 315
	V1_12   Version = 335
	V1_12_2 Version = 340
	V1_13   Version = 393
	V1_14   Version = 477
	V1_15   Version = 573
	V1_16   Version = 735
	V1_16_4 Version = 754
	V1_17   Version = 755
	V1_18   Version = 757
	V1_19   Version = 759
	V1_19_4 Version = 762
)

// VersionRange — полуоткрытый диапазон версий [Min, Max).
type VersionRange struct {
	Min Version
	Max Version
}

// NewVersionRange строит диапазон [min, max).
func NewVersionRange(min, max Version) VersionRange {
	return VersionRange{Min: min, Max: max}
}

// Contains сообщает, попадает ли v в диапазон.
func (r VersionRange) Contains(v Version) bool {
	return v >= r.Min && v < r.Max
}

// Overlaps сообщает, пересекаются ли диапазоны.
func (r VersionRange) Overlaps(other VersionRange) bool {
	return r.Min < other.Max && other.Min < r.Max
}

// String возвращает диапазон в виде "[min,max)".
func (r VersionRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Min, r.Max)
}

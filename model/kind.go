package model

// Kind identifies a timestamp field class. Each kind owns one hook chain in a
// Registry.
type Kind int

const (
	// KindDate stores calendar dates; generated values are truncated to midnight.
	KindDate Kind = iota
	// KindDateTime stores full timestamps.
	KindDateTime

	kindCount
)

// Kinds returns every supported field kind in registry order.
func Kinds() []Kind {
	return []Kind{KindDate, KindDateTime}
}

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// ParseKind converts a tag value ("date" or "datetime") into a Kind. The boolean reports whether the
// value was recognised.
func ParseKind(value string) (Kind, bool) {
	switch value {
	case "date":
		return KindDate, true
	case "datetime":
		return KindDateTime, true
	default:
		return 0, false
	}
}

func (k Kind) valid() bool {
	return k >= 0 && k < kindCount
}

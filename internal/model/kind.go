package model

// Kind distinguishes the two item families kept in the infirmary.
type Kind string

// Item kinds.
const (
	KindMedicine  Kind = "medicine"
	KindEquipment Kind = "equipment"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindMedicine || k == KindEquipment
}

// ParseKind accepts the singular and plural URL forms of a kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "medicine", "medicines":
		return KindMedicine, true
	case "equipment":
		return KindEquipment, true
	}
	return "", false
}

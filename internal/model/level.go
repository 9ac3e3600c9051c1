package model

// LevelKind distinguishes support from resistance.
type LevelKind string

const (
	LevelSupport    LevelKind = "support"
	LevelResistance LevelKind = "resistance"
)

// Level is a clustered representative of one or more local extrema.
type Level struct {
	Price float64
	Kind  LevelKind
}

// LevelSet holds supports in ascending and resistances in descending price order.
type LevelSet struct {
	Supports    []Level
	Resistances []Level
}

// Empty reports whether no levels were found.
func (s LevelSet) Empty() bool {
	return len(s.Supports) == 0 && len(s.Resistances) == 0
}

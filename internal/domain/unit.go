package domain

import "strings"

// Unit is the measure an item is ordered in. Values are the wire form used by
// the API and the local cache.
type Unit string

const (
	UnitGram     Unit = "g"
	UnitKilogram Unit = "kg"
	UnitLitre    Unit = "litre"
	UnitPiece    Unit = "pieces"
	UnitBunch    Unit = "bunch"
	UnitTray     Unit = "tray"
	UnitPacket   Unit = "packet"
)

var unitLabels = []struct {
	unit  Unit
	label string
}{
	{UnitGram, "g"},
	{UnitKilogram, "kg"},
	{UnitLitre, "L"},
	{UnitPiece, "pcs"},
	{UnitBunch, "bunch"},
	{UnitTray, "tray"},
	{UnitPacket, "pkt"},
}

// Units returns the unit enumeration in display order.
func Units() []Unit {
	out := make([]Unit, 0, len(unitLabels))
	for _, u := range unitLabels {
		out = append(out, u.unit)
	}
	return out
}

func (u Unit) Valid() bool {
	for _, l := range unitLabels {
		if l.unit == u {
			return true
		}
	}
	return false
}

// Label is the short form shown in messages, e.g. litre -> "L".
// Unknown units render as themselves.
func (u Unit) Label() string {
	for _, l := range unitLabels {
		if l.unit == u {
			return l.label
		}
	}
	return string(u)
}

// legacy spellings seen in older cached payloads
var unitAliases = map[string]Unit{
	"piece":    UnitPiece,
	"pcs":      UnitPiece,
	"l":        UnitLitre,
	"liter":    UnitLitre,
	"gram":     UnitGram,
	"grams":    UnitGram,
	"kilogram": UnitKilogram,
	"kgs":      UnitKilogram,
	"pkt":      UnitPacket,
}

// ParseUnit maps a wire or legacy spelling onto the enumeration.
func ParseUnit(s string) (Unit, bool) {
	u := Unit(strings.TrimSpace(s))
	if u.Valid() {
		return u, true
	}
	if alias, ok := unitAliases[strings.ToLower(string(u))]; ok {
		return alias, true
	}
	return u, false
}

type Category string

const (
	CategoryVegetables  Category = "Vegetables"
	CategoryDairy       Category = "Dairy"
	CategoryMeatAndEggs Category = "Meat & Eggs"
	CategoryStaples     Category = "Staples"
	CategorySpicesHerbs Category = "Spices & Herbs"
)

func Categories() []Category {
	return []Category{
		CategoryVegetables,
		CategoryDairy,
		CategoryMeatAndEggs,
		CategoryStaples,
		CategorySpicesHerbs,
	}
}

func (c Category) Valid() bool {
	for _, v := range Categories() {
		if v == c {
			return true
		}
	}
	return false
}

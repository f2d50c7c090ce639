package adi

import (
	"strconv"

	"adicode-go/errcode"
	"adicode-go/types"
	"adicode-go/x/mathx"
)

// PortIndex converts a user-facing port identifier into a 0-based index.
// Accepted forms are 1..8 and the letters 'a'..'h' / 'A'..'H'.
func PortIndex(id int) (int, error) {
	var idx int
	switch {
	case id >= 'a' && id <= 'h':
		idx = id - 'a'
	case id >= 'A' && id <= 'H':
		idx = id - 'A'
	default:
		idx = id - 1
	}
	if idx < 0 || idx >= types.NumPorts {
		return 0, &errcode.E{C: errcode.InvalidPort, Msg: "port " + portName(id)}
	}
	return idx, nil
}

// ResolvePair returns the canonical index of a two-wire device spanning the
// 0-based indices a and b. The wires must sit on distinct adjacent ports and
// the lower of the two must be odd.
func ResolvePair(a, b int) (int, error) {
	if mathx.Abs(a-b) > 1 {
		return 0, &errcode.E{C: errcode.InvalidPair, Msg: "ports not adjacent"}
	}
	if a == b {
		return 0, &errcode.E{C: errcode.InvalidPair, Msg: "ports are the same"}
	}
	c := mathx.Min(a, b)
	if c%2 == 0 {
		return 0, &errcode.E{C: errcode.InvalidPair, Msg: "pair anchored at even index " + strconv.Itoa(c)}
	}
	return c, nil
}

// resolveIDs translates both raw identifiers and resolves the pair.
func resolveIDs(x, y int) (lo, a int, err error) {
	a, err = PortIndex(x)
	if err != nil {
		return 0, 0, err
	}
	b, err := PortIndex(y)
	if err != nil {
		return 0, 0, err
	}
	lo, err = ResolvePair(a, b)
	return lo, a, err
}

func portName(id int) string {
	if (id >= 'a' && id <= 'z') || (id >= 'A' && id <= 'Z') {
		return string(rune(id))
	}
	return strconv.Itoa(id)
}

// checkHandle bounds-checks a device handle (a canonical 0-based index).
func checkHandle(h int) error {
	if h < 0 || h >= types.NumPorts {
		return &errcode.E{C: errcode.InvalidPort, Msg: "handle " + strconv.Itoa(h)}
	}
	return nil
}

package tvm

// Trit is a balanced ternary digit: -1, 0 or +1.
type Trit int8

const (
	Neg  Trit = -1
	Zero Trit = 0
	Pos  Trit = 1
)

// Sign reduces a register value to a trit.
func Sign(v int32) Trit {
	switch {
	case v > 0:
		return Pos
	case v < 0:
		return Neg
	}
	return Zero
}

// TritAnd is the minimum of the two trits.
func TritAnd(a, b Trit) Trit {
	if a == Neg || b == Neg {
		return Neg
	}
	if a == Zero || b == Zero {
		return Zero
	}
	return Pos
}

// TritOr is the maximum of the two trits.
func TritOr(a, b Trit) Trit {
	if a == Pos || b == Pos {
		return Pos
	}
	if a == Zero || b == Zero {
		return Zero
	}
	return Neg
}

// TritAdd saturates at -1 and +1.
func TritAdd(a, b Trit) Trit {
	sum := int(a) + int(b)
	if sum > 1 {
		return Pos
	}
	if sum < -1 {
		return Neg
	}
	return Trit(sum)
}

func TritMul(a, b Trit) Trit {
	return a * b
}

func TritNeg(a Trit) Trit {
	return -a
}

func (t Trit) String() string {
	switch t {
	case Neg:
		return "-"
	case Pos:
		return "+"
	}
	return "0"
}

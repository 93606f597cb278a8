package emu

import "github.com/holiman/uint256"

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// signExtend extends v from the given sign bit to 64 bits.
func signExtend(v uint64, bit uint64) uint64 {
	switch v & (1 << bit) {
	case 0:
		// fill with zeroes, by masking
		return v & (^uint64(0) >> (63 - bit))
	default:
		// fill with ones, by or-ing
		return v | (^uint64(0) << bit)
	}
}

// mask32Signed64 keeps the low 32 bits of v and sign-extends them.
func mask32Signed64(v uint64) uint64 {
	return signExtend(v&0xFFFF_FFFF, 31)
}

func signExtendTo256(v uint64) *uint256.Int {
	out := new(uint256.Int).SetUint64(v)
	if v&(1<<63) != 0 {
		out.Or(out, new(uint256.Int).Lsh(new(uint256.Int).Not(new(uint256.Int)), 64))
	}
	return out
}

// high64 returns bits [64:128) of the product x*y.
func high64(x, y *uint256.Int) uint64 {
	p := new(uint256.Int).Mul(x, y)
	return p.Rsh(p, 64).Uint64()
}

// mulh: upper bits of signed x signed
func mulh(a, b uint64) uint64 {
	return high64(signExtendTo256(a), signExtendTo256(b))
}

// mulhsu: upper bits of signed x unsigned
func mulhsu(a, b uint64) uint64 {
	return high64(signExtendTo256(a), uint256.NewInt(b))
}

// mulhu: upper bits of unsigned x unsigned
func mulhu(a, b uint64) uint64 {
	return high64(uint256.NewInt(a), uint256.NewInt(b))
}

const minInt64 = uint64(1 << 63)

func div(a, b uint64) uint64 {
	switch {
	case b == 0:
		return ^uint64(0)
	case a == minInt64 && b == ^uint64(0):
		// overflow: the quotient does not fit, result is the dividend
		return minInt64
	default:
		return uint64(int64(a) / int64(b))
	}
}

func divu(a, b uint64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	return a / b
}

func rem(a, b uint64) uint64 {
	switch {
	case b == 0:
		return a
	case a == minInt64 && b == ^uint64(0):
		return 0
	default:
		return uint64(int64(a) % int64(b))
	}
}

func remu(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

func divw(a, b uint64) uint64 {
	x, y := int32(a), int32(b)
	switch {
	case y == 0:
		return ^uint64(0)
	case x == -1<<31 && y == -1:
		return uint64(int64(x))
	default:
		return uint64(int64(x / y))
	}
}

func divuw(a, b uint64) uint64 {
	x, y := uint32(a), uint32(b)
	if y == 0 {
		return ^uint64(0)
	}
	return mask32Signed64(uint64(x / y))
}

func remw(a, b uint64) uint64 {
	x, y := int32(a), int32(b)
	switch {
	case y == 0:
		return uint64(int64(x))
	case x == -1<<31 && y == -1:
		return 0
	default:
		return uint64(int64(x % y))
	}
}

func remuw(a, b uint64) uint64 {
	x, y := uint32(a), uint32(b)
	if y == 0 {
		return mask32Signed64(uint64(x))
	}
	return mask32Signed64(uint64(x % y))
}

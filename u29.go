package amf3

// appendU29 appends the shortest U29 encoding of n: 7 bits per byte with a
// continuation flag, except for the fourth byte which carries a full 8.
func appendU29(by []byte, n uint32) ([]byte, error) {
	switch {
	case n <= 0x7f:
		by = append(by, byte(n))
	case n <= 0x3fff:
		by = append(by, byte(n>>7)|0x80, byte(n)&0x7f)
	case n <= 0x1fffff:
		by = append(by, byte(n>>14)|0x80, byte(n>>7)|0x80, byte(n)&0x7f)
	case n <= maxU29:
		by = append(by, byte(n>>22)|0x80, byte(n>>15)|0x80, byte(n>>8)|0x80, byte(n))
	default:
		return by, &RangeError{int64(n)}
	}
	return by, nil
}

// appendI29 appends i as a two's complement 29-bit integer. Callers check
// that i fits in [minInt29, maxInt29].
func appendI29(by []byte, i int64) []byte {
	by, _ = appendU29(by, uint32(i)&maxU29)
	return by
}

// appendHeader appends n<<1 with the low bit marking an inline value (as
// opposed to a table reference).
func appendHeader(by []byte, n int, inline bool) ([]byte, error) {
	if n < 0 || n > maxU29>>1 {
		return by, &RangeError{int64(n)}
	}
	h := uint32(n) << 1
	if inline {
		h |= 1
	}
	return appendU29(by, h)
}

func u29decode(by []byte) (n uint32, sz int, err error) {
	for i := 0; i < 3; i++ {
		if i >= len(by) {
			return 0, 0, ErrTruncated
		}
		b := by[i]
		if b&0x80 == 0 {
			return n<<7 | uint32(b), i + 1, nil
		}
		n = n<<7 | uint32(b&0x7f)
	}

	if len(by) < 4 {
		return 0, 0, ErrTruncated
	}

	return n<<8 | uint32(by[3]), 4, nil
}

// i29 sign-extends bit 28 of a decoded U29
func i29(n uint32) int {
	return int(int32(n<<3) >> 3)
}

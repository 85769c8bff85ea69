package term

// quadrantChars maps a 2x2 sub-cell bitmap to a block glyph
// bit0=UL, bit1=UR, bit2=LL, bit3=LR
var quadrantChars = [16]rune{
	' ', '▘', '▝', '▀',
	'▖', '▌', '▞', '▛',
	'▗', '▚', '▐', '▜',
	'▄', '▙', '▟', '█',
}

// cellKey packs signed cell coordinates into a map key
func cellKey(x, y int) uint64 {
	return uint64(uint32(int32(x)))<<32 | uint64(uint32(int32(y)))
}

func unpackKey(key uint64) (x, y int) {
	return int(int32(uint32(key >> 32))), int(int32(uint32(key)))
}

// floorDiv2 maps a sub-pixel coordinate to its cell, rounding toward negative infinity
func floorDiv2(v int) int {
	return v >> 1
}

// traceQuadrants walks a line in sub-pixel space with Bresenham's algorithm
// visit receives the cell, its quadrant bit and the fraction of the line covered so far
func traceQuadrants(sx0, sy0, sx1, sy1 int, visit func(cx, cy int, quadrant uint8, u float64)) {
	dx := sx1 - sx0
	if dx < 0 {
		dx = -dx
	}
	dy := sy1 - sy0
	if dy < 0 {
		dy = -dy
	}

	stepX := -1
	if sx0 < sx1 {
		stepX = 1
	}
	stepY := -1
	if sy0 < sy1 {
		stepY = 1
	}

	steps := max(dx, dy)
	err := dx - dy

	for i := 0; ; i++ {
		qx, qy := sx0&1, sy0&1
		u := 0.0
		if steps > 0 {
			u = min(1, float64(i)/float64(steps))
		}
		visit(floorDiv2(sx0), floorDiv2(sy0), uint8(1<<(qy*2+qx)), u)

		if sx0 == sx1 && sy0 == sy1 {
			return
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			sx0 += stepX
		}
		if e2 < dx {
			err += dx
			sy0 += stepY
		}
	}
}

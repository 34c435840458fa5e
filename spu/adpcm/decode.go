package adpcm

// DecodeBlock decodes one block into 28 samples, updating the two running
// predictor samples in place.
//
// The order is fixed by hardware: the nibble is placed at bit 12 and
// arithmetically shifted right, both filter terms are added, and only then
// is the result clamped.
func DecodeBlock(b *Block, prev1, prev2 *int16, out *[SamplesPerBlock]int16) {
	shift := min(b.Shift(), MaxShift)
	filter := min(b.Filter(), MaxFilter)
	pos := filterPos[filter]
	neg := filterNeg[filter]

	p1 := int32(*prev1)
	p2 := int32(*prev2)
	for i := range SamplesPerBlock {
		sample := (int32(b.Nibble(i)) << 12) >> shift
		sample += (p1 * pos) >> 6
		sample += (p2 * neg) >> 6

		clamped := clamp16(sample)
		out[i] = clamped
		p2 = p1
		p1 = int32(clamped)
	}
	*prev1 = int16(p1)
	*prev2 = int16(p2)
}

// DecodeAll decodes a whole encoded stream from a zero predictor state,
// ignoring loop flags. A trailing partial block is dropped.
func DecodeAll(data []byte) []int16 {
	n := len(data) / BlockSize
	out := make([]int16, 0, n*SamplesPerBlock)
	var prev1, prev2 int16
	var buf [SamplesPerBlock]int16
	for i := range n {
		DecodeBlock(BlockAt(data, i), &prev1, &prev2, &buf)
		out = append(out, buf[:]...)
	}
	return out
}

func clamp16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

package adpcm

import (
	"math"

	"github.com/valerio/go-spu/spu/bit"
)

// NoLoop marks an absent loop point for Encode.
const NoLoop = -1

// Encode compresses PCM into ADPCM blocks.
//
// The input is zero-padded to a multiple of 28 samples. For every block all
// 5 filters x 13 shifts are tried and the combination with the smallest
// squared error is kept; the predictor state carried between blocks is the
// decoded output, so encoder and decoder stay in lock-step.
//
// loopStart is a sample index (NoLoop for none) and marks its block with
// LOOP_START. loopEnd is an exclusive sample index (NoLoop for the end of
// the data); the block containing sample loopEnd-1 gets LOOP_END, and
// LOOP_REPEAT when loopStart is set. The last block always ends the sample.
// Empty input encodes to one silent LOOP_END block.
func Encode(pcm []int16, loopStart, loopEnd int) []byte {
	if len(pcm) == 0 {
		out := make([]byte, BlockSize)
		out[1] = FlagLoopEnd
		return out
	}

	numBlocks := (len(pcm) + SamplesPerBlock - 1) / SamplesPerBlock
	padded := make([]int16, numBlocks*SamplesPerBlock)
	copy(padded, pcm)

	looping := loopStart >= 0
	loopStartBlock := -1
	if looping {
		loopStartBlock = loopStart / SamplesPerBlock
	}
	loopEndBlock := numBlocks
	if loopEnd >= 0 {
		loopEndBlock = (loopEnd + SamplesPerBlock - 1) / SamplesPerBlock
	}

	out := make([]byte, numBlocks*BlockSize)
	var prev1, prev2 int16
	var scratch [SamplesPerBlock]int16

	for i := range numBlocks {
		samples := padded[i*SamplesPerBlock : (i+1)*SamplesPerBlock]
		b := BlockAt(out, i)
		encodeBlock(samples, prev1, prev2, b)

		var flags uint8
		if i == loopStartBlock {
			flags = bit.Set(loopStartBit, flags)
		}
		if i == numBlocks-1 || i+1 == loopEndBlock {
			flags = bit.Set(loopEndBit, flags)
			if looping {
				flags = bit.Set(loopRepeatBit, flags)
			}
		}
		b[1] = flags

		DecodeBlock(b, &prev1, &prev2, &scratch)
	}

	return out
}

// encodeBlock writes the best header and nibbles for 28 samples into b.
func encodeBlock(samples []int16, prev1, prev2 int16, b *Block) {
	bestErr := int64(math.MaxInt64)
	var bestFilter, bestShift uint8
	var bestNibbles, nibbles [SamplesPerBlock]int32

	for filter := uint8(0); filter <= MaxFilter; filter++ {
		pos := filterPos[filter]
		neg := filterNeg[filter]

		for shift := uint8(0); shift <= MaxShift; shift++ {
			var total int64
			p1 := int32(prev1)
			p2 := int32(prev2)

			for i, s := range samples {
				target := int32(s)
				prediction := (p1*pos)>>6 + (p2*neg)>>6
				residual := target - prediction

				nibble := ((residual << shift) + (1 << 11)) >> 12
				nibble = max(-8, min(7, nibble))
				nibbles[i] = nibble

				decoded := int32(clamp16(prediction + (nibble<<12)>>shift))
				e := int64(target - decoded)
				total += e * e

				p2 = p1
				p1 = decoded
			}

			if total < bestErr {
				bestErr = total
				bestFilter = filter
				bestShift = shift
				bestNibbles = nibbles
			}
		}
	}

	b.setHeader(bestShift, bestFilter)
	for i, n := range bestNibbles {
		b.setNibble(i, n)
	}
}

package library

import (
	"math"
	"slices"

	"github.com/valerio/go-spu/spu/adpcm"
)

const (
	// attackPreserve keeps roughly 4ms of the original attack transient.
	attackPreserve = 176
	// crossfadeLen blends the attack into loop content over roughly 2ms.
	crossfadeLen = 88
)

// AlignLoop moves a loop onto ADPCM block boundaries.
//
// Hardware can only loop whole 28-sample blocks. The loop start is rounded up
// to the next boundary (the skipped samples play once as pre-loop) and the loop
// body is resampled to the nearest multiple of 28, ties going down. The
// returned correction multiplies the base pitch so the loop plays at its
// original frequency. Loops that are empty or already aligned come back
// unchanged with correction 1.
func AlignLoop(pcm []int16, loopStart, loopEnd int) (out []int16, start, end int, correction float64) {
	loopEnd = min(loopEnd, len(pcm))
	loopLen := loopEnd - loopStart
	const blk = adpcm.SamplesPerBlock

	if loopLen <= 0 || (loopStart%blk == 0 && loopLen%blk == 0) {
		return slices.Clone(pcm), loopStart, loopEnd, 1
	}

	alignedStart := (loopStart + blk - 1) / blk * blk
	phase := alignedStart - loopStart

	down := loopLen / blk * blk
	up := down + blk
	target := up
	if down > 0 && loopLen-down <= up-loopLen {
		target = down
	}
	correction = float64(target) / float64(loopLen)

	body := pcm[loopStart:loopEnd]
	shifted := make([]int16, loopLen)
	for i := range shifted {
		shifted[i] = body[(phase+i)%loopLen]
	}

	resampled := shifted
	if target != loopLen {
		resampled = resampleCyclic(shifted, target)
	}

	out = make([]int16, 0, alignedStart+target)
	for i := range alignedStart {
		if i < len(pcm) {
			out = append(out, pcm[i])
		} else {
			out = append(out, pcm[loopStart+(i-loopStart)%loopLen])
		}
	}
	out = append(out, resampled...)

	return out, alignedStart, alignedStart + target, correction
}

// resampleCyclic linearly resamples one period of a waveform to n samples,
// wrapping the last sample onto the first.
func resampleCyclic(data []int16, n int) []int16 {
	out := make([]int16, n)
	src := len(data)
	if src == 0 {
		return out
	}
	for i := range out {
		pos := float64(i) * float64(src) / float64(n)
		base := math.Floor(pos)
		i0 := int(base) % src
		i1 := (i0 + 1) % src
		frac := pos - base
		v := float64(data[i0])*(1-frac) + float64(data[i1])*frac
		out[i] = int16(max(-32768, min(32767, math.Round(v))))
	}
	return out
}

// NormalizePreLoop replaces a decaying pre-loop section with loop content so
// plucked sources settle at loop amplitude right after the attack.
//
// The first 176 samples are kept, the next 88 crossfade into the loop, and the
// remainder up to loopStart repeats the loop. Nothing changes when the
// pre-loop is too short or its RMS is already within 0.67x-1.5x of the loop.
func NormalizePreLoop(pcm []int16, loopStart, loopEnd int) {
	le := min(loopEnd, len(pcm))
	if loopStart >= le {
		return
	}
	loopLen := le - loopStart

	attack := min(attackPreserve, loopStart)
	xfade := min(crossfadeLen, loopStart-attack)
	fill := attack + xfade
	if loopStart <= fill {
		return
	}

	loopRMS := rms(pcm[loopStart:le])
	preRMS := rms(pcm[fill:loopStart])
	if preRMS < loopRMS*1.5 && preRMS > loopRMS*0.67 {
		return
	}

	for i := fill; i < loopStart; i++ {
		pcm[i] = pcm[loopStart+(i-fill)%loopLen]
	}

	for i := range xfade {
		pos := attack + i
		t := float64(i) / float64(xfade)
		v := float64(pcm[pos])*(1-t) + float64(pcm[loopStart+i%loopLen])*t
		pcm[pos] = int16(max(-32768, min(32767, v)))
	}
}

func rms(s []int16) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(s)))
}

package reverb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func burst(p *Processor, level int16, n int) {
	for range n {
		p.Process(level, level)
	}
}

func peak(p *Processor, n int) int32 {
	var m int32
	for range n {
		l, r := p.Process(0, 0)
		m = max(m, abs(l), abs(r))
	}
	return m
}

func abs(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

func TestHallPreset(t *testing.T) {
	p := Hall.Preset()
	assert.Equal(t, uint16(0x01A5), p.APFOffset1)
	assert.Equal(t, uint16(0x0139), p.APFOffset2)
	assert.Equal(t, int16(0x6000), p.IIRVolume)
	assert.Equal(t, int16(-0x4000), p.WallVolume)
	assert.Equal(t, [2]uint16{0x15BA, 0x11BB}, p.SameSideDest)
	assert.Equal(t, [2]uint16{0x0274, 0x013A}, p.APFDest2)
	assert.Equal(t, [2]int16{-0x8000, -0x8000}, p.InputVolume)
}

func TestOffIsSilent(t *testing.T) {
	p := New()
	assert.False(t, p.Enabled())
	assert.Equal(t, Off, p.Type())

	for range 1000 {
		l, r := p.Process(16000, -16000)
		require.Zero(t, l)
		require.Zero(t, r)
	}
}

func TestHallProducesTail(t *testing.T) {
	p := New()
	p.SetPreset(Hall)
	require.True(t, p.Enabled())

	burst(p, 16000, 1000)
	assert.Greater(t, peak(p, 10000), int32(1000))
}

func TestSetPresetSameTypeKeepsTail(t *testing.T) {
	p := New()
	p.SetPreset(Hall)
	burst(p, 16000, 1000)
	cur := p.cur
	require.NotZero(t, cur)

	p.SetPreset(Hall)
	assert.Equal(t, cur, p.cur)
	assert.Greater(t, peak(p, 10000), int32(1000))

	p.SetPreset(Room)
	assert.Zero(t, p.cur, "switching presets clears the buffer")
	assert.Equal(t, Room, p.Type())
}

func TestClear(t *testing.T) {
	p := New()
	p.SetPreset(StudioLarge)
	burst(p, 20000, 2000)

	p.Clear()
	assert.Zero(t, peak(p, 20000))
}

func TestSetPresetOffDisables(t *testing.T) {
	p := New()
	p.SetPreset(SpaceEcho)
	burst(p, 16000, 500)

	p.SetPreset(Off)
	assert.False(t, p.Enabled())
	l, r := p.Process(10000, 10000)
	assert.Zero(t, l)
	assert.Zero(t, r)
}

func TestWetLevel(t *testing.T) {
	p := New()
	assert.Equal(t, float32(DefaultWetLevel), p.WetLevel())

	tests := []struct {
		in, want float32
	}{
		{0.25, 0.25},
		{-1, 0},
		{3, 1},
		{1, 1},
	}
	for _, tt := range tests {
		p.SetWetLevel(tt.in)
		assert.Equal(t, tt.want, p.WetLevel(), "input %v", tt.in)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		name string
		want Type
		ok   bool
	}{
		{"hall", Hall, true},
		{"Studio Small", StudioSmall, true},
		{"studio-large", StudioLarge, true},
		{"SPACE_ECHO", SpaceEcho, true},
		{"off", Off, true},
		{"cathedral", Off, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseType(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypeIndex(t *testing.T) {
	types := Types()
	require.Len(t, types, 10)
	for i, typ := range types {
		assert.Equal(t, uint8(i), typ.Index())
		assert.Equal(t, typ, TypeFromIndex(uint8(i)))
	}
	assert.Equal(t, Off, TypeFromIndex(200))
	assert.Equal(t, "Chaos Echo", ChaosEcho.String())
	assert.Equal(t, "Off", Type(42).String())
}

package hardware_test

import (
	"testing"

	"codeberg.org/mutker/powerctl/internal/hardware"
	"github.com/stretchr/testify/assert"
)

func TestClampChargeLimit(t *testing.T) {
	assert.Equal(t, uint8(20), hardware.ClampChargeLimit(10))
	assert.Equal(t, uint8(100), hardware.ClampChargeLimit(150))
	assert.Equal(t, uint8(55), hardware.ClampChargeLimit(55))
	assert.Equal(t, uint8(20), hardware.ClampChargeLimit(20))
	assert.Equal(t, uint8(100), hardware.ClampChargeLimit(100))
	assert.Equal(t, uint8(20), hardware.ClampChargeLimit(-5))
}

func TestClampChargeLimitBounds(t *testing.T) {
	for n := -200; n <= 300; n++ {
		clamped := hardware.ClampChargeLimit(n)
		assert.GreaterOrEqual(t, clamped, uint8(hardware.MinChargeLimit))
		assert.LessOrEqual(t, clamped, uint8(hardware.MaxChargeLimit))
	}
}

func TestDefaultFanCurve(t *testing.T) {
	curve := hardware.DefaultFanCurve()

	assert.False(t, curve.Enabled)
	assert.Len(t, curve.CPU, 8)
	assert.Len(t, curve.GPU, 8)

	assert.Equal(t, hardware.FanPoint{Temp: 30, Speed: 0}, curve.CPU[0])
	assert.Equal(t, hardware.FanPoint{Temp: 100, Speed: 100}, curve.CPU[7])
	assert.Equal(t, hardware.FanPoint{Temp: 30, Speed: 0}, curve.GPU[0])
	assert.Equal(t, hardware.FanPoint{Temp: 100, Speed: 100}, curve.GPU[7])
}

func TestFanCurveClone(t *testing.T) {
	curve := hardware.DefaultFanCurve()
	clone := curve.Clone()

	clone.CPU[0].Speed = 50
	assert.Equal(t, uint8(0), curve.CPU[0].Speed, "Expected clone to not share point storage")
}

func TestStateClone(t *testing.T) {
	state := hardware.State{
		Profile:     hardware.Performance,
		ChargeLimit: 80,
		FanCurve:    hardware.DefaultFanCurve(),
		Connected:   true,
	}

	clone := state.Clone()
	clone.FanCurve.CPU[0].Speed = 99

	assert.Equal(t, uint8(0), state.FanCurve.CPU[0].Speed)
	assert.Equal(t, hardware.Performance, clone.Profile)
	assert.Equal(t, uint8(80), clone.ChargeLimit)
	assert.True(t, clone.Connected)
}

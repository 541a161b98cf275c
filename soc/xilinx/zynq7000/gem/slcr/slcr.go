// Package slcr implements the Xilinx Zynq-7000 System-Level Control
// Registers clock-divisor programming needed by the GEM driver's clock
// selector (spec.md §4.3).
//
// This package is only meant to be used with `GOOS=tamago GOARCH=arm` as
// supported by the TamaGo framework for bare metal Go on ARM SoCs, see
// https://github.com/usbarmory/tamago-zynq7000.
//
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.
package slcr

import (
	"github.com/usbarmory/tamago-zynq7000/internal/reg"
)

// Fixed SLCR addresses (spec.md §6).
const (
	Base = 0xf8000000

	lockReg   = Base + 0x04
	unlockReg = Base + 0x08
	aperClkCtrlReg = Base + 0x12c

	gem0RclkReg = Base + 0x138
	gem1RclkReg = Base + 0x13c
	gem0ClkReg  = Base + 0x140
	gem1ClkReg  = Base + 0x144

	unlockVal = 0xdf0d
	lockVal   = 0x767b
)

// CLK register field layout (bit 0 enable, [6:4] ref PLL, [13:8] div0,
// [25:20] div1).
const (
	clkEnable   = 1 << 0
	clkRefPLLPos = 4
	clkRefPLLMsk = 0x7
	clkDiv0Pos  = 8
	clkDiv0Msk  = 0x3f
	clkDiv1Pos  = 20
	clkDiv1Msk  = 0x3f
)

// RCLK register field layout (bit 0 enable, bit 4 source).
const (
	rclkEnable = 1 << 0
	rclkSourcePos = 4
)

// RefPLL selects which PLL feeds the GEM reference clock tree.
type RefPLL int

const (
	IOPLL RefPLL = iota
	ARMPLL
	DDRPLL
)

// ClockSource selects the RX clock source (spec.md §6's RCLK layout).
type ClockSource int

const (
	SourceMIO ClockSource = iota
	SourceEMIO
)

// amba peripheral clock-enable bits (AMBA_CLK_CTRL, spec.md §6).
const (
	ambaClockEnableGEM0 = 1 << 6
	ambaClockEnableGEM1 = 1 << 7
)

// Clock implements the Clock Selector (C3) for one GEM instance.
type Clock struct {
	Index int // 0 or 1

	clkReg, rclkReg uint32
	ambaBit         uint32
}

// NewClock returns the Clock controller for GEM instance index (0 or 1).
func NewClock(index int) *Clock {
	c := &Clock{Index: index}

	if index == 0 {
		c.clkReg = gem0ClkReg
		c.rclkReg = gem0RclkReg
		c.ambaBit = ambaClockEnableGEM0
	} else {
		c.clkReg = gem1ClkReg
		c.rclkReg = gem1RclkReg
		c.ambaBit = ambaClockEnableGEM1
	}

	return c
}

func unlock() {
	reg.Write(unlockReg, unlockVal)
}

func lock() {
	reg.Write(lockReg, lockVal)
}

// EnablePeripheralClock gates on the AMBA peripheral clock for this GEM
// instance.
func (c *Clock) EnablePeripheralClock() {
	unlock()
	defer lock()

	v := reg.Read(aperClkCtrlReg)
	v |= c.ambaBit
	reg.Write(aperClkCtrlReg, v)
}

// TargetFrequency returns the MAC TX clock frequency (Hz) required for the
// given negotiated speed, using the enumeration from the gem package's
// LinkSpeed without importing it (avoids a dependency cycle): 0=10M,
// 1=100M, 2=1G.
func TargetFrequency(speed int) uint32 {
	switch speed {
	case 2:
		return 125_000_000
	case 1:
		return 25_000_000
	default:
		return 2_500_000
	}
}

// findDivisors searches div0, div1 in [1, 63] for the first pair such that
// |refHz/(div0*div1) - targetHz| <= 2, per spec.md §4.3.
func findDivisors(refHz uint32, target uint32) (div0, div1 int, ok bool) {
	for d0 := 1; d0 <= 63; d0++ {
		for d1 := 1; d1 <= 63; d1++ {
			out := refHz / uint32(d0*d1)

			var diff uint32
			if out > target {
				diff = out - target
			} else {
				diff = target - out
			}

			if diff <= 2 {
				return d0, d1, true
			}
		}
	}

	return 0, 0, false
}

// Configure programs the GEM's CLK/RCLK registers for the given negotiated
// link speed, per spec.md §4.3.
//
// refHz is the PLL output feeding the GEM clock tree (ps_ref_freq *
// multiplier for the selected RefPLL); staticDiv0/staticDiv1, if non-zero,
// are used verbatim instead of searching.
func (c *Clock) Configure(refHz uint32, speed int, pll RefPLL, source ClockSource, staticDiv0, staticDiv1 int) (ok bool) {
	target := TargetFrequency(speed)

	div0, div1 := staticDiv0, staticDiv1

	if div0 == 0 && div1 == 0 {
		var found bool
		div0, div1, found = findDivisors(refHz, target)
		if !found {
			return false
		}
	}

	unlock()
	defer lock()

	var clk uint32
	clk |= clkEnable
	clk |= (uint32(pll) & clkRefPLLMsk) << clkRefPLLPos
	clk |= (uint32(div0) & clkDiv0Msk) << clkDiv0Pos
	clk |= (uint32(div1) & clkDiv1Msk) << clkDiv1Pos
	reg.Write(c.clkReg, clk)

	var rclk uint32
	rclk |= rclkEnable
	if source == SourceEMIO {
		rclk |= 1 << rclkSourcePos
	}
	reg.Write(c.rclkReg, rclk)

	return true
}

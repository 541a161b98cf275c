// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver — clock selector
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package slcr

import "testing"

func TestTargetFrequency(t *testing.T) {
	cases := map[int]uint32{0: 2_500_000, 1: 25_000_000, 2: 125_000_000}
	for speed, want := range cases {
		if got := TargetFrequency(speed); got != want {
			t.Errorf("TargetFrequency(%d) = %d, want %d", speed, got, want)
		}
	}
}

func TestFindDivisorsExactMatch(t *testing.T) {
	// refHz = 125_000_000, target = 125_000_000 Hz (1G): div0=1, div1=1 is exact.
	d0, d1, ok := findDivisors(125_000_000, 125_000_000)
	if !ok {
		t.Fatal("expected a divisor pair to be found")
	}
	if got := uint32(125_000_000) / uint32(d0*d1); got != 125_000_000 {
		t.Fatalf("refHz/(d0*d1) = %d, want 125_000_000", got)
	}
}

func TestFindDivisorsWithinTolerance(t *testing.T) {
	const refHz = 1_000_000_000
	const target = 2_500_000 // 10M speed

	d0, d1, ok := findDivisors(refHz, target)
	if !ok {
		t.Fatal("expected a divisor pair to be found")
	}

	out := refHz / uint32(d0*d1)
	var diff uint32
	if out > target {
		diff = out - target
	} else {
		diff = target - out
	}
	if diff > 2 {
		t.Fatalf("|out-target| = %d, want <= 2", diff)
	}
	if d0 < 1 || d0 > 63 || d1 < 1 || d1 > 63 {
		t.Fatalf("divisors out of range: d0=%d d1=%d", d0, d1)
	}
}

func TestFindDivisorsNoMatch(t *testing.T) {
	// A reference frequency far too small for 1G's 125MHz target, with no
	// divisor pair (both capped at 63) able to reach within tolerance.
	_, _, ok := findDivisors(1000, 125_000_000)
	if ok {
		t.Fatal("expected no divisor pair to satisfy the tolerance")
	}
}

func TestNewClockSelectsRegistersByIndex(t *testing.T) {
	c0 := NewClock(0)
	if c0.clkReg != gem0ClkReg || c0.rclkReg != gem0RclkReg {
		t.Fatal("GEM0 clock should use gem0Clk/RclkReg")
	}

	c1 := NewClock(1)
	if c1.clkReg != gem1ClkReg || c1.rclkReg != gem1RclkReg {
		t.Fatal("GEM1 clock should use gem1Clk/RclkReg")
	}
}

// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver — PHY management layer
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package phy

import "testing"

func TestMatchTIDP83822(t *testing.T) {
	if !MatchTIDP83822(0x2000a240) {
		t.Fatal("exact ID should match")
	}
	if !MatchTIDP83822(0x2000a24f) {
		t.Fatal("revision nibble should be masked out")
	}
	if MatchTIDP83822(0x01410dd0) {
		t.Fatal("Marvell ID should not match TI mask")
	}
}

func TestTIStaticConfig(t *testing.T) {
	tr := newFakeTransport()
	addr := 4
	v := tiDP83822{}

	if err := v.StaticConfig(tr, addr); err != nil {
		t.Fatal(err)
	}

	if tr.regs[addr][RegCopperControl]&ControlAutonegEnable == 0 {
		t.Fatal("expected autoneg enable bit set")
	}
	if tr.regs[addr][tiRegControl1]&tiCR1RobustAutoMDIX == 0 {
		t.Fatal("expected robust auto-MDIX bit set")
	}

	phycr := tr.regs[addr][tiRegPhyControl]
	if phycr&tiPHYCtrlAutoMDIXEnable == 0 {
		t.Fatal("expected auto-MDIX enable bit set")
	}
	if phycr&tiPHYCtrlForceMDIX != 0 {
		t.Fatal("force-MDIX should be cleared")
	}
	if phycr&tiPHYCtrlLEDLinkOnly == 0 {
		t.Fatal("expected LED-link-only bit set")
	}

	if tr.regs[addr][tiRegLEDControl] != tiLEDBlinkRate5Hz<<tiLEDBlinkRateShift {
		t.Fatalf("LED control = %#x, want 5Hz blink rate", tr.regs[addr][tiRegLEDControl])
	}
}

func TestTIAdvertiseAndAutonegotiateClampsGigabit(t *testing.T) {
	tr := newFakeTransport()
	addr := 5
	v := tiDP83822{}

	if err := v.AdvertiseAndAutonegotiate(tr, addr, Speed1G, false, true); err != nil {
		t.Fatal(err)
	}

	want := AssembleANAR(Speed100M, false)
	if got := tr.regs[addr][RegAutonegAdv]; got != want {
		t.Fatalf("ANAR = %#x, want %#x (clamped to 100M)", got, want)
	}
}

func TestTIGetLinkDown(t *testing.T) {
	tr := newFakeTransport()
	addr := 6
	// tiStatusLink bit left clear: link down.

	v := tiDP83822{}
	state, err := v.GetLink(tr, addr)
	if err != nil {
		t.Fatal(err)
	}
	if state.Up {
		t.Fatal("expected link down")
	}
}

func TestTIGetLinkUp100FullDuplex(t *testing.T) {
	tr := newFakeTransport()
	addr := 7
	tr.MDIOWrite(addr, tiRegPhyStatus, tiStatusLink|tiStatusSpeed|tiStatusDuplex)

	v := tiDP83822{}
	state, err := v.GetLink(tr, addr)
	if err != nil {
		t.Fatal(err)
	}
	if !state.Up || state.Speed != Speed100M || !state.FullDuplex {
		t.Fatalf("state = %+v, want up/100M/full-duplex", state)
	}
}

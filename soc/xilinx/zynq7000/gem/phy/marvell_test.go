// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver — PHY management layer
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package phy

import "testing"

func TestMatchMarvell88E151x(t *testing.T) {
	if !MatchMarvell88E151x(0x01410dd0) {
		t.Fatal("exact ID should match")
	}
	if !MatchMarvell88E151x(0x01410dd3) {
		t.Fatal("revision nibble should be masked out")
	}
	if MatchMarvell88E151x(0x00000000) {
		t.Fatal("zero ID should not match")
	}
}

func TestMarvellStaticConfigSequence(t *testing.T) {
	tr := newSelfClearingTransport()
	addr := 1
	v := marvellAlaska{}

	if err := v.StaticConfig(tr, addr); err != nil {
		t.Fatal(err)
	}

	mdix := (tr.regs[addr][marvellRegCopperControl1] >> marvellMDIXConfigShift) & marvellMDIXConfigMask
	if mdix != marvellMDIXAutoCrossover {
		t.Fatalf("MDIX config = %#x, want auto-crossover", mdix)
	}

	if tr.regs[addr][marvellRegCopperIntEnable] != marvellIntMask {
		t.Fatalf("Copper Interrupt Enable = %#x, want %#x", tr.regs[addr][marvellRegCopperIntEnable], marvellIntMask)
	}

	// StaticConfig must leave page switched back to the base page.
	if tr.regs[addr][marvellRegPageSwitch] != marvellPageBase {
		t.Fatalf("page = %d, want base page %d", tr.regs[addr][marvellRegPageSwitch], marvellPageBase)
	}
}

func TestMarvellGetLink(t *testing.T) {
	tr := newFakeTransport()
	addr := 2

	tr.MDIOWrite(addr, marvellRegCopperStatus1, 1<<marvellSpeedShift|marvellDuplexBit)
	tr.MDIOWrite(addr, RegCopperStatus, marvellLinkStatusBit)

	v := marvellAlaska{}
	state, err := v.GetLink(tr, addr)
	if err != nil {
		t.Fatal(err)
	}

	if !state.Up {
		t.Fatal("expected link up")
	}
	if state.Speed != Speed100M {
		t.Fatalf("speed = %v, want Speed100M", state.Speed)
	}
	if !state.FullDuplex {
		t.Fatal("expected full duplex")
	}
}

func TestMarvellAdvertiseAndAutonegotiateGigabit(t *testing.T) {
	tr := newSelfClearingTransport()
	addr := 3
	v := marvellAlaska{}

	if err := v.AdvertiseAndAutonegotiate(tr, addr, Speed1G, false, true); err != nil {
		t.Fatal(err)
	}

	if tr.regs[addr][Reg1000BaseTControl] != Adv1000FDX|Adv1000HDX {
		t.Fatalf("1000BASE-T control = %#x, want gigabit advertised", tr.regs[addr][Reg1000BaseTControl])
	}

	cc := tr.regs[addr][RegCopperControl]
	if cc&ControlAutonegEnable == 0 {
		t.Fatal("expected autoneg enable bit set")
	}
}

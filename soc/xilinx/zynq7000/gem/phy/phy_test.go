// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver — PHY management layer
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package phy

import "testing"

// fakeTransport is an in-memory MDIO register file used to unit test the
// Vendor implementations without real hardware.
type fakeTransport struct {
	regs map[int]map[int]uint16
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{regs: make(map[int]map[int]uint16)}
}

func (f *fakeTransport) MDIORead(addr, reg int) (uint16, error) {
	return f.regs[addr][reg], nil
}

func (f *fakeTransport) MDIOWrite(addr, reg int, data uint16) error {
	if f.regs[addr] == nil {
		f.regs[addr] = make(map[int]uint16)
	}
	f.regs[addr][reg] = data
	return nil
}

// selfClearingTransport wraps fakeTransport and clears the ControlReset bit
// after the first read of any register that had it set, simulating a PHY
// whose self-clearing reset completes right after the first poll: that poll
// still sees the bit set, the next one sees it clear. Used by tests that
// exercise Reset/StaticConfig without wanting to pay pollReset's full
// timeout.
type selfClearingTransport struct {
	*fakeTransport
}

func newSelfClearingTransport() selfClearingTransport {
	return selfClearingTransport{newFakeTransport()}
}

func (s selfClearingTransport) MDIORead(addr, reg int) (uint16, error) {
	v, _ := s.fakeTransport.MDIORead(addr, reg)
	if v&ControlReset != 0 {
		s.fakeTransport.MDIOWrite(addr, reg, v&^ControlReset)
	}
	return v, nil
}

func TestAssembleANAR(t *testing.T) {
	cases := []struct {
		speed          Speed
		advertiseLower bool
		want           uint16
	}{
		{Speed10M, false, AdvSelectorIEEE8023 | Adv10HDX | Adv10FDX},
		{Speed100M, false, AdvSelectorIEEE8023 | Adv100HDX | Adv100FDX},
		{Speed100M, true, AdvSelectorIEEE8023 | Adv100HDX | Adv100FDX | Adv10HDX | Adv10FDX},
		{Speed1G, true, AdvSelectorIEEE8023 | Adv100HDX | Adv100FDX | Adv10HDX | Adv10FDX},
	}

	for _, c := range cases {
		if got := AssembleANAR(c.speed, c.advertiseLower); got != c.want {
			t.Errorf("AssembleANAR(%v, %v) = %#x, want %#x", c.speed, c.advertiseLower, got, c.want)
		}
	}
}

func TestAssemble1000BaseT(t *testing.T) {
	if v := Assemble1000BaseT(Speed100M); v != 0 {
		t.Fatalf("Assemble1000BaseT(Speed100M) = %#x, want 0", v)
	}
	if v := Assemble1000BaseT(Speed1G); v != Adv1000FDX|Adv1000HDX {
		t.Fatalf("Assemble1000BaseT(Speed1G) = %#x, want %#x", v, Adv1000FDX|Adv1000HDX)
	}
}

func TestDetectFindsPreferredAddressFirst(t *testing.T) {
	tr := newFakeTransport()
	// A second PHY at a lower address would win a plain 1..31 scan.
	tr.MDIOWrite(3, RegID1, 0x0141)
	tr.MDIOWrite(3, RegID2, 0x0dd1)
	tr.MDIOWrite(7, RegID1, 0x0141)
	tr.MDIOWrite(7, RegID2, 0x0dd0)

	vendor := NewMarvellAlaska()

	d, err := Detect(tr, 7, []Vendor{vendor}, func(id uint32, v Vendor) bool {
		return MatchMarvell88E151x(id)
	})
	if err != nil {
		t.Fatal(err)
	}
	if d.Addr != 7 {
		t.Fatalf("Addr = %d, want 7", d.Addr)
	}
	if d.Vendor.Family() != FamilyMarvellAlaska {
		t.Fatalf("Family = %v, want FamilyMarvellAlaska", d.Vendor.Family())
	}
}

func TestDetectUnknownID(t *testing.T) {
	tr := newFakeTransport()
	tr.MDIOWrite(3, RegID1, 0xdead)
	tr.MDIOWrite(3, RegID2, 0xbeef)

	_, err := Detect(tr, -1, []Vendor{NewMarvellAlaska()}, func(id uint32, v Vendor) bool {
		return MatchMarvell88E151x(id)
	})
	if err != ErrUnknownPHY {
		t.Fatalf("Detect = %v, want ErrUnknownPHY", err)
	}
}

func TestDetectNoPHY(t *testing.T) {
	tr := newFakeTransport()

	_, err := Detect(tr, -1, nil, func(uint32, Vendor) bool { return false })
	if err != ErrNoPHY {
		t.Fatalf("Detect = %v, want ErrNoPHY", err)
	}
}

func TestPollResetClears(t *testing.T) {
	tr := newFakeTransport()
	tr.MDIOWrite(1, RegCopperControl, 0) // reset bit already clear

	if err := pollReset(tr, 1, RegCopperControl); err != nil {
		t.Fatal(err)
	}
}

func TestPollResetTimesOut(t *testing.T) {
	tr := newFakeTransport()
	tr.MDIOWrite(1, RegCopperControl, ControlReset) // never clears

	if err := pollReset(tr, 1, RegCopperControl); err != ErrResetTimeout {
		t.Fatalf("pollReset = %v, want ErrResetTimeout", err)
	}
}

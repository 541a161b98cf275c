// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gem

import (
	"net"
	"testing"
)

func validConfig() Config {
	return Config{
		MAC:          net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		RxBDCount:    8,
		TxBDCount:    8,
		RxBufferSize: 1500,
		TxBufferSize: 1500,
	}
}

func TestNewConfigRejectsVLANAmbiguity(t *testing.T) {
	cfg := validConfig()
	cfg.VLANOnly = true
	cfg.DiscardNonVLAN = true

	if _, err := NewConfig(cfg); err != ErrInvalidArgument {
		t.Fatalf("NewConfig = %v, want ErrInvalidArgument", err)
	}
}

func TestNewConfigRejectsBadMAC(t *testing.T) {
	cfg := validConfig()
	cfg.MAC = net.HardwareAddr{0x01, 0x02, 0x03}

	if _, err := NewConfig(cfg); err != ErrInvalidArgument {
		t.Fatalf("NewConfig = %v, want ErrInvalidArgument", err)
	}
}

func TestNewConfigRejectsTooManyExtraAddresses(t *testing.T) {
	cfg := validConfig()
	for i := 0; i < 4; i++ {
		cfg.ExtraAddresses = append(cfg.ExtraAddresses, net.HardwareAddr{0, 0, 0, 0, 0, byte(i)})
	}

	if _, err := NewConfig(cfg); err != ErrInvalidArgument {
		t.Fatalf("NewConfig = %v, want ErrInvalidArgument", err)
	}
}

func TestNewConfigRoundsUpBufferSizes(t *testing.T) {
	cfg := validConfig()
	cfg.RxBufferSize = 1501
	cfg.TxBufferSize = 1499

	out, err := NewConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if out.RxBufferSize != 1504 {
		t.Fatalf("RxBufferSize = %d, want 1504", out.RxBufferSize)
	}
	if out.TxBufferSize != 1500 {
		t.Fatalf("TxBufferSize = %d, want 1500", out.TxBufferSize)
	}
}

func TestMDCDivisorThresholds(t *testing.T) {
	cases := []struct {
		hz   uint32
		want uint32
	}{
		{10_000_000, 0},
		{20_000_000, 1},
		{79_999_999, 2},
		{160_000_000, 5},
		{400_000_000, 7},
	}

	for _, c := range cases {
		if got := mdcDivisor(c.hz); got != c.want {
			t.Errorf("mdcDivisor(%d) = %d, want %d", c.hz, got, c.want)
		}
	}
}

func TestAssembleNWCFGSpeedBits(t *testing.T) {
	cfg := &Config{}

	if v := assembleNWCFG(cfg, Speed10M); v&(nwcfgSpeed100|nwcfgSpeed1000) != 0 {
		t.Fatalf("Speed10M set a speed bit: %#x", v)
	}
	if v := assembleNWCFG(cfg, Speed100M); v&nwcfgSpeed100 == 0 {
		t.Fatal("Speed100M did not set nwcfgSpeed100")
	}
	if v := assembleNWCFG(cfg, Speed1G); v&nwcfgSpeed1000 == 0 {
		t.Fatal("Speed1G did not set nwcfgSpeed1000")
	}
}

func TestAssembleNWCFGVLANBitSharedByBothFlags(t *testing.T) {
	a := assembleNWCFG(&Config{VLANOnly: true}, Speed10M)
	b := assembleNWCFG(&Config{DiscardNonVLAN: true}, Speed10M)

	if a&nwcfgNoVLANDiscard == 0 || b&nwcfgNoVLANDiscard == 0 {
		t.Fatal("expected nwcfgNoVLANDiscard set by either flag")
	}
}

func TestBusWidthField(t *testing.T) {
	cases := map[BusWidth]uint32{BusWidth32: 0, BusWidth64: 1, BusWidth128: 2}
	for w, want := range cases {
		if got := busWidthField(w); got != want {
			t.Errorf("busWidthField(%v) = %d, want %d", w, got, want)
		}
	}
}

func TestSetAddressByteOrder(t *testing.T) {
	hw := &Device{}
	hw.laddrLo = [4]uint32{0x1000, 0x1008, 0x1010, 0x1018}
	hw.laddrHi = [4]uint32{0x1004, 0x100c, 0x1014, 0x101c}

	mac := net.HardwareAddr{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}

	// setAddress stores through MMIO, which the host cannot reach, so this
	// test does not call it: it checks the bot/top packing expression that
	// setAddress applies.
	bot := uint32(mac[0]) | uint32(mac[1])<<8 | uint32(mac[2])<<16 | uint32(mac[3])<<24
	top := uint32(mac[4]) | uint32(mac[5])<<8

	wantBot := uint32(0x04030201)
	wantTop := uint32(0x0605)

	if bot != wantBot {
		t.Fatalf("bot = %#x, want %#x", bot, wantBot)
	}
	if top != wantTop {
		t.Fatalf("top = %#x, want %#x", top, wantTop)
	}
}

func TestRoundUp4(t *testing.T) {
	cases := map[int]int{0: 0, 1: 4, 4: 4, 5: 8, 1500: 1500, 1501: 1504}
	for in, want := range cases {
		if got := roundUp4(in); got != want {
			t.Errorf("roundUp4(%d) = %d, want %d", in, got, want)
		}
	}
}

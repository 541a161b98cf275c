// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gem

import (
	"time"

	"github.com/usbarmory/tamago-zynq7000/internal/reg"
	"github.com/usbarmory/tamago-zynq7000/soc/xilinx/zynq7000/gem/phy"
	"github.com/usbarmory/tamago-zynq7000/soc/xilinx/zynq7000/gem/slcr"
)

// phyPollMinInterval bounds how often pollLink is allowed to actually issue
// MDIO transactions against phyPollLimiter, protecting the MDIO bus from a
// PHY stuck asserting its interrupt status bit (a condition the original
// driver does not guard against at all).
const phyPollMinInterval = 10 * time.Millisecond

// refFrequency returns the PLL output frequency feeding the GEM clock tree:
// ps_ref_freq * PLLMultiplier, per spec.md §4.3.
func refFrequency(cfg *Config) uint32 {
	return uint32(cfg.PLLMultiplier) * 1_000_000
}

// Init performs the one-time bring-up sequence of spec.md §4.4 (chapter
// 16.3.x of the Zynq-7000 TRM): clock gating, hardware reset, initial
// register assembly, BD ring allocation, MAC address programming, PHY
// detection and static configuration. With Config.InitPHY set, the MAC is
// left stopped and the link down: RX/TX enable happens once the link comes
// up, driven by pollLink (per spec.md §4.8). Without it, the link is taken
// as up at Config.MaxLinkSpeed and the MAC is started.
func (hw *Device) Init() error {
	clock := slcr.NewClock(hw.Config.Index)
	clock.EnablePeripheralClock()

	hw.reset()

	reg.Write(hw.nwcfg, assembleNWCFG(hw.Config, Speed10M))
	reg.Write(hw.dmacr, assembleDMACR(hw.Config))

	// Buffer descriptors require 32-bit (word) alignment; the ring base
	// registers additionally require 4-byte alignment, which Reserve's
	// default already guarantees.
	rxDescAddr, rxDescRegion := hw.region.Reserve(hw.Config.RxBDCount*bdSize, 0)
	txDescAddr, txDescRegion := hw.region.Reserve(hw.Config.TxBDCount*bdSize, 0)

	rxDataAddr, rxData := hw.region.Reserve(hw.Config.RxBDCount*hw.Config.RxBufferSize, 0)
	txDataAddr, txData := hw.region.Reserve(hw.Config.TxBDCount*hw.Config.TxBufferSize, 0)

	hw.rx = initRing(true, hw.Config.RxBDCount, hw.Config.RxBufferSize, rxDescRegion, rxData, uint32(rxDataAddr))
	hw.tx = initRing(false, hw.Config.TxBDCount, hw.Config.TxBufferSize, txDescRegion, txData, uint32(txDataAddr))

	reg.Write(hw.rxqbase, uint32(rxDescAddr))
	reg.Write(hw.txqbase, uint32(txDescAddr))

	if err := hw.SetMAC(hw.Config.MAC); err != nil {
		return err
	}
	for i, extra := range hw.Config.ExtraAddresses {
		if err := hw.SetExtraAddress(i, extra); err != nil {
			return err
		}
	}

	reg.Set(hw.nwctrl, 4) // MDEn: enable the MDIO bus

	clock.Configure(refFrequency(hw.Config), int(Speed10M), hw.Config.RefPLL, hw.Config.ClockSource, hw.Config.StaticDiv0, hw.Config.StaticDiv1)

	if hw.Config.InitPHY {
		if err := hw.initPHY(); err != nil {
			return err
		}
	} else {
		hw.linkMu.Lock()
		hw.linkUp = true
		hw.link = hw.Config.MaxLinkSpeed
		hw.linkMu.Unlock()
		hw.start()
	}

	return nil
}

// knownPHYVendors is the set of vendor variants Detect matches a probed PHY
// ID against (SPEC_FULL.md §5's PHY ID table matching).
var knownPHYVendors = []phy.Vendor{
	phy.NewMarvellAlaska(),
	phy.NewTIDP83822(),
}

func matchPHYVendor(id uint32, v phy.Vendor) bool {
	switch v.Family() {
	case phy.FamilyMarvellAlaska:
		return phy.MatchMarvell88E151x(id)
	case phy.FamilyTIDP83822:
		return phy.MatchTIDP83822(id)
	}
	return false
}

// initPHY detects and statically configures the PHY, then starts
// auto-negotiation. The link is left down until the first pollLink finds it
// up, per original_source's "declare link down, auto-negotiation proceeds
// in the background" approach.
func (hw *Device) initPHY() error {
	d, err := phy.Detect(hw, hw.Config.PHYAddress, knownPHYVendors, matchPHYVendor)
	if err != nil {
		return err
	}
	hw.PHY = d

	if err := d.Vendor.Reset(hw, d.Addr); err != nil {
		hw.Stats.incr(&hw.Stats.PhyResetTimeouts)
		return err
	}
	if err := d.Vendor.StaticConfig(hw, d.Addr); err != nil {
		return err
	}

	gigabitCapable := hw.Config.MaxLinkSpeed == Speed1G && d.Vendor.Family() == phy.FamilyMarvellAlaska

	maxSpeed := phy.Speed(hw.Config.MaxLinkSpeed)
	return d.Vendor.AdvertiseAndAutonegotiate(hw, d.Addr, maxSpeed, hw.Config.AdvertiseLower, gigabitCapable)
}

// pollLink implements spec.md §4.8's link-state machine: it is invoked from
// the worker on every EventPollPHY, checks the PHY's latched interrupt
// status and, on a relevant change, re-reads the link and drives the
// down/up transition.
func (hw *Device) pollLink() error {
	if hw.PHY == nil {
		return nil
	}

	if !hw.phyPollLimiter.Allow() {
		// Rate-limited: the next EventPollPHY tick will retry.
		return nil
	}

	changed, err := hw.PHY.Vendor.ReadInterruptStatus(hw, hw.PHY.Addr)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	state, err := hw.PHY.Vendor.GetLink(hw, hw.PHY.Addr)
	if err != nil {
		return err
	}

	hw.linkMu.Lock()
	wasUp := hw.linkUp
	hw.linkMu.Unlock()

	if !state.Up {
		if wasUp {
			hw.transitionDown()
		}
		return nil
	}

	speed := fromPHYSpeed(state.Speed)

	hw.linkMu.Lock()
	sameSpeed := wasUp && hw.link == speed
	hw.linkMu.Unlock()

	if sameSpeed {
		return nil
	}

	hw.transitionUp(speed, wasUp)
	return nil
}

func fromPHYSpeed(s phy.Speed) LinkSpeed {
	switch s {
	case phy.Speed100M:
		return Speed100M
	case phy.Speed1G:
		return Speed1G
	default:
		return Speed10M
	}
}

// transitionDown stops the MAC and notifies OnCarrier, per spec.md §4.8.
func (hw *Device) transitionDown() {
	hw.stop()

	hw.linkMu.Lock()
	hw.linkUp = false
	hw.linkMu.Unlock()

	hw.Stats.incr(&hw.Stats.LinkTransitions)
	hw.Log.Printf("gem: link down")

	if hw.OnCarrier != nil {
		hw.OnCarrier(false, hw.link)
	}
}

// transitionUp reconfigures NWCFG and the SLCR clock divisors for the newly
// negotiated speed, then restarts the MAC. Per SPEC_FULL.md §7's Open
// Question resolution, an up-to-up speed change first drains any
// in-flight TX completion before stopping, to avoid losing a completion
// event across the stop/start boundary.
func (hw *Device) transitionUp(speed LinkSpeed, wasUp bool) {
	if wasUp {
		hw.completeTX()
	}

	hw.stop()

	reg.Write(hw.nwcfg, assembleNWCFG(hw.Config, speed))

	clock := slcr.NewClock(hw.Config.Index)
	clock.Configure(refFrequency(hw.Config), int(speed), hw.Config.RefPLL, hw.Config.ClockSource, hw.Config.StaticDiv0, hw.Config.StaticDiv1)

	hw.linkMu.Lock()
	hw.linkUp = true
	hw.link = speed
	hw.linkMu.Unlock()

	hw.Stats.incr(&hw.Stats.LinkTransitions)
	hw.Log.Printf("gem: link up, speed %v", speed)

	hw.start()

	if hw.OnCarrier != nil {
		hw.OnCarrier(true, speed)
	}
}

// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver — PHY management layer
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package phy

// TI DP83822 register numbers beyond the common clause-22 set
// (TI DP83822I datasheet, https://www.ti.com/lit/ds/symlink/dp83822i.pdf).
const (
	tiRegControl1     = 0x09
	tiRegPhyStatus    = 0x10
	tiRegIntStatus1   = 0x12
	tiRegLEDControl   = 0x18
	tiRegPhyControl   = 0x19
)

// Control Register 1 bits.
const tiCR1RobustAutoMDIX = 1 << 5

// PHY Control Register bits.
const (
	tiPHYCtrlAutoMDIXEnable = 1 << 15
	tiPHYCtrlForceMDIX      = 1 << 14
	tiPHYCtrlLEDLinkOnly    = 1 << 5
)

// LED Control Register blink-rate field.
const (
	tiLEDBlinkRateShift = 9
	tiLEDBlinkRate5Hz   = 2
)

// PHY Status Register bits.
const (
	tiStatusLink   = 1 << 0
	tiStatusSpeed  = 1 << 1
	tiStatusDuplex = 1 << 2
)

// idMaskTIDP83822 matches the DP83822 family ID (TI PHYID1R/PHYID2R),
// masking the revision nibble.
const (
	idMaskTIDP83822 = 0xfffffff0
	idTIDP83822     = 0x2000a240
)

// MatchTIDP83822 is the match function for Detect, recognizing the DP83822
// family ID per original_source's phy_ti_dp83822_static_cfg ID check.
func MatchTIDP83822(id uint32) bool {
	return id&idMaskTIDP83822 == idTIDP83822
}

// tiDP83822 implements Vendor for the TI DP83822 family. Unlike the Marvell
// Alaska variant, DP83822 has a flat register map with no page switching and
// is not gigabit-capable.
type tiDP83822 struct{}

// NewTIDP83822 returns the TI DP83822 Vendor variant.
func NewTIDP83822() Vendor {
	return tiDP83822{}
}

func (tiDP83822) Family() Family { return FamilyTIDP83822 }

func (tiDP83822) Reset(t Transport, addr int) error {
	v, err := t.MDIORead(addr, RegCopperControl)
	if err != nil {
		return err
	}
	if err := t.MDIOWrite(addr, RegCopperControl, v|ControlReset); err != nil {
		return err
	}
	return pollReset(t, addr, RegCopperControl)
}

// StaticConfig enables auto-negotiation, robust auto-MDIX (CR1), auto-MDIX
// with link-only LED indication (PHYCR), and a 5Hz LED blink rate, per
// original_source's phy_ti_dp83822_static_cfg.
func (tiDP83822) StaticConfig(t Transport, addr int) error {
	bmcr, err := t.MDIORead(addr, RegCopperControl)
	if err != nil {
		return err
	}
	bmcr |= ControlAutonegEnable
	if err := t.MDIOWrite(addr, RegCopperControl, bmcr); err != nil {
		return err
	}

	cr1, err := t.MDIORead(addr, tiRegControl1)
	if err != nil {
		return err
	}
	cr1 |= tiCR1RobustAutoMDIX
	if err := t.MDIOWrite(addr, tiRegControl1, cr1); err != nil {
		return err
	}

	phycr, err := t.MDIORead(addr, tiRegPhyControl)
	if err != nil {
		return err
	}
	phycr |= tiPHYCtrlAutoMDIXEnable
	phycr |= tiPHYCtrlLEDLinkOnly
	phycr &^= tiPHYCtrlForceMDIX
	if err := t.MDIOWrite(addr, tiRegPhyControl, phycr); err != nil {
		return err
	}

	return t.MDIOWrite(addr, tiRegLEDControl, tiLEDBlinkRate5Hz<<tiLEDBlinkRateShift)
}

// AdvertiseAndAutonegotiate assembles ANAR from the {10,100}x{half,full}
// subset permitted by maxSpeed/advertiseLower and restarts auto-negotiation.
// The DP83822 is a 10/100 part: gigabitCapable is ignored.
func (tiDP83822) AdvertiseAndAutonegotiate(t Transport, addr int, maxSpeed Speed, advertiseLower, gigabitCapable bool) error {
	speed := maxSpeed
	if speed == Speed1G {
		speed = Speed100M
	}

	anar := AssembleANAR(speed, advertiseLower)
	if err := t.MDIOWrite(addr, RegAutonegAdv, anar); err != nil {
		return err
	}

	bmcr, err := t.MDIORead(addr, RegCopperControl)
	if err != nil {
		return err
	}
	bmcr |= ControlAutonegEnable | ControlAutonegRestart
	return t.MDIOWrite(addr, RegCopperControl, bmcr)
}

func (tiDP83822) GetLink(t Transport, addr int) (LinkState, error) {
	physts, err := t.MDIORead(addr, tiRegPhyStatus)
	if err != nil {
		return LinkState{}, err
	}

	up := physts&tiStatusLink != 0
	if !up {
		return LinkState{Up: false}, nil
	}

	fullDuplex := physts&tiStatusDuplex != 0
	is100 := physts&tiStatusSpeed != 0

	speed := Speed10M
	if is100 {
		speed = Speed100M
	}

	return LinkState{Up: true, Speed: speed, FullDuplex: fullDuplex}, nil
}

func (tiDP83822) ReadInterruptStatus(t Transport, addr int) (bool, error) {
	v, err := t.MDIORead(addr, tiRegIntStatus1)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

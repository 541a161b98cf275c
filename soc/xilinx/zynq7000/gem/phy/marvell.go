// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver — PHY management layer
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package phy

// Marvell Alaska 88E1xxx register numbers beyond the common clause-22 set
// (Marvell Alaska 88E1510/88E1518/88E1512/88E1514 datasheet).
const (
	marvellRegCopperControl1    = 16 // Copper Specific Control Register 1
	marvellRegCopperStatus1     = 17
	marvellRegCopperIntEnable   = 18
	marvellRegCopperIntStatus   = 19
	marvellRegGeneralControl1   = 20 // page 18 only
	marvellRegPageSwitch        = 22

	marvellPageGeneralControl1 = 18
	marvellPageBase            = 0
)

// General Control Register 1 (page 18) bits.
const (
	marvellModeConfigMask = 0x7
	marvellModeRGMIIToCopper = 0
)

// Copper Specific Control Register 1 bits.
const (
	marvellMDIXConfigShift = 5
	marvellMDIXConfigMask  = 0x3
	marvellMDIXAutoCrossover = 0x3
)

// Copper Specific Interrupt Enable/Status bits.
const (
	marvellIntSpeedChanged  = 1 << 14
	marvellIntDuplexChanged = 1 << 13
	marvellIntAutonegDone   = 1 << 11
	marvellIntLinkChanged   = 1 << 10

	marvellIntMask = marvellIntSpeedChanged | marvellIntDuplexChanged | marvellIntAutonegDone | marvellIntLinkChanged
)

// Copper Status Register (reg 1) link bit and Copper Status 1 (reg 17)
// speed/duplex fields.
const (
	marvellLinkStatusBit = 1 << 5
	marvellSpeedShift    = 14
	marvellSpeedMask     = 0x3
	marvellDuplexBit     = 1 << 13
)

// idMaskMarvell88E151x matches the 88E151x family OUI+model per
// original_source's ID-table comment (Marvell Alaska 88E1510/88E1518/
// 88E1512/88E1514 share the same base ID with the revision nibble masked
// out).
const (
	idMaskMarvell88E151x = 0xfffffff0
	idMarvell88E151x     = 0x01410dd0
)

// MatchMarvell88E151x is the match function for Detect: it recognizes the
// 88E151x family ID mask from original_source's phy_detect/ID comments.
func MatchMarvell88E151x(id uint32) bool {
	return id&idMaskMarvell88E151x == idMarvell88E151x
}

// marvellAlaska implements Vendor for the Marvell Alaska 88E1xxx family.
type marvellAlaska struct{}

// NewMarvellAlaska returns the Marvell Alaska 88E1xxx Vendor variant.
func NewMarvellAlaska() Vendor {
	return marvellAlaska{}
}

func (marvellAlaska) Family() Family { return FamilyMarvellAlaska }

func (marvellAlaska) Reset(t Transport, addr int) error {
	v, err := t.MDIORead(addr, RegCopperControl)
	if err != nil {
		return err
	}
	if err := t.MDIOWrite(addr, RegCopperControl, v|ControlReset); err != nil {
		return err
	}
	return pollReset(t, addr, RegCopperControl)
}

// StaticConfig applies the RGMII-to-copper system-mode selection (page 18)
// and auto-crossover MDIX configuration (page 0), per spec.md §4.2's
// "Configure (Marvell Alaska 88E15xx variant)".
func (m marvellAlaska) StaticConfig(t Transport, addr int) error {
	if err := t.MDIOWrite(addr, marvellRegPageSwitch, marvellPageGeneralControl1); err != nil {
		return err
	}

	gc1, err := t.MDIORead(addr, marvellRegGeneralControl1)
	if err != nil {
		return err
	}
	gc1 &^= marvellModeConfigMask
	gc1 |= marvellModeRGMIIToCopper
	if err := t.MDIOWrite(addr, marvellRegGeneralControl1, gc1); err != nil {
		return err
	}

	// page-18 software reset, self-clearing.
	if err := t.MDIOWrite(addr, marvellRegGeneralControl1, gc1|ControlReset); err != nil {
		return err
	}
	if err := pollReset(t, addr, marvellRegGeneralControl1); err != nil {
		return err
	}

	if err := t.MDIOWrite(addr, marvellRegPageSwitch, marvellPageBase); err != nil {
		return err
	}

	cc1, err := t.MDIORead(addr, marvellRegCopperControl1)
	if err != nil {
		return err
	}
	cc1 &^= marvellMDIXConfigMask << marvellMDIXConfigShift
	cc1 |= marvellMDIXAutoCrossover << marvellMDIXConfigShift
	if err := t.MDIOWrite(addr, marvellRegCopperControl1, cc1); err != nil {
		return err
	}

	if err := t.MDIOWrite(addr, marvellRegCopperIntEnable, marvellIntMask); err != nil {
		return err
	}

	return m.Reset(t, addr)
}

func (marvellAlaska) AdvertiseAndAutonegotiate(t Transport, addr int, maxSpeed Speed, advertiseLower, gigabitCapable bool) error {
	anar := AssembleANAR(maxSpeed, advertiseLower)

	var gbit uint16
	if gigabitCapable {
		gbit = Assemble1000BaseT(maxSpeed)
	}

	if err := t.MDIOWrite(addr, Reg1000BaseTControl, gbit); err != nil {
		return err
	}
	if err := t.MDIOWrite(addr, RegAutonegAdv, anar); err != nil {
		return err
	}

	cc, err := t.MDIORead(addr, RegCopperControl)
	if err != nil {
		return err
	}
	cc |= ControlReset | ControlAutonegEnable
	if err := t.MDIOWrite(addr, RegCopperControl, cc); err != nil {
		return err
	}

	return pollReset(t, addr, RegCopperControl)
}

func (marvellAlaska) GetLink(t Transport, addr int) (LinkState, error) {
	status1, err := t.MDIORead(addr, marvellRegCopperStatus1)
	if err != nil {
		return LinkState{}, err
	}

	speedBits := (status1 >> marvellSpeedShift) & marvellSpeedMask
	duplex := status1&marvellDuplexBit != 0

	status, err := t.MDIORead(addr, RegCopperStatus)
	if err != nil {
		return LinkState{}, err
	}
	up := status&marvellLinkStatusBit != 0

	var speed Speed
	switch speedBits {
	case 0:
		speed = Speed10M
	case 1:
		speed = Speed100M
	default:
		speed = Speed1G
	}

	return LinkState{Up: up, Speed: speed, FullDuplex: duplex}, nil
}

func (marvellAlaska) ReadInterruptStatus(t Transport, addr int) (bool, error) {
	v, err := t.MDIORead(addr, marvellRegCopperIntStatus)
	if err != nil {
		return false, err
	}
	return v&marvellIntMask != 0, nil
}

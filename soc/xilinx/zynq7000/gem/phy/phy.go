// Package phy implements the vendor-independent PHY management layer of
// the Zynq-7000 GEM driver (spec.md §4.2), with a tagged-variant capability
// set for the Marvell Alaska 88E1xxx and TI DP83822 PHY families
// (SPEC_FULL.md §2).
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
package phy

import (
	"errors"
	"time"
)

var (
	ErrNoPHY           = errors.New("phy: no device answered")
	ErrUnknownPHY      = errors.New("phy: id did not match a known family")
	ErrResetTimeout    = errors.New("phy: reset timeout")
)

// Transport is the MDIO capability a PHY driver requires (spec.md §9's
// "cyclic graphs → capability interfaces" note): the device passes itself
// in, the PHY driver never reaches back through a strong reference.
type Transport interface {
	MDIORead(phyAddr int, reg int) (uint16, error)
	MDIOWrite(phyAddr int, reg int, data uint16) error
}

// Common IEEE 802.3 clause 22 register numbers, shared by every PHY family.
const (
	RegCopperControl   = 0  // BMCR
	RegCopperStatus    = 1  // BMSR
	RegID1             = 2
	RegID2             = 3
	RegAutonegAdv      = 4  // ANAR
	RegLinkPartnerAbility = 5
	Reg1000BaseTControl = 9
)

// Copper Control Register (reg 0) bits.
const (
	ControlReset        = 1 << 15
	ControlAutonegEnable = 1 << 12
	ControlAutonegRestart = 1 << 9
)

// ANAR advertisement bits.
const (
	Adv100FDX = 1 << 8
	Adv100HDX = 1 << 7
	Adv10FDX  = 1 << 6
	Adv10HDX  = 1 << 5
	AdvSelectorIEEE8023 = 0x0001
)

// 1000BASE-T control register bits.
const (
	Adv1000FDX = 1 << 9
	Adv1000HDX = 1 << 8
)

// Speed is the negotiated link speed reported by GetLink.
type Speed int

const (
	Speed10M Speed = iota
	Speed100M
	Speed1G
)

// LinkState is the result of a GetLink poll.
type LinkState struct {
	Up       bool
	Speed    Speed
	FullDuplex bool
}

// Family identifies which vendor-specific configuration routine a detected
// PHY requires.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyMarvellAlaska
	FamilyTIDP83822
)

// Vendor implements the common capability set of spec.md §9:
// {reset, static_cfg, advertise_and_autoneg, get_link, read_int_status}.
// New vendors add a variant satisfying this interface.
type Vendor interface {
	Family() Family
	Reset(t Transport, addr int) error
	StaticConfig(t Transport, addr int) error
	AdvertiseAndAutonegotiate(t Transport, addr int, maxSpeed Speed, advertiseLower, gigabitCapable bool) error
	GetLink(t Transport, addr int) (LinkState, error)
	ReadInterruptStatus(t Transport, addr int) (changed bool, err error)
}

// Driver is the PHY state record of spec.md §3: address, raw ID, and the
// resolved vendor variant.
type Driver struct {
	Transport Transport

	Addr   int
	ID     uint32
	Vendor Vendor
}

// resetPollInterval and resetMaxRetries bound the self-clearing reset poll
// per spec.md §4.2 ("bound by ~10 retries").
const (
	resetPollInterval = 1 * time.Millisecond
	resetMaxRetries   = 10
)

// pollReset polls register reg (the Copper Control Register, or the
// Marvell page-18 General Control Register 1) until its bit-15 reset bit
// self-clears, bounded by resetMaxRetries. Shared by every Vendor
// implementation's Reset/page-switch-reset logic.
func pollReset(t Transport, addr int, reg int) error {
	for i := 0; i < resetMaxRetries; i++ {
		v, err := t.MDIORead(addr, reg)
		if err != nil {
			return err
		}

		if v&ControlReset == 0 {
			return nil
		}

		time.Sleep(resetPollInterval)
	}

	return ErrResetTimeout
}

// Detect probes MDIO addresses 1..31 inclusive, per spec.md §4.2, returning
// the first PHY whose combined ID registers are neither 0 nor 0xFFFFFFFF.
// preferredAddr, if in 0..31, is probed before all other addresses.
// knownVendors resolves the raw ID to a vendor variant; a recognized-but-
// unsupported ID returns ErrUnknownPHY rather than silently degrading the
// instance (SPEC_FULL.md §5's PHY ID table matching).
func Detect(t Transport, preferredAddr int, knownVendors []Vendor, match func(id uint32, v Vendor) bool) (*Driver, error) {
	addrs := make([]int, 0, 32)
	if preferredAddr >= 0 && preferredAddr <= 31 {
		addrs = append(addrs, preferredAddr)
	}
	for a := 1; a <= 31; a++ {
		if a != preferredAddr {
			addrs = append(addrs, a)
		}
	}

	for _, addr := range addrs {
		id1, err := t.MDIORead(addr, RegID1)
		if err != nil {
			continue
		}
		id2, err := t.MDIORead(addr, RegID2)
		if err != nil {
			continue
		}

		id := uint32(id1)<<16 | uint32(id2)
		if id == 0 || id == 0xFFFFFFFF {
			continue
		}

		d := &Driver{Transport: t, Addr: addr, ID: id}

		for _, v := range knownVendors {
			if match(id, v) {
				d.Vendor = v
				return d, nil
			}
		}

		return d, ErrUnknownPHY
	}

	return nil, ErrNoPHY
}

// Reset performs the family-common reset: set bit 15 of the Copper Control
// Register, poll until it self-clears.
func (d *Driver) Reset() error {
	if err := d.Vendor.Reset(d.Transport, d.Addr); err != nil {
		return err
	}
	return nil
}

// AssembleANAR builds the IEEE 802.3 advertisement word for the subset of
// {10H,10F,100H,100F} permitted by maxSpeed and advertiseLower, per
// spec.md §4.2.
func AssembleANAR(maxSpeed Speed, advertiseLower bool) uint16 {
	v := uint16(AdvSelectorIEEE8023)

	switch maxSpeed {
	case Speed10M:
		v |= Adv10HDX | Adv10FDX
	case Speed100M:
		v |= Adv100HDX | Adv100FDX
		if advertiseLower {
			v |= Adv10HDX | Adv10FDX
		}
	case Speed1G:
		v |= Adv100HDX | Adv100FDX
		if advertiseLower {
			v |= Adv10HDX | Adv10FDX
		}
	}

	return v
}

// Assemble1000BaseT builds the 1000BASE-T control register value for
// gigabit-capable PHYs advertising at Speed1G.
func Assemble1000BaseT(maxSpeed Speed) uint16 {
	if maxSpeed != Speed1G {
		return 0
	}
	return Adv1000FDX | Adv1000HDX
}

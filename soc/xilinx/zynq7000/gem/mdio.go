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

	"github.com/usbarmory/tamago-zynq7000/bits"
	"github.com/usbarmory/tamago-zynq7000/internal/reg"
)

// phy_maint (0x34) field layout, constant across read and write operations.
const (
	phyMaintConstBits = 0x40020000
	phyMaintReadOp     = 1 << 29
	phyMaintWriteOp    = 1 << 28
	phyMaintPhyAddrPos = 23
	phyMaintPhyAddrMsk = 0x1f
	phyMaintRegIDPos   = 18
	phyMaintRegIDMsk   = 0x1f
	phyMaintDataPos    = 0
	phyMaintDataMsk    = 0xffff
)

// net_status (0x08) idle bit.
const nwsrMdioIdle = 2

// mdioTimeout bounds the idle-wait per spec.md §4.1 (recommended 10ms).
const mdioTimeout = 10 * time.Millisecond

// MDIORead performs a single-register MDIO read transaction against the PHY
// at phyAddr (0..31), register ra (0..31). The idle-wait is bounded; on
// timeout ErrMdioTimeout is returned and stats.MdioTimeouts is incremented.
func (hw *Device) MDIORead(phyAddr int, ra int) (data uint16, err error) {
	hw.mdio.Lock()
	defer hw.mdio.Unlock()

	if !reg.WaitFor(mdioTimeout, hw.nwsr, nwsrMdioIdle, 1, 1) {
		hw.Stats.incr(&hw.Stats.MdioTimeouts)
		hw.Log.Printf("gem: mdio: idle-wait timeout before read")
		return 0, ErrMdioTimeout
	}

	var frame uint32
	frame = phyMaintConstBits | phyMaintReadOp
	bits.SetN(&frame, phyMaintPhyAddrPos, phyMaintPhyAddrMsk, uint32(phyAddr))
	bits.SetN(&frame, phyMaintRegIDPos, phyMaintRegIDMsk, uint32(ra))

	reg.Write(hw.phyMaint, frame)

	if !reg.WaitFor(mdioTimeout, hw.nwsr, nwsrMdioIdle, 1, 1) {
		hw.Stats.incr(&hw.Stats.MdioTimeouts)
		return 0, ErrMdioTimeout
	}

	return uint16(reg.Read(hw.phyMaint) & phyMaintDataMsk), nil
}

// MDIOWrite performs a single-register MDIO write transaction against the
// PHY at phyAddr (0..31), register ra (0..31).
func (hw *Device) MDIOWrite(phyAddr int, ra int, data uint16) error {
	hw.mdio.Lock()
	defer hw.mdio.Unlock()

	if !reg.WaitFor(mdioTimeout, hw.nwsr, nwsrMdioIdle, 1, 1) {
		hw.Stats.incr(&hw.Stats.MdioTimeouts)
		return ErrMdioTimeout
	}

	var frame uint32
	frame = phyMaintConstBits | phyMaintWriteOp
	bits.SetN(&frame, phyMaintPhyAddrPos, phyMaintPhyAddrMsk, uint32(phyAddr))
	bits.SetN(&frame, phyMaintRegIDPos, phyMaintRegIDMsk, uint32(ra))
	bits.SetN(&frame, phyMaintDataPos, phyMaintDataMsk, uint32(data))

	reg.Write(hw.phyMaint, frame)

	if !reg.WaitFor(mdioTimeout, hw.nwsr, nwsrMdioIdle, 1, 1) {
		hw.Stats.incr(&hw.Stats.MdioTimeouts)
		return ErrMdioTimeout
	}

	return nil
}

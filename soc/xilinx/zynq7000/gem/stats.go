// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gem

import "sync/atomic"

// Stats tracks per-condition counters for conditions that spec.md §7 assigns
// to logging rather than error propagation. Counters are updated with
// sync/atomic since the RX worker, the ISR and board-level introspection
// (see gem/diag) all observe them concurrently.
type Stats struct {
	// RX classification drops (mirrors eth_xlnx_gem_priv.h's per-condition
	// RX status bits and enet.Stats' field names). Of these, only Overrun
	// (counted by the ISR) and MalformedFrame (counted by receive) are
	// incremented: the RX status register is not read, so the others
	// stay zero.
	FrameLengthViolation uint32
	NonOctetAlignedFrame uint32
	CRCOrFrameError      uint32
	Overrun              uint32
	FrameTooSmall        uint32
	FrameTooLarge        uint32
	MalformedFrame       uint32

	// TX controller error bits (hardware sets one of these on the
	// descriptor; §7 ControllerError).
	TxRetryExhausted uint32
	TxUnderrun       uint32
	TxLateCollision  uint32
	TxBuffersExhausted uint32

	// Slow-path conditions.
	MdioTimeouts     uint32
	PhyResetTimeouts uint32
	TxTimeouts       uint32
	LinkTransitions  uint32

	// ControllerErrors counts HRESP-not-OK AHB bus error interrupts
	// (ixrHrespNotOK), a condition distinct from any per-frame/per-BD
	// classification above.
	ControllerErrors uint32
}

func (s *Stats) incr(counter *uint32) {
	atomic.AddUint32(counter, 1)
}

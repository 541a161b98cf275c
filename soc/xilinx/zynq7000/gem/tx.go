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
)

// txTimeout bounds Send's wait for TX completion (spec.md §4.6).
const txTimeout = 1 * time.Second

// Send transmits buf as a single Ethernet frame, segmented across one or
// more TX buffer descriptors according to the ring's configured buffer
// size, per spec.md §4.6's send(buffer_chain) contract.
func (hw *Device) Send(buf []byte) error {
	if len(buf) == 0 {
		return ErrInvalidArgument
	}

	hw.linkMu.Lock()
	up := hw.linkUp
	hw.linkMu.Unlock()

	if !up {
		return ErrLinkDown
	}

	bufSize := hw.tx.bufSize
	n := (len(buf) + bufSize - 1) / bufSize

	start, err := hw.tx.acquireTX(n)
	if err != nil {
		return err
	}

	off := 0
	for i := 0; i < n; i++ {
		idx := hw.tx.index(start + i)
		b := hw.tx.bds[idx]

		end := off + bufSize
		if end > len(buf) {
			end = len(buf)
		}

		frag := hw.tx.bufs[idx][:end-off]
		copy(frag, buf[off:end])

		ctrl := uint32(end - off)
		if b.ctrl()&txbdWrap != 0 {
			ctrl |= txbdWrap
		}
		if i == n-1 {
			ctrl |= txbdLast
		}
		// USED is cleared last (memory barrier against the preceding
		// writes is implicit on this single-core, strongly-ordered
		// MMIO path): once cleared, the MAC may fetch this BD.
		b.setCtrl(ctrl)

		off = end
	}

	v := reg.Read(hw.nwctrl)
	reg.Write(hw.nwctrl, v|nwctrlStartTx)

	select {
	case <-hw.txDone:
	case <-time.After(txTimeout):
		hw.Stats.incr(&hw.Stats.TxTimeouts)
		return ErrTxTimeout
	}

	return nil
}

// completeTX walks the TX ring from next-to-process, reclaiming every BD up
// to and including the first one carrying LAST with USED set by the MAC,
// per spec.md §4.6's completion algorithm. It is invoked by the worker loop
// on a TX_DONE event.
func (hw *Device) completeTX() {
	reclaimed := 0

	hw.tx.Lock()
	idx := hw.tx.nextToProcess
	count := hw.tx.count
	hw.tx.Unlock()

	for i := 0; i < count; i++ {
		b := hw.tx.bds[idx]
		ctrl := b.ctrl()

		if ctrl&txbdUsed == 0 {
			break
		}

		if ctrl&txbdErrMask != 0 {
			hw.recordTXError(ctrl)
		}

		reclaimed++
		last := ctrl&txbdLast != 0

		idx = hw.tx.index(idx + 1)

		if last {
			break
		}
	}

	if reclaimed == 0 {
		return
	}

	hw.tx.releaseTX(reclaimed)

	select {
	case hw.txDone <- struct{}{}:
	default:
	}
}

func (hw *Device) recordTXError(ctrl uint32) {
	switch {
	case ctrl&txbdExhausted != 0:
		hw.Stats.incr(&hw.Stats.TxBuffersExhausted)
	case ctrl&txbdRetry != 0:
		hw.Stats.incr(&hw.Stats.TxRetryExhausted)
	case ctrl&txbdUnderrun != 0:
		hw.Stats.incr(&hw.Stats.TxUnderrun)
	case ctrl&txbdLateCollision != 0:
		hw.Stats.incr(&hw.Stats.TxLateCollision)
	}
}

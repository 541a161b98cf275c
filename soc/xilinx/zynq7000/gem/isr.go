// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gem

import (
	"github.com/usbarmory/tamago-zynq7000/internal/reg"
)

// WorkerEvent is a bitmask of conditions posted from the interrupt handler
// to the worker goroutine, per spec.md §4.9's ISR/worker bridge.
type WorkerEvent uint8

const (
	EventPollPHY WorkerEvent = 1 << iota
	EventRxDone
	EventTxDone
)

// ISR is the interrupt service routine for this GEM instance. It performs
// no allocation: it reads and clears intr_status, classifies the latched
// bits, counts error conditions, and posts a non-blocking event to the
// worker. A full inbox silently drops the post: the corresponding
// completion is still found on the worker's next pass over the BD ring, per
// spec.md §4.9's non-blocking handoff.
func (hw *Device) ISR() {
	status := reg.Read(hw.isr)
	reg.Write(hw.isr, status&ixrHandledMask)

	if status&ixrErrorMask != 0 {
		hw.recordControllerErrors(status)
	}

	var ev WorkerEvent

	if status&(ixrFrameRx|ixrRxUsed|ixrRxOverrun) != 0 {
		ev |= EventRxDone
	}
	if status&(ixrTxComplete|ixrTxUsed|ixrTxUnderrun|ixrRetryExceeded) != 0 {
		ev |= EventTxDone
	}

	if ev == 0 {
		return
	}

	select {
	case hw.inbox <- ev:
	default:
	}
}

func (hw *Device) recordControllerErrors(status uint32) {
	if status&ixrRxOverrun != 0 {
		hw.Stats.incr(&hw.Stats.Overrun)
	}
	if status&ixrHrespNotOK != 0 {
		hw.Stats.incr(&hw.Stats.ControllerErrors)
	}
}

// Run is the worker goroutine body: it drains inbox, dispatching each event
// to the RX reassembly path, the TX completion path or the PHY/link poll,
// until stop is closed. Callers typically launch it with `go hw.Run(stop)`
// after Init.
func (hw *Device) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case ev := <-hw.inbox:
			if ev&EventRxDone != 0 {
				hw.receive()
			}
			if ev&EventTxDone != 0 {
				hw.completeTX()
			}
			if ev&EventPollPHY != 0 {
				if err := hw.pollLink(); err != nil {
					hw.Log.Printf("gem: link poll: %v", err)
				}
			}
		}
	}
}

// PollPHY posts a PollPHY event to the worker, intended to be invoked by a
// periodic 1Hz timer per spec.md §4.8's link-state machine.
func (hw *Device) PollPHY() {
	select {
	case hw.inbox <- EventPollPHY:
	default:
	}
}

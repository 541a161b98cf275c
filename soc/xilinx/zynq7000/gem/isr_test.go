// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gem

import "testing"

func TestRecordControllerErrors(t *testing.T) {
	hw := &Device{}

	hw.recordControllerErrors(ixrRxOverrun)
	if hw.Stats.Overrun != 1 {
		t.Fatalf("Overrun = %d, want 1", hw.Stats.Overrun)
	}
	if hw.Stats.ControllerErrors != 0 {
		t.Fatalf("ControllerErrors = %d, want 0", hw.Stats.ControllerErrors)
	}

	hw.recordControllerErrors(ixrHrespNotOK)
	if hw.Stats.ControllerErrors != 1 {
		t.Fatalf("ControllerErrors = %d, want 1", hw.Stats.ControllerErrors)
	}
}

func TestRunDispatchesRxAndTxDone(t *testing.T) {
	const count = 2
	const bufSize = 16

	rxRegion := make([]byte, count*bdSize)
	rxData := make([]byte, count*bufSize)
	txRegion := make([]byte, count*bdSize)
	txData := make([]byte, count*bufSize)

	hw := &Device{
		rx:     initRing(true, count, bufSize, rxRegion, rxData, 0x6000),
		tx:     initRing(false, count, bufSize, txRegion, txData, 0x7000),
		txDone: make(chan struct{}, 1),
		inbox:  make(chan WorkerEvent, 2),
	}

	// Mark the first TX BD reclaimable, with LAST set, so completeTX
	// finds one reclaim and signals txDone.
	hw.tx.bds[0].setCtrl(txbdUsed | txbdLast | 4)

	// Mark the first RX BD as a complete single-BD frame owned by
	// software, so receive hands one frame to SubmitRX.
	hw.rx.bds[0].setCtrl(rxbdSOF | rxbdEOF | 4)
	hw.rx.bds[0].setAddr(hw.rx.bds[0].addr() | rxbdUsed)
	rxGot := make(chan struct{}, 1)
	hw.SubmitRX = func([]byte) { rxGot <- struct{}{} }

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		hw.Run(stop)
		close(done)
	}()

	hw.inbox <- EventRxDone | EventTxDone

	select {
	case <-rxGot:
	case <-done:
		t.Fatal("worker exited before processing RxDone")
	}

	select {
	case <-hw.txDone:
	case <-done:
		t.Fatal("worker exited before processing TxDone")
	}

	close(stop)
	<-done
}

func TestPollPHYNonBlocking(t *testing.T) {
	hw := &Device{inbox: make(chan WorkerEvent, 1)}

	hw.PollPHY()
	hw.PollPHY() // inbox is full; must not block

	select {
	case ev := <-hw.inbox:
		if ev != EventPollPHY {
			t.Fatalf("event = %v, want EventPollPHY", ev)
		}
	default:
		t.Fatal("expected a queued EventPollPHY")
	}
}

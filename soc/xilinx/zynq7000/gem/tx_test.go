// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gem

import "testing"

func TestRecordTXError(t *testing.T) {
	cases := []struct {
		ctrl uint32
		get  func(*Stats) uint32
	}{
		{txbdExhausted, func(s *Stats) uint32 { return s.TxBuffersExhausted }},
		{txbdRetry, func(s *Stats) uint32 { return s.TxRetryExhausted }},
		{txbdUnderrun, func(s *Stats) uint32 { return s.TxUnderrun }},
		{txbdLateCollision, func(s *Stats) uint32 { return s.TxLateCollision }},
	}

	for _, c := range cases {
		hw := &Device{}
		hw.recordTXError(c.ctrl)

		if got := c.get(&hw.Stats); got != 1 {
			t.Errorf("ctrl=%#x: counter = %d, want 1", c.ctrl, got)
		}
	}
}

func TestSendSegmentation(t *testing.T) {
	const bufSize = 64
	descRegion := make([]byte, 4*bdSize)
	dataRegion := make([]byte, 4*bufSize)

	hw := &Device{
		tx:     initRing(false, 4, bufSize, descRegion, dataRegion, 0),
		txDone: make(chan struct{}, 1),
	}
	hw.linkUp = true

	buf := make([]byte, bufSize*2+10)
	for i := range buf {
		buf[i] = byte(i)
	}

	// Send ends by kicking the MAC through MMIO, which the host cannot
	// reach, so this test does not call it: it repeats Send's segment
	// count and copy loop over acquireTX and checks the copied bytes.
	n := (len(buf) + bufSize - 1) / bufSize
	if n != 3 {
		t.Fatalf("segment count = %d, want 3", n)
	}

	start, err := hw.tx.acquireTX(n)
	if err != nil {
		t.Fatal(err)
	}

	off := 0
	for i := 0; i < n; i++ {
		idx := hw.tx.index(start + i)
		end := off + bufSize
		if end > len(buf) {
			end = len(buf)
		}
		copy(hw.tx.bufs[idx][:end-off], buf[off:end])
		off = end
	}

	if off != len(buf) {
		t.Fatalf("copied %d bytes, want %d", off, len(buf))
	}

	for i := 0; i < 2; i++ {
		got := hw.tx.bufs[i][:bufSize]
		for j := range got {
			if got[j] != buf[i*bufSize+j] {
				t.Fatalf("bd %d byte %d = %d, want %d", i, j, got[j], buf[i*bufSize+j])
			}
		}
	}
}

func TestSendRejectsEmptyAndLinkDown(t *testing.T) {
	hw := &Device{
		tx:     initRing(false, 2, 64, make([]byte, 2*bdSize), make([]byte, 2*64), 0),
		txDone: make(chan struct{}, 1),
	}

	if err := hw.Send(nil); err != ErrInvalidArgument {
		t.Fatalf("Send(nil) = %v, want ErrInvalidArgument", err)
	}

	hw.linkUp = false
	if err := hw.Send([]byte{1, 2, 3}); err != ErrLinkDown {
		t.Fatalf("Send with link down = %v, want ErrLinkDown", err)
	}
}

// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gem

import (
	"bytes"
	"testing"

	gemlog "github.com/usbarmory/tamago-zynq7000/soc/xilinx/zynq7000/gem/internal/log"
)

func TestReceiveReassemblesFrame(t *testing.T) {
	const count = 4
	const bufSize = 16

	descRegion := make([]byte, count*bdSize)
	dataRegion := make([]byte, count*bufSize)

	r := initRing(true, count, bufSize, descRegion, dataRegion, 0x4000)

	payload := []byte("this-spans-two-bds")

	// BD0: SOF, first bufSize bytes.
	copy(r.bufs[0], payload[:bufSize])
	r.bds[0].setCtrl(rxbdSOF | uint32(bufSize))
	addr0 := r.bds[0].addr()
	r.bds[0].setAddr(addr0 | rxbdUsed)

	// BD1: EOF, remaining bytes.
	rest := payload[bufSize:]
	copy(r.bufs[1], rest)
	r.bds[1].setCtrl(rxbdEOF | uint32(len(rest)))
	addr1 := r.bds[1].addr()
	r.bds[1].setAddr(addr1 | rxbdUsed)

	var got []byte
	hw := &Device{
		rx: r,
		SubmitRX: func(frame []byte) {
			got = append([]byte(nil), frame...)
		},
	}

	hw.receive()

	if !bytes.Equal(got, payload) {
		t.Fatalf("reassembled frame = %q, want %q", got, payload)
	}

	if r.bds[0].addr()&rxbdUsed != 0 {
		t.Fatal("bd 0 USED should be cleared after processing")
	}
	if r.bds[1].addr()&rxbdUsed != 0 {
		t.Fatal("bd 1 USED should be cleared after processing")
	}
	if r.nextToProcess != 2 {
		t.Fatalf("nextToProcess = %d, want 2", r.nextToProcess)
	}
}

func TestReceiveDropsDoubleSOF(t *testing.T) {
	const count = 3
	const bufSize = 16

	descRegion := make([]byte, count*bdSize)
	dataRegion := make([]byte, count*bufSize)
	r := initRing(true, count, bufSize, descRegion, dataRegion, 0x5000)

	r.bds[0].setCtrl(rxbdSOF | 4)
	r.bds[0].setAddr(r.bds[0].addr() | rxbdUsed)

	// Second SOF arrives before the first frame's EOF.
	r.bds[1].setCtrl(rxbdSOF | rxbdEOF | 4)
	r.bds[1].setAddr(r.bds[1].addr() | rxbdUsed)

	hw := &Device{rx: r, Log: gemlog.Discard{}}
	hw.receive()

	if hw.Stats.MalformedFrame != 1 {
		t.Fatalf("MalformedFrame = %d, want 1", hw.Stats.MalformedFrame)
	}
}

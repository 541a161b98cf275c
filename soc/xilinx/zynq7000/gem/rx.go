// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gem

// receive walks the RX ring from next-to-process, reassembling every
// complete frame (a run of BDs from SOF to EOF) it finds owned by software
// (USED set in the address word), per spec.md §4.7. Each reassembled frame
// is handed to SubmitRX, if set; BDs are returned to the MAC as they are
// consumed.
func (hw *Device) receive() {
	hw.rx.Lock()
	idx := hw.rx.nextToProcess
	count := hw.rx.count
	hw.rx.Unlock()

	var frame []byte
	inFrame := false

	for i := 0; i < count; i++ {
		b := hw.rx.bds[idx]
		addr := b.addr()

		if addr&rxbdUsed == 0 {
			// Not yet written by the MAC: nothing more to process
			// this pass.
			break
		}

		ctrl := b.ctrl()

		if ctrl&rxbdSOF != 0 {
			if inFrame {
				// A new SOF before the previous frame's EOF:
				// the in-progress fragment is malformed and
				// discarded (spec.md §4.7 edge case).
				hw.Stats.incr(&hw.Stats.MalformedFrame)
				hw.Log.Printf("gem: rx: SOF without preceding EOF, dropping fragment")
			}
			frame = frame[:0]
			inFrame = true
		}

		if inFrame {
			length := int(ctrl & rxbdLengthMask)
			frame = append(frame, hw.rx.bufs[idx][:length]...)
		}

		if ctrl&rxbdEOF != 0 && inFrame {
			if hw.SubmitRX != nil {
				out := make([]byte, len(frame))
				copy(out, frame)
				hw.SubmitRX(out)
			}
			inFrame = false
			frame = frame[:0]
		}

		// Return the BD to the MAC: clear USED, preserving WRAP.
		wrap := addr & rxbdWrap
		b.setAddr((addr &^ (rxbdUsed | rxbdWrap)) | wrap)
		b.setCtrl(0)

		idx = hw.rx.index(idx + 1)
	}

	hw.rx.Lock()
	hw.rx.nextToProcess = idx
	hw.rx.Unlock()
}

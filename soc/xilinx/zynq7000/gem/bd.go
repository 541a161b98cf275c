// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gem

import (
	"encoding/binary"
	"sync"
)

// RX buffer descriptor bits, address word (Zynq-7000 TRM Table 16-2).
const (
	rxbdWrap       = 1 << 1
	rxbdUsed       = 1 << 0
	rxbdAddrMask   = 0xfffffffc
)

// RX buffer descriptor bits, control word.
const (
	rxbdEOF        = 1 << 15
	rxbdSOF        = 1 << 14
	rxbdLengthMask = 0x1fff
)

// TX buffer descriptor bits, control word (Zynq-7000 TRM Table 16-3).
const (
	txbdUsed    = 1 << 31
	txbdWrap    = 1 << 30
	txbdRetry   = 1 << 29
	txbdUnderrun = 1 << 28
	txbdExhausted = 1 << 27
	txbdLateCollision = 1 << 26
	txbdErrMask = txbdRetry | txbdUnderrun | txbdExhausted | txbdLateCollision
	txbdLast    = 1 << 15
	txbdLenMask = 0x3fff
)

const bdSize = 8 // two 32-bit words: addr, ctrl

// bd is a memory-mapped view of a single buffer descriptor's two words,
// backed by DMA-region bytes shared with the MAC.
type bd struct {
	raw []byte // 8 bytes, little-endian: word0 (addr), word1 (ctrl)
}

func (b *bd) addr() uint32 { return binary.LittleEndian.Uint32(b.raw[0:4]) }
func (b *bd) ctrl() uint32 { return binary.LittleEndian.Uint32(b.raw[4:8]) }

func (b *bd) setAddr(v uint32) { binary.LittleEndian.PutUint32(b.raw[0:4], v) }
func (b *bd) setCtrl(v uint32) { binary.LittleEndian.PutUint32(b.raw[4:8], v) }

// ring is the BD ring manager of spec.md §4.5 / §3. Indexing is modulo
// count; the WRAP flag sits on exactly one BD at index count-1, whose
// physical position never moves.
type ring struct {
	sync.Mutex

	bds  []*bd
	bufs [][]byte // per-BD DMA buffer slice

	count         int
	bufSize       int
	nextToUse     int
	nextToProcess int
	freeCount     int

	rx bool // true for an RX ring, false for TX
}

// initRing lays out count buffer descriptors over the DMA-backed desc and
// data regions, following spec.md §4.5's initialization algorithm: on RX,
// every BD starts with ctrl=0 and USED clear (MAC-owned); on TX every BD
// starts USED set (software-owned, i.e. "idle"). Exactly the terminal BD
// carries WRAP.
func initRing(rx bool, count int, bufSize int, descRegion, dataRegion []byte, bufBase uint32) *ring {
	r := &ring{
		bds:       make([]*bd, count),
		bufs:      make([][]byte, count),
		count:     count,
		bufSize:   bufSize,
		rx:        rx,
		freeCount: count,
	}

	for i := 0; i < count; i++ {
		b := &bd{raw: descRegion[i*bdSize : i*bdSize+bdSize]}
		off := i * bufSize
		r.bufs[i] = dataRegion[off : off+bufSize]

		addr := bufBase + uint32(off)

		if rx {
			a := addr &^ 0x3
			if i == count-1 {
				a |= rxbdWrap
			}
			b.setAddr(a)
			b.setCtrl(0)
		} else {
			b.setAddr(addr)
			ctrl := uint32(txbdUsed)
			if i == count-1 {
				ctrl |= txbdWrap
			}
			b.setCtrl(ctrl)
		}

		r.bds[i] = b
	}

	return r
}

// acquireTX implements spec.md §4.5's take(n): it fails with
// ErrNoBufferSpace if fewer than n TX BDs are free, else reserves n BDs
// starting at the current next-to-use index and advances the cursor.
func (r *ring) acquireTX(n int) (start int, err error) {
	r.Lock()
	defer r.Unlock()

	if n > r.freeCount {
		return 0, ErrNoBufferSpace
	}

	start = r.nextToUse
	r.nextToUse = (r.nextToUse + n) % r.count
	r.freeCount -= n

	return start, nil
}

// releaseTX returns n BDs to the free pool, advancing next-to-process. Used
// by the TX-done completion path (spec.md §4.6).
func (r *ring) releaseTX(n int) {
	r.Lock()
	defer r.Unlock()

	r.nextToProcess = (r.nextToProcess + n) % r.count
	r.freeCount += n
}

func (r *ring) index(i int) int {
	return i % r.count
}

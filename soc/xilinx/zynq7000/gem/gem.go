// Package gem implements a driver for the Xilinx Zynq-7000 Gigabit Ethernet
// MAC (GEM), including its MDIO-based PHY management layer.
//
// The driver is based on the Zynq-7000 Technical Reference Manual chapter
// 16 (Gigabit Ethernet Controller) and is structured around a DMA buffer
// descriptor ring, an interrupt-driven worker task and a PHY-driven
// link-state machine.
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
package gem

import (
	"net"
	"sync"

	"golang.org/x/time/rate"

	"github.com/usbarmory/tamago-zynq7000/dma"
	"github.com/usbarmory/tamago-zynq7000/internal/reg"
	gemlog "github.com/usbarmory/tamago-zynq7000/soc/xilinx/zynq7000/gem/internal/log"
	"github.com/usbarmory/tamago-zynq7000/soc/xilinx/zynq7000/gem/phy"
	"github.com/usbarmory/tamago-zynq7000/soc/xilinx/zynq7000/gem/slcr"
)

// GEM register offsets from controller base (Zynq-7000 TRM chapter 16,
// Register Summary).
const (
	nwctrlOffset    = 0x00
	nwcfgOffset     = 0x04
	nwsrOffset      = 0x08
	dmacrOffset     = 0x10
	txsrOffset      = 0x14
	rxqbaseOffset   = 0x18
	txqbaseOffset   = 0x1c
	rxsrOffset      = 0x20
	isrOffset       = 0x24
	ierOffset       = 0x28
	idrOffset       = 0x2c
	imrOffset       = 0x30
	phyMaintOffset  = 0x34
	hashBotOffset   = 0x80
	hashTopOffset   = 0x84
	laddr1LoOffset  = 0x88
	laddr1HiOffset  = 0x8c
	laddr2LoOffset  = 0x90
	laddr2HiOffset  = 0x94
	laddr3LoOffset  = 0x98
	laddr3HiOffset  = 0x9c
	laddr4LoOffset  = 0xa0
	laddr4HiOffset  = 0xa4
)

// net_ctrl bits.
const (
	nwctrlLoopback = 1 << 1
	nwctrlRxEn     = 1 << 2
	nwctrlTxEn     = 1 << 3
	nwctrlMDEn     = 1 << 4
	nwctrlStatClr  = 1 << 5
	nwctrlStartTx  = 1 << 9
)

// net_cfg bits and fields.
const (
	nwcfgSpeed100      = 1 << 0
	nwcfgFullDuplex    = 1 << 1
	nwcfgNoVLANDiscard = 1 << 2
	nwcfgCopyAll       = 1 << 4
	nwcfgBcastDisable  = 1 << 5
	nwcfgMcastHashEn   = 1 << 6
	nwcfgUcastHashEn   = 1 << 7
	nwcfg1536RxEn      = 1 << 8
	nwcfgExtAddrMatch  = 1 << 9
	nwcfgSpeed1000     = 1 << 10
	nwcfgTBI           = 1 << 11
	nwcfgRetryTestEn   = 1 << 12
	nwcfgPauseEn       = 1 << 13
	nwcfgRxOffsetPos   = 14
	nwcfgRxOffsetMsk   = 0x3
	nwcfgLengthErrDiscard = 1 << 16
	nwcfgFCSRemove     = 1 << 17
	nwcfgMDCPos        = 18
	nwcfgMDCMsk        = 0x7
	nwcfgDBusWidthPos  = 21
	nwcfgDBusWidthMsk  = 0x3
	nwcfgPauseCopyDisable = 1 << 23
	nwcfgRxChecksumEn  = 1 << 24
	nwcfgHalfDuplexRx  = 1 << 25
	nwcfgFCSIgnore     = 1 << 26
	nwcfgSGMIIEn       = 1 << 27
	nwcfgIPGStretch    = 1 << 28
	nwcfgBadPreambleEn = 1 << 29
	nwcfgIgnoreIPGRxErr = 1 << 30
)

// dma_cfg bits and fields.
const (
	dmacrAHBBurstMsk    = 0x1f
	dmacrDescEndian     = 1 << 6
	dmacrEndian         = 1 << 7
	dmacrRxBufSizeShift = 8
	dmacrRxBufSizeMsk   = 0x3
	dmacrTxSizeFull     = 1 << 10
	dmacrTCPChecksum    = 1 << 11
	dmacrRxBufferShift  = 16
	dmacrRxBufferMsk    = 0xff
	dmacrDiscardOnAHBBusy = 1 << 24
)

// intr_* bits (IXR, shared shape across status/enable/disable/mask).
const (
	ixrMgmtDone    = 1 << 0
	ixrFrameRx     = 1 << 1
	ixrRxUsed      = 1 << 2
	ixrTxUsed      = 1 << 3
	ixrTxUnderrun  = 1 << 4
	ixrRetryExceeded = 1 << 5
	ixrTxComplete  = 1 << 7
	ixrRxOverrun   = 1 << 10
	ixrHrespNotOK  = 1 << 11

	// ixrHandledMask is the set of interrupt sources start enables and the
	// ISR acknowledges (§4.9, §9 Open Question on the 0x00000C60 error
	// mask). The ISR forwards the RX and TX bits to the worker as
	// EventRxDone/EventTxDone and counts RxOverrun and HrespNotOK in
	// Stats; it logs nothing, and MgmtDone is only acknowledged.
	ixrHandledMask = ixrMgmtDone | ixrFrameRx | ixrRxUsed | ixrTxUsed |
		ixrTxUnderrun | ixrRetryExceeded | ixrTxComplete | ixrRxOverrun | ixrHrespNotOK
	ixrErrorMask = ixrRxUsed | ixrTxUsed | ixrTxUnderrun | ixrRetryExceeded | ixrRxOverrun | ixrHrespNotOK
)

// LinkSpeed enumerates the three speeds the GEM supports in this driver's
// scope (SGMII/TBI serdes speeds are a spec.md Non-goal).
type LinkSpeed int

const (
	Speed10M LinkSpeed = iota
	Speed100M
	Speed1G
)

// BusWidth is the AMBA data bus width option.
type BusWidth int

const (
	BusWidth32 BusWidth = 32
	BusWidth64 BusWidth = 64
	BusWidth128 BusWidth = 128
)

// Config is the immutable configuration record of spec.md §3. It is frozen
// once passed to Open; no field may be mutated afterwards.
type Config struct {
	Index int // 0 or 1, selects GEM0/GEM1 base address and SLCR clock registers

	MAC net.HardwareAddr

	MaxLinkSpeed   LinkSpeed
	AdvertiseLower bool
	InitPHY        bool
	PHYAddress     int // -1 to auto-detect (spec.md §4.2)

	AmbaBusWidth BusWidth
	AHBBurst     int // 1, 4, 8 or 16

	HWRxFIFOSizeKB int // 1, 2, 4 or 8
	HWRxOffset     int // 0..3
	AHBRxBufferUnits int // buffer size in units of 64 bytes

	RxBDCount, TxBDCount     int
	RxBufferSize, TxBufferSize int // rounded up to 4-byte alignment by NewConfig

	// Additional hardware address-match filters beyond the primary MAC
	// address (original_source's spec_addr2..4; see SPEC_FULL.md §5).
	ExtraAddresses []net.HardwareAddr

	// Feature flags, each a direct NWCFG/DMACR bit (spec.md §3).
	IgnoreIPGRxError     bool
	AcceptBadPreamble    bool
	StretchIPG           bool
	SGMII                bool
	AcceptFCSErrors      bool
	HalfDuplexWhileTx    bool
	RxChecksumOffload    bool
	TxChecksumOffload    bool
	PauseCopyDisable     bool
	PauseEnable          bool
	DiscardFCS           bool
	DiscardLengthErrors  bool
	TBI                  bool
	ExtAddrMatch         bool
	Frames1536           bool
	UnicastHash          bool
	MulticastHash        bool
	RejectBroadcast      bool
	Promiscuous          bool
	VLANOnly             bool
	DiscardNonVLAN       bool
	FullDuplex           bool
	DiscardOnAHBBusy     bool
	TxBufferFull         bool
	AHBPacketSwapEndian  bool
	AHBDescriptorSwapEndian bool

	// Clock selector inputs (C3, spec.md §4.3).
	RefPLL   slcr.RefPLL
	PLLMultiplier int
	ClockSource   slcr.ClockSource
	StaticDiv0, StaticDiv1 int // 0 selects automatic search

	// Cpu1xClockHz is the CPU_1x clock frequency used to compute the MDC
	// divisor (spec.md §4.4).
	Cpu1xClockHz uint32
}

// NewConfig validates cfg and returns a frozen copy. Construction rejects
// the VLAN-only / non-VLAN-discard ambiguity per spec.md §9's Open Question.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.VLANOnly && cfg.DiscardNonVLAN {
		// spec.md §9: "Non-VLAN discard" and "VLAN-only" share the same
		// NWCFG bit with opposing intent; asserting both is ambiguous.
		return nil, ErrInvalidArgument
	}
	if len(cfg.MAC) != 6 {
		return nil, ErrInvalidArgument
	}
	if cfg.RxBDCount < 2 || cfg.TxBDCount < 2 {
		return nil, ErrInvalidArgument
	}
	if len(cfg.ExtraAddresses) > 3 {
		return nil, ErrInvalidArgument
	}
	for _, a := range cfg.ExtraAddresses {
		if len(a) != 6 {
			return nil, ErrInvalidArgument
		}
	}

	cfg.RxBufferSize = roundUp4(cfg.RxBufferSize)
	cfg.TxBufferSize = roundUp4(cfg.TxBufferSize)

	c := cfg
	return &c, nil
}

func roundUp4(n int) int {
	return (n + 3) &^ 3
}

// Device represents one Gigabit Ethernet MAC instance (spec.md §3 "Device
// instance"). One Device owns one RX ring, one TX ring and, if
// Config.InitPHY is set, one PHY driver instance.
type Device struct {
	Config *Config

	Base uint32
	Stats Stats

	// Log receives every logged-and-ignored slow-path condition (spec.md
	// §7); it defaults to gemlog.Default in Open. The ISR never uses it.
	Log gemlog.Logger

	nwctrl, nwcfg, nwsr, dmacr, txsr, rxqbase, txqbase, rxsr uint32
	isr, ier, idr, imr, phyMaint uint32
	hashBot, hashTop uint32
	laddrLo, laddrHi [4]uint32

	mdio sync.Mutex

	rx, tx *ring
	txDone chan struct{}

	inbox chan WorkerEvent

	linkMu sync.Mutex
	link   LinkSpeed
	linkUp bool

	// phyPollLimiter bounds how often pollLink actually issues MDIO
	// transactions in response to EventPollPHY, protecting the MDIO bus
	// from a PHY stuck asserting its interrupt status bit.
	phyPollLimiter *rate.Limiter

	PHY *phy.Driver

	region *dma.Region

	// OnCarrier, if set, is invoked from worker context on every
	// carrier_on/carrier_off transition, implementing the upstream
	// capability interface of spec.md §6.
	OnCarrier func(up bool, speed LinkSpeed)

	// SubmitRX, if set, receives reassembled frames from the RX worker
	// loop (spec.md §6's submit_rx_packet). The default (nil) drops
	// frames, which is valid for a Device used purely as a loopback
	// self-test target.
	SubmitRX func([]byte)
}

// Open constructs a Device for the given configuration and DMA region, but
// performs no register access (see Init). The DMA region backs both BD
// rings and their data buffers, arena+index style: addresses are derived
// from (region base, index, stride).
func Open(cfg *Config, base uint32, region *dma.Region) (*Device, error) {
	if base == 0 {
		return nil, ErrInvalidArgument
	}

	hw := &Device{
		Config: cfg,
		Base:   base,
		region: region,
		Log:    gemlog.Default,

		nwctrl:   base + nwctrlOffset,
		nwcfg:    base + nwcfgOffset,
		nwsr:     base + nwsrOffset,
		dmacr:    base + dmacrOffset,
		txsr:     base + txsrOffset,
		rxqbase:  base + rxqbaseOffset,
		txqbase:  base + txqbaseOffset,
		rxsr:     base + rxsrOffset,
		isr:      base + isrOffset,
		ier:      base + ierOffset,
		idr:      base + idrOffset,
		imr:      base + imrOffset,
		phyMaint: base + phyMaintOffset,
		hashBot:  base + hashBotOffset,
		hashTop:  base + hashTopOffset,

		txDone: make(chan struct{}, 1),
		inbox:  make(chan WorkerEvent, 8),

		phyPollLimiter: rate.NewLimiter(rate.Every(phyPollMinInterval), 1),
	}

	hw.laddrLo = [4]uint32{base + laddr1LoOffset, base + laddr2LoOffset, base + laddr3LoOffset, base + laddr4LoOffset}
	hw.laddrHi = [4]uint32{base + laddr1HiOffset, base + laddr2HiOffset, base + laddr3HiOffset, base + laddr4HiOffset}

	return hw, nil
}

// reset implements spec.md §4.4's reset sequence.
func (hw *Device) reset() {
	reg.Write(hw.nwctrl, 0)
	reg.Set(hw.nwctrl, 5) // STATCLR: clear statistics counters
	reg.Write(hw.txsr, 0xff)
	reg.Write(hw.rxsr, 0x0f)
	reg.Write(hw.idr, 0xffffffff)
	reg.Read(hw.isr) // write-1-to-clear is implicit on read for some latched bits; also drains any stale status
	reg.Write(hw.isr, 0xffffffff)
	reg.Write(hw.rxqbase, 0)
	reg.Write(hw.txqbase, 0)
}

// mdcDivisor computes the MDC clock divisor field from the CPU_1x clock,
// per spec.md §4.4's threshold table.
func mdcDivisor(cpu1x uint32) uint32 {
	switch {
	case cpu1x < 20_000_000:
		return 0 // /8
	case cpu1x < 40_000_000:
		return 1 // /16
	case cpu1x < 80_000_000:
		return 2 // /32
	case cpu1x < 120_000_000:
		return 3 // /48
	case cpu1x < 160_000_000:
		return 4 // /64
	case cpu1x < 240_000_000:
		return 5 // /96
	case cpu1x < 320_000_000:
		return 6 // /128
	default:
		return 7 // /224
	}
}

// assembleNWCFG computes the full net_cfg register value from the
// configuration record and the currently negotiated link speed, per
// spec.md §4.4.
func assembleNWCFG(cfg *Config, speed LinkSpeed) uint32 {
	var v uint32

	switch speed {
	case Speed100M:
		v |= nwcfgSpeed100
	case Speed1G:
		v |= nwcfgSpeed1000
	}

	if cfg.FullDuplex {
		v |= nwcfgFullDuplex
	}
	if cfg.VLANOnly || cfg.DiscardNonVLAN {
		// Both options resolve to the same NWCFG bit (receive VLAN-tagged
		// frames only); NewConfig rejects configurations asserting both,
		// per spec.md §9's Open Question.
		v |= nwcfgNoVLANDiscard
	}
	if cfg.Promiscuous {
		v |= nwcfgCopyAll
	}
	if cfg.RejectBroadcast {
		v |= nwcfgBcastDisable
	}
	if cfg.MulticastHash {
		v |= nwcfgMcastHashEn
	}
	if cfg.UnicastHash {
		v |= nwcfgUcastHashEn
	}
	if cfg.Frames1536 {
		v |= nwcfg1536RxEn
	}
	if cfg.ExtAddrMatch {
		v |= nwcfgExtAddrMatch
	}
	if cfg.TBI {
		v |= nwcfgTBI
	}
	if cfg.PauseEnable {
		v |= nwcfgPauseEn
	}
	v |= uint32(cfg.HWRxOffset&nwcfgRxOffsetMsk) << nwcfgRxOffsetPos
	if cfg.DiscardLengthErrors {
		v |= nwcfgLengthErrDiscard
	}
	if cfg.DiscardFCS {
		v |= nwcfgFCSRemove
	}
	v |= mdcDivisor(cfg.Cpu1xClockHz) << nwcfgMDCPos
	v |= busWidthField(cfg.AmbaBusWidth) << nwcfgDBusWidthPos
	if cfg.PauseCopyDisable {
		v |= nwcfgPauseCopyDisable
	}
	if cfg.RxChecksumOffload {
		v |= nwcfgRxChecksumEn
	}
	if cfg.HalfDuplexWhileTx {
		v |= nwcfgHalfDuplexRx
	}
	if cfg.AcceptFCSErrors {
		v |= nwcfgFCSIgnore
	}
	if cfg.SGMII {
		v |= nwcfgSGMIIEn
	}
	if cfg.StretchIPG {
		v |= nwcfgIPGStretch
	}
	if cfg.AcceptBadPreamble {
		v |= nwcfgBadPreambleEn
	}
	if cfg.IgnoreIPGRxError {
		v |= nwcfgIgnoreIPGRxErr
	}

	return v
}

func busWidthField(w BusWidth) uint32 {
	switch w {
	case BusWidth64:
		return 1
	case BusWidth128:
		return 2
	default:
		return 0
	}
}

// assembleDMACR computes the dma_cfg register, per the register map in
// original_source/eth_xlnx_gem_priv.h (supplementing spec.md §4.4, which
// names NWCFG assembly explicitly but treats DMACR as "MAC register
// layer" scope too).
func assembleDMACR(cfg *Config) uint32 {
	var v uint32

	v |= uint32(cfg.AHBBurst) & dmacrAHBBurstMsk
	if cfg.AHBDescriptorSwapEndian {
		v |= dmacrDescEndian
	}
	if cfg.AHBPacketSwapEndian {
		v |= dmacrEndian
	}
	v |= rxFIFOSizeField(cfg.HWRxFIFOSizeKB) << dmacrRxBufSizeShift
	if cfg.TxBufferFull {
		v |= dmacrTxSizeFull
	}
	if cfg.TxChecksumOffload {
		v |= dmacrTCPChecksum
	}
	v |= uint32(cfg.AHBRxBufferUnits&dmacrRxBufferMsk) << dmacrRxBufferShift
	if cfg.DiscardOnAHBBusy {
		v |= dmacrDiscardOnAHBBusy
	}

	return v
}

func rxFIFOSizeField(kb int) uint32 {
	switch kb {
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	default:
		return 0
	}
}

// SetMAC programs the primary hardware address-match register pair.
// Byte order is significant: per spec.md §9's Open Question resolution,
// b[0] is the first byte transmitted on the wire, so
// addr_bot = b[0] | b[1]<<8 | b[2]<<16 | b[3]<<24 and addr_top = b[4] | b[5]<<8.
func (hw *Device) SetMAC(mac net.HardwareAddr) error {
	return hw.setAddress(0, mac)
}

// SetExtraAddress programs one of the three supplementary address-match
// registers (index 0..2, i.e. spec_addr2..4; SPEC_FULL.md §5).
func (hw *Device) SetExtraAddress(index int, mac net.HardwareAddr) error {
	if index < 0 || index > 2 {
		return ErrInvalidArgument
	}
	return hw.setAddress(index+1, mac)
}

func (hw *Device) setAddress(slot int, mac net.HardwareAddr) error {
	if len(mac) != 6 {
		return ErrInvalidArgument
	}

	bot := uint32(mac[0]) | uint32(mac[1])<<8 | uint32(mac[2])<<16 | uint32(mac[3])<<24
	top := uint32(mac[4]) | uint32(mac[5])<<8

	reg.Write(hw.laddrLo[slot], bot)
	reg.Write(hw.laddrHi[slot], top)

	return nil
}

// SetPromiscuous toggles promiscuous mode at runtime (SPEC_FULL.md §5);
// unlike the rest of Config, this NWCFG bit is explicitly runtime-mutable
// in the original driver.
func (hw *Device) SetPromiscuous(on bool) {
	hw.setNWCFGBit(nwcfgCopyAll, on)
}

// SetMulticastHash toggles multicast hash-match reception at runtime
// (SPEC_FULL.md §5).
func (hw *Device) SetMulticastHash(on bool) {
	hw.setNWCFGBit(nwcfgMcastHashEn, on)
}

// SetMulticastHashValue programs the 64-bit hash_bot/hash_top register pair
// used by the hash-match filter SetMulticastHash enables, per
// original_source's hash register layout (SPEC_FULL.md §5).
func (hw *Device) SetMulticastHashValue(hash uint64) {
	reg.Write(hw.hashBot, uint32(hash))
	reg.Write(hw.hashTop, uint32(hash>>32))
}

func (hw *Device) setNWCFGBit(mask uint32, on bool) {
	v := reg.Read(hw.nwcfg)
	if on {
		v |= mask
	} else {
		v &^= mask
	}
	reg.Write(hw.nwcfg, v)
}

// Loopback enables or disables the MAC's internal loopback mode
// (SPEC_FULL.md §5, from original_source's self-test support), useful for
// exercising the BD ring and data path without a live link partner.
func (hw *Device) Loopback(on bool) {
	if on {
		reg.Set(hw.nwctrl, 1)
	} else {
		reg.Clear(hw.nwctrl, 1)
	}
}

// start implements spec.md §4.4's start sequence: disable all interrupts,
// enable RX/TX, then enable the handled interrupt set.
func (hw *Device) start() {
	reg.Write(hw.idr, 0xffffffff)

	v := reg.Read(hw.nwctrl)
	v |= nwctrlRxEn | nwctrlTxEn
	reg.Write(hw.nwctrl, v)

	reg.Write(hw.ier, ixrHandledMask)
}

// stop implements spec.md §4.4's stop sequence: clear RX/TX enable, disable
// and clear all interrupts. Used both at shutdown and around link-speed
// changes (§4.8).
func (hw *Device) stop() {
	v := reg.Read(hw.nwctrl)
	v &^= nwctrlRxEn | nwctrlTxEn
	reg.Write(hw.nwctrl, v)

	reg.Write(hw.idr, 0xffffffff)
	reg.Write(hw.isr, 0xffffffff)
}

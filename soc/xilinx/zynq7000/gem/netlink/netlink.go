// Package netlink adapts a Zynq-7000 GEM device to the gVisor network
// stack's link endpoint interface, playing the role that
// imx6/usb/ethernet's CDC-ECM NIC plays for Ethernet over USB: a
// channel.Endpoint sits between the MAC's RX/TX path and the upstream
// tcpip.Stack, so the GEM driver never holds a reference back into
// gVisor's packet types outside of this package.
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
package netlink

import (
	"encoding/binary"
	"errors"
	"net"

	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/buffer"
	"gvisor.dev/gvisor/pkg/tcpip/link/channel"
	"gvisor.dev/gvisor/pkg/tcpip/stack"

	"github.com/usbarmory/tamago-zynq7000/soc/xilinx/zynq7000/gem"
)

// defaultQueueLen bounds the number of outbound packets gVisor buffers in
// the channel endpoint before WritePacket blocks the stack's route.
const defaultQueueLen = 256

// NIC binds a gem.Device to a gVisor channel endpoint, implementing the
// upstream capability interface of spec.md §6
// (allocate_rx_packet/submit_rx_packet/carrier_on/carrier_off/
// set_link_addr) in terms of gVisor's InjectInbound/Read primitives.
type NIC struct {
	// Host is the peer MAC address placed in the Ethernet source field
	// of frames synthesized from outbound gVisor packets (mirrors
	// cdc_ecm.NIC.Host/Device).
	Host net.HardwareAddr

	// Device is this interface's own MAC address.
	Device net.HardwareAddr

	// Link is the gVisor channel endpoint; nil is replaced with a
	// freshly created one of defaultQueueLen by Init.
	Link *channel.Endpoint

	// OnCarrier, if set, is invoked on every carrier_on/carrier_off
	// transition reported by the underlying device (spec.md §6).
	OnCarrier func(up bool, speed gem.LinkSpeed)

	hw *gem.Device
}

// Init wires hw's RX and carrier callbacks to the channel endpoint and
// starts the TX pump, one goroutine draining the channel's outbound queue
// into hw.Send. It must be called after hw.Init.
func (n *NIC) Init(hw *gem.Device) error {
	if hw == nil {
		return errors.New("netlink: missing device")
	}
	if len(n.Host) != 6 || len(n.Device) != 6 {
		return errors.New("netlink: invalid MAC address")
	}

	n.hw = hw

	if n.Link == nil {
		n.Link = channel.New(defaultQueueLen, uint32(hw.Config.RxBufferSize), tcpip.LinkAddress(n.Device))
	}

	hw.SubmitRX = n.submitRX
	hw.OnCarrier = n.onCarrier

	go n.txPump()

	return nil
}

// submitRX implements spec.md §6's submit_rx_packet: it parses the
// Ethernet header off of a reassembled frame and injects the payload into
// the channel endpoint, mirroring cdc_ecm.NIC.ECMRx's framing.
func (n *NIC) submitRX(frame []byte) {
	if len(frame) < 14 {
		return
	}

	hdr := buffer.NewViewFromBytes(frame[0:14])
	proto := tcpip.NetworkProtocolNumber(binary.BigEndian.Uint16(frame[12:14]))
	payload := buffer.NewViewFromBytes(frame[14:])

	pkt := &stack.PacketBuffer{
		LinkHeader: hdr,
		Data:       payload.ToVectorisedView(),
	}

	n.Link.InjectInbound(proto, pkt)
}

// txPump drains gVisor's outbound queue, reassembles an Ethernet frame per
// packet and hands it to hw.Send, mirroring cdc_ecm.NIC.ECMTx's framing.
// One frame is dropped, not retried, on ErrLinkDown: the upstream stack
// will retransmit at the transport layer if needed.
func (n *NIC) txPump() {
	for {
		info, valid := n.Link.Read()
		if !valid {
			return
		}

		hdr := info.Pkt.Header.View()
		payload := info.Pkt.Data.ToView()

		proto := make([]byte, 2)
		binary.BigEndian.PutUint16(proto, uint16(info.Proto))

		frame := make([]byte, 0, 14+len(hdr)+len(payload))
		frame = append(frame, n.Device...)
		frame = append(frame, n.Host...)
		frame = append(frame, proto...)
		frame = append(frame, hdr...)
		frame = append(frame, payload...)

		n.hw.Send(frame)
	}
}

// onCarrier implements carrier_on/carrier_off (spec.md §6), forwarding the
// transition to n.OnCarrier if the embedding application set one.
func (n *NIC) onCarrier(up bool, speed gem.LinkSpeed) {
	if n.OnCarrier != nil {
		n.OnCarrier(up, speed)
	}
}

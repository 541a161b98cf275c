// Package netlink adapts a Zynq-7000 GEM device to the gVisor network stack.
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package netlink

import (
	"net"
	"testing"

	"github.com/usbarmory/tamago-zynq7000/soc/xilinx/zynq7000/gem"
)

func TestInitRejectsMissingDevice(t *testing.T) {
	n := &NIC{Host: net.HardwareAddr{1, 2, 3, 4, 5, 6}, Device: net.HardwareAddr{1, 2, 3, 4, 5, 7}}

	if err := n.Init(nil); err == nil {
		t.Fatal("expected an error for a nil device")
	}
}

func TestInitRejectsBadMACLengths(t *testing.T) {
	hw, err := gem.Open(&gem.Config{}, 1, nil)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		host, device net.HardwareAddr
	}{
		{nil, net.HardwareAddr{1, 2, 3, 4, 5, 6}},
		{net.HardwareAddr{1, 2, 3, 4, 5, 6}, nil},
		{net.HardwareAddr{1, 2, 3}, net.HardwareAddr{1, 2, 3, 4, 5, 6}},
	}

	for _, c := range cases {
		n := &NIC{Host: c.host, Device: c.device}
		if err := n.Init(hw); err == nil {
			t.Fatalf("Init(Host=%v, Device=%v) expected an error", c.host, c.device)
		}
	}
}

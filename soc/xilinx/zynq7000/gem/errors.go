// Xilinx Zynq-7000 Gigabit Ethernet MAC (GEM) driver
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gem

import "errors"

// Error taxonomy for the GEM data path and its MDIO/PHY management layer.
var (
	ErrInvalidArgument = errors.New("gem: invalid argument")
	ErrLinkDown        = errors.New("gem: link down")
	ErrNoBufferSpace   = errors.New("gem: no buffer space")
	ErrMdioTimeout     = errors.New("gem: mdio timeout")
	ErrPhyResetTimeout = errors.New("gem: phy reset timeout")
	ErrTxTimeout       = errors.New("gem: tx timeout")
	ErrMalformedRx     = errors.New("gem: malformed rx frame")
	ErrControllerError = errors.New("gem: controller error")
	ErrUnknownPHY      = errors.New("gem: unknown phy")
)

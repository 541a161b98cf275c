// Package diag exposes a GEM device's counters over HTTP, in the style of
// example/web_server.go's "/debug/charts" and "/debug/pprof" static index,
// for use on top of the gVisor gonet listener wired by gem/netlink.
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
package diag

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"

	_ "github.com/mkevac/debugcharts"

	"github.com/usbarmory/tamago-zynq7000/soc/xilinx/zynq7000/gem"
)

// Handler builds an http.ServeMux exposing hw's Stats as JSON at /stats,
// debugcharts' live counter graphs at /debug/charts (registered on import
// via debugcharts' own init) and the standard runtime profiles at
// /debug/pprof, mirroring example/web_server.go's static link index.
func Handler(hw *gem.Device) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&hw.Stats)
	})

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// debugcharts registers "/debug/charts" on the default ServeMux via
	// its own init(); serve it there too.
	mux.Handle("/debug/charts/", http.DefaultServeMux)

	return mux
}

// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/projectcore/internal/metrics"
	"github.com/kraklabs/projectcore/internal/ui"
	"github.com/kraklabs/projectcore/pkg/project"
	"github.com/kraklabs/projectcore/pkg/rpcconn"
)

// runServe accepts TCP connections and publishes this project's LocalProject
// as a project.Service over a rpcconn.WireConnection on each one — the
// well-known ServiceID 0 every client dials in expecting. Each connection
// gets its own Service (and so its own set of published sub-services),
// matching the "confined to one executor" model: nothing here is shared
// across connections except the underlying LocalProject itself, whose
// buffer registry is already safe for concurrent opens (spec.md §5).
func runServe(args []string, g globals) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.String("listen", "", "Address to listen on (default: project config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, configDir, err := loadProjectConfig(g.ConfigPath, ".")
	if err != nil {
		return err
	}
	addr := cfg.Listen
	if *listen != "" {
		addr = *listen
	}
	if addr == "" {
		addr = "127.0.0.1:7777"
	}

	m := metrics.New()
	lp, _, err := buildLocalProject(cfg, configDir, m)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	p := ui.NewPrinter(os.Stdout, g.JSON, g.NoColor)
	p.Info("projectd serving on %s", addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("projectd: accept failed", "error", err)
			continue
		}
		go serveConn(conn, lp)
	}
}

func serveConn(conn net.Conn, lp *project.LocalProject) {
	defer conn.Close()
	wire := rpcconn.NewWireConnection(conn)
	svc := project.NewService(wire, lp)
	id := wire.AddService(svc)
	if id != 0 {
		slog.Debug("projectd: project service registered at unexpected id", "id", id)
	}
	<-wire.Done()
}

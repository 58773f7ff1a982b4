/*
 * muninn one-shot runner
 *
 * Copyright (c) 2023 Telenor Norge AS
 *
 * This library is free software; you can redistribute it and/or
 * modify it under the terms of the GNU Lesser General Public
 * License as published by the Free Software Foundation; either
 * version 2.1 of the License, or (at your option) any later version.
 *
 * This library is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public
 * License along with this library; if not, write to the Free Software
 * Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA
 * 02110-1301  USA
 */

// muninn backs up and audits every device in the inventory, once, and
// prints one result line per device as the tasks complete:
//
//	hostname|iosInfo|cdpStatus|ntpStatus
//
// Suitable for cron. The daemon variant lives in cmd/muninn-ssh.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/telenornms/muninn"
	"github.com/telenornms/muninn/engine"
	"github.com/telenornms/muninn/inventory"
)

func main() {
	var configFile string
	flag.BoolVar(&muninn.Config.Debug, "debug", false, "enable debug")
	flag.StringVar(&configFile, "f", "/etc/muninn/muninn.toml", "config file")
	flag.Parse()
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "f" {
			explicit = true
		}
	})
	if err := muninn.ParseConfig(configFile, explicit); err != nil {
		muninn.Fatalf("Couldn't parse config: %s", err)
	}
	muninn.Init()
	muninn.Debugf("Read config file: %s", configFile)

	devices, err := inventory.Load(muninn.Config.Inventory)
	if err != nil {
		muninn.Fatalf("Couldn't load inventory: %s", err)
	}
	muninn.Logf("Loaded %d devices from %s", len(devices), muninn.Config.Inventory)

	// One timestamp for the whole run: every artifact of a run lands on
	// the same day-granular name, re-runs overwrite.
	timestamp := time.Now().Format("20060102")

	e := engine.New()
	muninn.Logf("Starting %d workers", e.Workers)
	failed := 0
	for r := range e.Run(devices, timestamp) {
		if !r.BackupOK {
			failed++
		}
		fmt.Println(r.String())
	}
	if failed > 0 {
		muninn.Logf("%d of %d devices did not get a backup, see log above", failed, len(devices))
	}
}

/*
 * muninn inventory
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

/*
Package inventory deals with loading the device list and host-level run
locking.

The inventory is a flat CSV, one device per row, columns matching the
muninn.Device csv-tags. The load policy is all-or-nothing: a single
malformed row fails the whole load, because silently skipping devices is
worse than an explicit abort.

The lock is only relevant for the queue-driven daemon, where two orders
can name the same host at the same time. The one-shot runner doesn't
lock; if an inventory lists the same hostname twice, both rows run and
the backups overwrite each other. That's documented Device behavior, not
something we second-guess here.
*/
package inventory

import (
	"fmt"
	"os"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/telenornms/muninn"
)

var targets sync.Map

// Load reads the CSV inventory and validates each record. Port is the
// only optional column and defaults to 22.
func Load(path string) ([]muninn.Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("inventory open: %w", err)
	}
	defer f.Close()
	var devices []muninn.Device
	if err := gocsv.UnmarshalFile(f, &devices); err != nil {
		return nil, fmt.Errorf("inventory parse %s: %w", path, err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("inventory %s: no devices", path)
	}
	for i := range devices {
		if devices[i].Port == "" {
			devices[i].Port = "22"
		}
		if err := check(devices[i]); err != nil {
			return nil, fmt.Errorf("inventory %s row %d: %w", path, i+1, err)
		}
	}
	return devices, nil
}

func check(d muninn.Device) error {
	missing := ""
	switch {
	case d.Hostname == "":
		missing = "hostname"
	case d.IP == "":
		missing = "ip"
	case d.Username == "":
		missing = "username"
	case d.Password == "":
		missing = "password"
	case d.DeviceType == "":
		missing = "device_type"
	}
	if missing != "" {
		return fmt.Errorf("missing required field %s", missing)
	}
	return nil
}

type Host struct {
	Hostname string
}

// LockHost acquires a host-level lock so only one run touches a device at
// a time. Must call h.Unlock() when done.
func LockHost(hostname string) (Host, error) {
	h := Host{}
	_, loaded := targets.LoadOrStore(hostname, 1)
	if loaded {
		return h, fmt.Errorf("host %s still locked, refusing to start more runs", hostname)
	}
	h.Hostname = hostname
	return h, nil
}

// Unlock releases the host-level lock.
func (h *Host) Unlock() {
	targets.Delete(h.Hostname)
}

/*
 * muninn shared types
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
package muninn

import (
	"fmt"
)

// Device is one inventory entry. Hostname doubles as the backup directory
// name, so two devices sharing a hostname will overwrite each other's
// artifacts. The loader doesn't deduplicate; keep the inventory clean.
type Device struct {
	Hostname   string `csv:"hostname"`
	IP         string `csv:"ip"`
	Port       string `csv:"port"`
	Username   string `csv:"username"`
	Password   string `csv:"password"`
	Secret     string `csv:"secret"`
	DeviceType string `csv:"device_type"`
}

// Addr is the dial target for the device's management session.
func (d Device) Addr() string {
	return fmt.Sprintf("%s:%s", d.IP, d.Port)
}

// ProbeFailed is substituted for a probe's normal result when the probe
// errored out. Downstream formatting proceeds uniformly either way.
const ProbeFailed = "ERROR"

// Result is the outcome of one device task. Exactly one is produced per
// device, sentinel-filled where steps failed, and never mutated after.
//
// BackupOK is deliberately not part of the printed line: the four-field
// output shape is the external contract, so backup failures are reported
// through the run log instead.
type Result struct {
	Hostname  string
	BackupOK  bool
	IOSInfo   string
	CDPStatus string
	NTPStatus string
}

func (r Result) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", r.Hostname, r.IOSInfo, r.CDPStatus, r.NTPStatus)
}

// Conn is the capability the backup writer and the probes need from a
// device session: send a text command, get text back, push config lines.
// The session-subpackage implements it for SSH; tests implement it with
// canned output. The session is assumed privilege-elevated already.
type Conn interface {
	Run(cmd string) (string, error)
	Configure(lines ...string) error
}

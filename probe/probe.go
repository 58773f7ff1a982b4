/*
 * muninn compliance probes
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
Package probe holds the three compliance checks muninn runs over an open,
privilege-elevated session: neighbor discovery, software identity and NTP
baseline.

A word of warning before you touch the parsing: all three probes scan for
exact substrings in the fixed textual layout of specific IOS show
commands. That is brittle against vendor output changes and it is meant
to stay that way - a layout change should surface as a wrong or failed
extraction during rollout, not get papered over with ever-cleverer
regexes. Software() is the strictest: it refuses output that doesn't
match the documented shape instead of indexing blindly into it.

Probes return an error instead of swallowing failures; the engine decides
what a failure turns into (a sentinel field in the result line).
*/
package probe

import (
	"fmt"
	"strings"

	"github.com/telenornms/muninn"
)

// CDP reports whether CDP runs and how many neighbors the device sees:
// "CDP OFF, 0 peers" or "CDP ON, n peers". The neighbor count is the
// number of "Device ID: " lines in show cdp entry *, nothing smarter.
func CDP(c muninn.Conn) (string, error) {
	out, err := c.Run("show cdp")
	if err != nil {
		return "", fmt.Errorf("cdp status: %w", err)
	}
	if strings.Contains(out, "not enabled") {
		return "CDP OFF, 0 peers", nil
	}
	out, err = c.Run("show cdp entry *")
	if err != nil {
		return "", fmt.Errorf("cdp neighbors: %w", err)
	}
	count := 0
	for _, row := range strings.Split(out, "\n") {
		if strings.Contains(row, "Device ID: ") {
			count++
		}
	}
	return fmt.Sprintf("CDP ON, %d peers", count), nil
}

// Software extracts platform, hardware model, IOS version and license
// payload (NPE images lack crypto support), as "<Type> <Model>|<Version>|<Payload>".
//
// Input contract, and the only shapes this accepts:
//
//	show version | i Cisco IOS Software
//	  "Cisco IOS Software, <Type> Software (<image>), Version <ver>, ..."
//	show version | i of memory.
//	  "cisco <Model> with <n>K/<n>K bytes of memory."
//
// Comma-space is the field separator on the first line, whitespace on
// both. Anything else is a parse error, by design.
func Software(c muninn.Conn) (string, error) {
	out, err := c.Run("show version | i Cisco IOS Software")
	if err != nil {
		return "", fmt.Errorf("version line: %w", err)
	}
	parts := strings.Split(strings.TrimSpace(out), ", ")
	if len(parts) < 3 {
		return "", fmt.Errorf("unexpected version line layout: %q", strings.TrimSpace(out))
	}
	typeFields := strings.Fields(parts[1])
	if len(typeFields) < 1 {
		return "", fmt.Errorf("no platform token in %q", parts[1])
	}
	typ := typeFields[0]
	payload := "PE"
	if strings.Contains(strings.ToUpper(typeFields[len(typeFields)-1]), "NPE") {
		payload = "NPE"
	}
	verFields := strings.Fields(parts[2])
	if len(verFields) < 2 || verFields[0] != "Version" {
		return "", fmt.Errorf("no version token in %q", parts[2])
	}
	version := verFields[1]

	out, err = c.Run("show version | i of memory.")
	if err != nil {
		return "", fmt.Errorf("memory line: %w", err)
	}
	memFields := strings.Fields(strings.TrimSpace(out))
	if len(memFields) < 2 {
		return "", fmt.Errorf("unexpected memory line layout: %q", strings.TrimSpace(out))
	}
	model := memFields[1]

	return fmt.Sprintf("%s %s|%s|%s", typ, model, version, payload), nil
}

// NTP enforces the NTP/timezone baseline and reports sync state. The
// timezone is always pushed; the ntp server line only when the server
// answers ping (the "!" marker), and best-effort at that - if the push
// fails we log it and still report whatever sync state the device is in.
// An unreachable server means NTP stays unconfigured and the verdict
// will read "NTP not Sync", which is the point.
//
// This is the one probe that writes configuration.
func NTP(c muninn.Conn, server string) (string, error) {
	if err := c.Configure("clock timezone GMT 0 0"); err != nil {
		return "", fmt.Errorf("timezone config: %w", err)
	}
	ping, err := c.Run(fmt.Sprintf("ping %s", server))
	if err != nil {
		return "", fmt.Errorf("ping ntp server: %w", err)
	}
	if strings.Contains(strings.TrimSpace(ping), "!") {
		if err := c.Configure(fmt.Sprintf("ntp server %s", server)); err != nil {
			muninn.Logf("ntp server config push failed, checking sync state anyway: %s", err)
		}
	}
	out, err := c.Run("show ntp status")
	if err != nil {
		return "", fmt.Errorf("ntp status: %w", err)
	}
	if strings.Contains(strings.TrimSpace(out), "Clock is synchronized") {
		return "NTP in Sync", nil
	}
	return "NTP not Sync", nil
}

/*
 * muninn session tests
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

// White-box tests for the terminal scraping, which is where the real
// fragility of talking to a CLI lives. Full sessions need gear (or a lab
// VM) and aren't covered here; the engine tests cover everything above
// the wire.
package session

import "testing"

func TestPromptDetection(t *testing.T) {
	prompts := []string{
		"r1>",
		"r1#",
		"r1# ",
		"core-sw1.osl#",
		"r1(config)#",
		"r1(config-if)#",
		"RP/0:r1#",
	}
	for _, p := range prompts {
		if !promptRE.MatchString(p) {
			t.Errorf("%q should match as a prompt", p)
		}
	}
	notPrompts := []string{
		"Password:",
		"Device ID: r2",
		"interface GigabitEthernet0/0",
		"% CDP is not enabled",
		"r1# show version", // prompt with trailing input isn't idle
		"",
	}
	for _, p := range notPrompts {
		if promptRE.MatchString(p) {
			t.Errorf("%q should not match as a prompt", p)
		}
	}
}

func TestLastLine(t *testing.T) {
	cases := []struct{ in, want string }{
		{"foo\r\nbar\r\nr1#", "r1#"},
		{"r1#", "r1#"},
		{"foo\nbar\nr1# ", "r1#"},
		{"", ""},
	}
	for _, c := range cases {
		if got := lastLine(c.in); got != c.want {
			t.Errorf("lastLine(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestClean(t *testing.T) {
	raw := "show cdp\r\nGlobal CDP information:\r\n\tSending CDP packets every 60 seconds\r\nr1#"
	want := "Global CDP information:\n\tSending CDP packets every 60 seconds"
	if got := clean(raw, "show cdp"); got != want {
		t.Errorf("clean = %q, want %q", got, want)
	}
	// No echo, no prompt: output passes through.
	if got := clean("plain output\n", "show cdp"); got != "plain output" {
		t.Errorf("clean without terminal-isms = %q", got)
	}
}

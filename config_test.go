/*
 * muninn config tests
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

package muninn_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/telenornms/muninn"
)

func TestParseConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "muninn.toml")
	body := `
debug = true
workers = 8
inventory = "/etc/muninn/devices.csv"
backuproot = "/var/lib/muninn"
ntpserver = "192.0.2.1"
commandtimeout = "5s"
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := muninn.ParseConfig(path, true); err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if muninn.Config.Workers != 8 {
		t.Errorf("workers: expected 8, got %d", muninn.Config.Workers)
	}
	if muninn.Config.BackupRoot != "/var/lib/muninn" {
		t.Errorf("backuproot wrong: %s", muninn.Config.BackupRoot)
	}
	if muninn.Config.NTPServer != "192.0.2.1" {
		t.Errorf("ntpserver wrong: %s", muninn.Config.NTPServer)
	}
	if muninn.Config.CommandTimeout.Duration != 5*time.Second {
		t.Errorf("commandtimeout wrong: %s", muninn.Config.CommandTimeout)
	}
	// Untouched keys keep their defaults.
	if muninn.Config.Broker == "" {
		t.Errorf("broker default lost")
	}
}

func TestParseConfigMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	if err := muninn.ParseConfig(missing, true); err == nil {
		t.Errorf("explicit missing config should fail")
	}
	if err := muninn.ParseConfig(missing, false); err != nil {
		t.Errorf("default-path missing config should fall back to defaults: %v", err)
	}
}

func TestParseConfigBadWorkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "muninn.toml")
	if err := os.WriteFile(path, []byte("workers = 0\n"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := muninn.ParseConfig(path, true); err == nil {
		t.Errorf("workers = 0 should be rejected")
	}
}

/*
 * muninn inventory tests
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

package inventory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/telenornms/muninn/inventory"
)

const header = "hostname,ip,port,username,password,secret,device_type\n"

func write(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.csv")
	if err := os.WriteFile(path, []byte(header+rows), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, "r1,10.0.0.1,22,admin,secret1,enable1,cisco_ios\n"+
		"r2,10.0.0.2,,admin,secret2,,cisco_ios\n")
	devices, err := inventory.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	if devices[0].Hostname != "r1" || devices[0].Addr() != "10.0.0.1:22" {
		t.Errorf("r1 loaded wrong: %+v", devices[0])
	}
	if devices[1].Port != "22" {
		t.Errorf("blank port should default to 22, got %q", devices[1].Port)
	}
	if devices[1].Secret != "" {
		t.Errorf("blank secret should stay blank, got %q", devices[1].Secret)
	}
}

// A single bad row fails the whole load: a silently shortened device
// list is worse than an abort.
func TestLoadMissingFieldFailsRun(t *testing.T) {
	path := write(t, "r1,10.0.0.1,22,admin,secret1,enable1,cisco_ios\n"+
		"r2,10.0.0.2,22,admin,,,cisco_ios\n")
	if _, err := inventory.Load(path); err == nil {
		t.Errorf("expected load failure on missing password")
	}
}

func TestLoadEmpty(t *testing.T) {
	if _, err := inventory.Load(write(t, "")); err == nil {
		t.Errorf("expected load failure on empty inventory")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := inventory.Load(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Errorf("expected load failure on missing file")
	}
}

// Duplicate hostnames are loaded as-is. Their backups collide and
// overwrite each other, which is documented Device behavior - the loader
// must not dedupe behind the operator's back.
func TestLoadKeepsDuplicates(t *testing.T) {
	path := write(t, "r1,10.0.0.1,22,admin,secret1,enable1,cisco_ios\n"+
		"r1,10.0.0.9,22,admin,secret9,enable9,cisco_ios\n")
	devices, err := inventory.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("duplicates deduplicated: expected 2 devices, got %d", len(devices))
	}
}

func TestLockHost(t *testing.T) {
	h, err := inventory.LockHost("r1")
	if err != nil {
		t.Fatalf("first lock failed: %v", err)
	}
	if _, err := inventory.LockHost("r1"); err == nil {
		t.Errorf("second lock on r1 should be refused")
	}
	if h2, err := inventory.LockHost("r2"); err != nil {
		t.Errorf("unrelated host locked out: %v", err)
	} else {
		h2.Unlock()
	}
	h.Unlock()
	h3, err := inventory.LockHost("r1")
	if err != nil {
		t.Errorf("relock after unlock failed: %v", err)
	} else {
		h3.Unlock()
	}
}

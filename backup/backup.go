/*
 * muninn backup writer
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

// Package backup derives backup artifact paths and writes configuration
// dumps to them. Layout: <root>/<hostname>/<hostname>-<YYYYMMDD>.txt.
// A second run the same day overwrites the artifact; there's no
// versioning and nothing here ever deletes.
package backup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/telenornms/muninn"
)

// Path ensures <root>/<hostname>/ exists and returns the artifact path
// for this host and timestamp. MkdirAll makes the directory creation
// idempotent and safe when several workers race on the shared root.
func Path(root, hostname, timestamp string) (string, error) {
	dir := filepath.Join(root, hostname)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("backup dir %s: %w", dir, err)
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.txt", hostname, timestamp)), nil
}

// Write pulls the full running configuration over the session and
// (over)writes it to path.
func Write(c muninn.Conn, path string) error {
	out, err := c.Run("show running-config all")
	if err != nil {
		return fmt.Errorf("fetch running-config: %w", err)
	}
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

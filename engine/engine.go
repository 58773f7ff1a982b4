/*
 * muninn engine
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
Package engine composes the per-device operation sequence and runs it
across a fixed pool of workers.

One device, one task, one worker, one session: a task runs the whole
sequence (connect, elevate, backup, cdp, software, ntp, disconnect) to
completion on a single worker. Workers never share sessions, devices
never share tasks, and nothing a task does can fail any other task - the
engine only ever hands back completed Results, sentinel-filled where
steps went wrong.

There is no ordering across devices: results come back in completion
order. The only guaranteed order is the step sequence inside a task.
*/
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/telenornms/muninn"
	"github.com/telenornms/muninn/backup"
	"github.com/telenornms/muninn/probe"
	"github.com/telenornms/muninn/session"
)

// Session is what a task needs from an open device session. session.New
// provides the real thing; tests substitute fakes.
type Session interface {
	muninn.Conn
	Enable(secret string) error
	Close() error
}

// Engine holds the run-wide knobs. Dial is injectable so the pool and
// the task sequencing can be exercised without network gear on the desk.
type Engine struct {
	Workers    int
	BackupRoot string
	NTPServer  string
	Dial       func(muninn.Device) (Session, error)
}

// New builds an engine from the global config, dialing real SSH sessions.
func New() *Engine {
	return &Engine{
		Workers:    muninn.Config.Workers,
		BackupRoot: muninn.Config.BackupRoot,
		NTPServer:  muninn.Config.NTPServer,
		Dial: func(dev muninn.Device) (Session, error) {
			return session.New(dev)
		},
	}
}

// Process runs the full sequence for one device and always comes back
// with a Result, never an error and never a panic across its boundary.
// A failed connect aborts the remaining steps (there's no session to run
// them on); any later step failure is logged, turned into a sentinel and
// the task carries on. Close is always attempted once the session opened.
func (e *Engine) Process(dev muninn.Device, timestamp string) muninn.Result {
	res := muninn.Result{
		Hostname:  dev.Hostname,
		IOSInfo:   muninn.ProbeFailed,
		CDPStatus: muninn.ProbeFailed,
		NTPStatus: muninn.ProbeFailed,
	}
	sess, err := e.Dial(dev)
	if err != nil {
		muninn.Logf("%s: connect failed: %s", dev.Hostname, err)
		return res
	}
	defer func() {
		if err := sess.Close(); err != nil {
			muninn.Logf("%s: disconnect: %s", dev.Hostname, err)
		}
	}()

	if err := sess.Enable(dev.Secret); err != nil {
		// Keep going: the individual steps will fail on their own
		// if the privilege level really is insufficient.
		muninn.Logf("%s: privilege elevation failed: %s", dev.Hostname, err)
	}

	path, err := backup.Path(e.BackupRoot, dev.Hostname, timestamp)
	if err != nil {
		muninn.Logf("%s: backup path: %s", dev.Hostname, err)
	} else if err := backup.Write(sess, path); err != nil {
		muninn.Logf("%s: backup failed: %s", dev.Hostname, err)
	} else {
		res.BackupOK = true
	}

	if v, err := probe.CDP(sess); err != nil {
		muninn.Logf("%s: cdp probe failed: %s", dev.Hostname, err)
	} else {
		res.CDPStatus = v
	}
	if v, err := probe.Software(sess); err != nil {
		muninn.Logf("%s: software probe failed: %s", dev.Hostname, err)
	} else {
		res.IOSInfo = v
	}
	if v, err := probe.NTP(sess, e.NTPServer); err != nil {
		muninn.Logf("%s: ntp probe failed: %s", dev.Hostname, err)
	} else {
		res.NTPStatus = v
	}
	return res
}

// Run feeds every device through the worker pool and returns the result
// channel. It's closed once every submitted device has produced its
// result, so draining it is also how a caller waits for the run to
// finish.
func (e *Engine) Run(devices []muninn.Device, timestamp string) <-chan muninn.Result {
	jobs := make(chan muninn.Device)
	results := make(chan muninn.Result)
	var wg sync.WaitGroup
	for i := 0; i < e.Workers; i++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			e.worker(name, jobs, results, timestamp)
		}(fmt.Sprintf("%d", i))
	}
	go func() {
		for _, dev := range devices {
			jobs <- dev
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

func (e *Engine) worker(name string, jobs <-chan muninn.Device, results chan<- muninn.Result, timestamp string) {
	for dev := range jobs {
		now := time.Now()
		r := e.Process(dev, timestamp)
		since := time.Since(now).Round(time.Millisecond * 10)
		muninn.Logf("[%2s]: %-15s %s %s", name, dev.Hostname, verdict(r), since.String())
		results <- r
	}
}

// verdict is for the run log only, the result line is the contract.
func verdict(r muninn.Result) string {
	switch {
	case r.BackupOK && r.IOSInfo != muninn.ProbeFailed &&
		r.CDPStatus != muninn.ProbeFailed && r.NTPStatus != muninn.ProbeFailed:
		return "OK"
	case !r.BackupOK && r.IOSInfo == muninn.ProbeFailed &&
		r.CDPStatus == muninn.ProbeFailed && r.NTPStatus == muninn.ProbeFailed:
		return "FAIL"
	default:
		return "PARTIAL"
	}
}

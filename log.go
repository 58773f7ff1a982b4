/*
 * muninn log-wrappers
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

/*
log.go is largely a wrapper around log for now, mainly so I can start doing
regular calls to log without having to worry about future-proofing it.

Add wrappers on demand.

The one concession it has is that it adds Debug/Debugf which evaluates if
we've turned on debugging. This makes calls to muninn.Debug() very fast
when it's disabled, so it's unproblematic to add debug-logging in
high-traffic code.

Tracef is separate: it appends to the operational trace log, which records
every command/response exchanged with a device. That log is for post-mortem
diagnostics only and nothing in muninn ever reads it back.
*/

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

var (
	traceMu   sync.Mutex
	traceFile *os.File
)

func Init() {
	d := log.Default()
	if Config.Debug {
		d.SetFlags(log.Ltime | log.Lshortfile)
	} else {
		d.SetFlags(log.Ltime)
	}
	if Config.TraceLog != "" {
		f, err := os.OpenFile(Config.TraceLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			Logf("unable to open trace log %s: %s", Config.TraceLog, err)
		} else {
			traceFile = f
		}
	}
}

func Log(v ...any) {
	log.Output(2, fmt.Sprint(v...))
}

func Logf(format string, v ...any) {
	log.Output(2, fmt.Sprintf(format, v...))
}

func Logln(v ...any) {
	log.Output(2, fmt.Sprintln(v...))
}

func Fatal(v ...any) {
	log.Output(2, fmt.Sprint(v...))
	os.Exit(1)
}

func Fatalf(format string, v ...any) {
	log.Output(2, fmt.Sprintf(format, v...))
	os.Exit(1)
}

func Fatalln(v ...any) {
	log.Output(2, fmt.Sprintln(v...))
	os.Exit(1)
}

func Debug(v ...any) {
	if Config.Debug {
		log.Output(2, fmt.Sprint(v...))
	}
}

func Debugf(format string, v ...any) {
	if Config.Debug {
		log.Output(2, fmt.Sprintf(format, v...))
	}
}

func Debugln(v ...any) {
	if Config.Debug {
		log.Output(2, fmt.Sprintln(v...))
	}
}

// Tracef appends one entry to the operational trace log, if one is
// configured. Safe for concurrent use: workers trace interleaved but each
// entry is written whole.
func Tracef(format string, v ...any) {
	if traceFile == nil {
		return
	}
	traceMu.Lock()
	defer traceMu.Unlock()
	fmt.Fprintf(traceFile, "%s %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, v...))
}

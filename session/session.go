/*
 * muninn session
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
Package session drives a single interactive CLI session against one
network device over SSH.

Network CLIs are not exec-friendly: most platforms want a PTY and a
shell, echo everything back and pace output with a prompt. So we run one
shell per session, write commands to it and read until the prompt shows
up again. One command in flight at a time, which is all the rest of
muninn ever needs.

Every command round-trip carries a deadline (Config.CommandTimeout), so a
wedged device fails the command instead of hanging a worker forever.
There is deliberately no retry here.
*/
package session

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/telenornms/muninn"
	"golang.org/x/crypto/ssh"
)

// promptRE matches a typical network CLI prompt alone on the last line,
// e.g. "r1>", "r1#" or "r1(config-if)#".
var promptRE = regexp.MustCompile(`^[\w.\-/:]+(\([\w.\-/:]+\))?[#>] ?$`)

type Session struct {
	Hostname string
	client   *ssh.Client
	shell    *ssh.Session
	stdin    io.WriteCloser
	chunks   chan []byte
	timeout  time.Duration
}

// New opens the management session: dial, PTY, shell, wait for the first
// prompt and disable paging. Host keys are not verified; muninn talks to
// gear on a closed management network and the inventory is the authority
// on who we talk to.
func New(dev muninn.Device) (*Session, error) {
	cfg := &ssh.ClientConfig{
		User: dev.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(dev.Password),
			ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = dev.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         muninn.Config.DialTimeout.Duration,
	}
	client, err := ssh.Dial("tcp", dev.Addr(), cfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", dev.Addr(), err)
	}
	s := &Session{
		Hostname: dev.Hostname,
		client:   client,
		timeout:  muninn.Config.CommandTimeout.Duration,
	}
	if err := s.start(); err != nil {
		client.Close()
		return nil, err
	}
	muninn.Tracef("%s: session opened (%s)", dev.Hostname, dev.Addr())
	return s, nil
}

func (s *Session) start() error {
	shell, err := s.client.NewSession()
	if err != nil {
		return fmt.Errorf("shell session: %w", err)
	}
	if err := shell.RequestPty("vt100", 80, 512, ssh.TerminalModes{}); err != nil {
		shell.Close()
		return fmt.Errorf("request pty: %w", err)
	}
	stdin, err := shell.StdinPipe()
	if err != nil {
		shell.Close()
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := shell.StdoutPipe()
	if err != nil {
		shell.Close()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := shell.Shell(); err != nil {
		shell.Close()
		return fmt.Errorf("start shell: %w", err)
	}
	s.shell = shell
	s.stdin = stdin
	s.chunks = make(chan []byte, 16)
	go pump(stdout, s.chunks)

	// Banner and login spam until the first prompt, then kill paging so
	// long output (show running-config all...) comes back in one go.
	if _, err := s.expect(); err != nil {
		return fmt.Errorf("no initial prompt: %w", err)
	}
	if _, err := s.Run("terminal length 0"); err != nil {
		return fmt.Errorf("disable paging: %w", err)
	}
	return nil
}

func pump(r io.Reader, out chan<- []byte) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			c := make([]byte, n)
			copy(c, buf[:n])
			out <- c
		}
		if err != nil {
			close(out)
			return
		}
	}
}

// expect reads until the device is back at a prompt, or the command
// timeout hits.
func (s *Session) expect() (string, error) {
	var b strings.Builder
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	for {
		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				return b.String(), fmt.Errorf("session closed by device")
			}
			b.Write(chunk)
			if promptRE.MatchString(lastLine(b.String())) {
				return b.String(), nil
			}
		case <-timer.C:
			return b.String(), fmt.Errorf("timeout after %s waiting for prompt", s.timeout)
		}
	}
}

// Run sends one command and returns its output, with the echoed command
// and the trailing prompt stripped.
func (s *Session) Run(cmd string) (string, error) {
	if _, err := io.WriteString(s.stdin, cmd+"\n"); err != nil {
		return "", fmt.Errorf("send %q: %w", cmd, err)
	}
	raw, err := s.expect()
	if err != nil {
		muninn.Tracef("%s: %q FAILED: %s", s.Hostname, cmd, err)
		return "", fmt.Errorf("command %q: %w", cmd, err)
	}
	out := clean(raw, cmd)
	muninn.Tracef("%s: %q -> %d bytes", s.Hostname, cmd, len(out))
	return out, nil
}

// Configure pushes config lines inside a configure terminal/end block.
func (s *Session) Configure(lines ...string) error {
	if _, err := s.Run("configure terminal"); err != nil {
		return fmt.Errorf("enter config mode: %w", err)
	}
	for _, l := range lines {
		if _, err := s.Run(l); err != nil {
			// Try to leave config mode anyway, the session may
			// still be usable for the remaining read-only checks.
			s.Run("end")
			return fmt.Errorf("config line %q: %w", l, err)
		}
	}
	if _, err := s.Run("end"); err != nil {
		return fmt.Errorf("leave config mode: %w", err)
	}
	return nil
}

// Enable elevates privilege with the enable secret. A blank secret means
// the account lands in privileged mode already, so it's a no-op.
func (s *Session) Enable(secret string) error {
	if secret == "" {
		return nil
	}
	if _, err := io.WriteString(s.stdin, "enable\n"); err != nil {
		return fmt.Errorf("send enable: %w", err)
	}
	// The device answers with either a password prompt or, if we're
	// already elevated, the regular prompt.
	raw, err := s.expectEnable()
	if err != nil {
		return fmt.Errorf("enable: %w", err)
	}
	if !strings.Contains(strings.ToLower(raw), "assword") {
		return nil
	}
	if _, err := io.WriteString(s.stdin, secret+"\n"); err != nil {
		return fmt.Errorf("send enable secret: %w", err)
	}
	raw, err = s.expect()
	if err != nil {
		return fmt.Errorf("enable secret rejected? %w", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(lastLine(raw)), "#") {
		return fmt.Errorf("still not privileged after enable")
	}
	muninn.Tracef("%s: privilege elevated", s.Hostname)
	return nil
}

// expectEnable is expect, except it also accepts a "Password:" line,
// which is not a prompt in the promptRE sense.
func (s *Session) expectEnable() (string, error) {
	var b strings.Builder
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	for {
		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				return b.String(), fmt.Errorf("session closed by device")
			}
			b.Write(chunk)
			last := lastLine(b.String())
			if promptRE.MatchString(last) || strings.Contains(strings.ToLower(last), "assword") {
				return b.String(), nil
			}
		case <-timer.C:
			return b.String(), fmt.Errorf("timeout after %s", s.timeout)
		}
	}
}

// Close terminates the session. Best effort: the device side may already
// be gone.
func (s *Session) Close() error {
	io.WriteString(s.stdin, "exit\n")
	s.shell.Close()
	err := s.client.Close()
	muninn.Tracef("%s: session closed", s.Hostname)
	if err != nil && err != io.EOF {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimRight(s, " ")
	if idx := strings.LastIndexAny(s, "\r\n"); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// clean strips the terminal-isms from raw shell output: CRs, the echoed
// command up front and the prompt at the end.
func clean(raw, cmd string) string {
	raw = strings.ReplaceAll(raw, "\r", "")
	lines := strings.Split(raw, "\n")
	if len(lines) > 0 && strings.Contains(lines[0], cmd) {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && promptRE.MatchString(lines[n-1]) {
		lines = lines[:n-1]
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

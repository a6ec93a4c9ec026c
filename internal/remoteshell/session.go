package remoteshell

import (
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/edgefleet/agent/internal/logging"
)

const shellReadChunk = 100 * 1024 // 100 KiB per spec §4.8

// session holds one active pty-backed shell child. Only one may exist
// at a time per Controller.
type session struct {
	sid    string
	master *os.File
	slave  *os.File
	cmd    *exec.Cmd

	mu      sync.Mutex
	stopped bool
}

// startSession allocates a pty, spawns shellPath wired to the slave
// side, and returns the session with its shell-to-wire pump not yet
// started (the caller starts it once the "new" status frame is sent).
func startSession(sid, shellPath string) (*session, error) {
	master, slave, err := openPTY()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(shellPath)
	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	attachControllingTTY(cmd)

	if err := cmd.Start(); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}

	return &session{sid: sid, master: master, slave: slave, cmd: cmd}, nil
}

// pumpShellToWire reads from the pty master and forwards each chunk as
// a shell frame via send, until the master closes or the session stops.
func (s *session) pumpShellToWire(send func(frame) error) {
	buf := make([]byte, shellReadChunk)
	for {
		n, err := s.master.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if sendErr := send(shellDataFrame(s.sid, chunk)); sendErr != nil {
				logging.Op().Warn("remoteshell: failed to forward shell output", "error", sendErr)
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				logging.Op().Info("remoteshell: pty read ended", "error", err)
			}
			return
		}
	}
}

// writeToShell forwards wire-originated input to the pty master.
func (s *session) writeToShell(body []byte) {
	if _, err := s.master.Write(body); err != nil {
		logging.Op().Warn("remoteshell: failed to write to pty", "error", err)
	}
}

// stop kills the shell child and releases the pty pair. Safe to call
// more than once.
func (s *session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true

	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.master.Close()
	s.slave.Close()
	go s.cmd.Wait()
}

//go:build !linux

package remoteshell

import (
	"fmt"
	"os"
)

func openPTY() (master, slave *os.File, err error) {
	return nil, nil, fmt.Errorf("remote shell pty allocation is not supported on this platform")
}

package ui

import (
	"io"
	"os"
)

// OpenTTY opens the controlling terminal, so the canvas still works when
// stdin is a pipe.
func OpenTTY() (io.ReadWriteCloser, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}

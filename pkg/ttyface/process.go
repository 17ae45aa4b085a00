//go:build linux || darwin || freebsd || netbsd || openbsd

package ttyface

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ProcessTerminal is a Terminal backed by os.Stdout that also owns the
// process's TTY state: entering the interface puts the terminal into raw
// mode and hides the cursor, exiting restores both.
type ProcessTerminal struct {
	*WriterTerminal
	origTermios *unix.Termios
}

// NewProcessTerminal creates a terminal for the current process's stdout.
func NewProcessTerminal() *ProcessTerminal {
	return &ProcessTerminal{WriterTerminal: NewWriterTerminal(os.Stdout)}
}

func (t *ProcessTerminal) EnterInterface() error {
	fd := int(os.Stdin.Fd())
	orig, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return errors.Wrap(err, "get termios")
	}
	t.origTermios = orig

	raw := *orig
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &raw); err != nil {
		return errors.Wrap(err, "set raw mode")
	}

	return t.WriterTerminal.EnterInterface()
}

func (t *ProcessTerminal) ExitInterface() error {
	err := t.WriterTerminal.ExitInterface()
	if t.origTermios != nil {
		fd := int(os.Stdin.Fd())
		_ = unix.IoctlSetTermios(fd, ioctlWriteTermios, t.origTermios)
		t.origTermios = nil
	}
	return err
}

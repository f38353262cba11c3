package passphrase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/TheMichaelB/dircrypt/internal/secure"
)

// MaxPassphraseSize caps a passphrase read from a pipe or file.
const MaxPassphraseSize = 1024

// ErrTooLong is returned for piped lines longer than MaxPassphraseSize.
var ErrTooLong = errors.New("passphrase too long")

// TerminalReader reads lines from a file. When the file is a terminal,
// echo is disabled while reading and prompts are written to out.
type TerminalReader struct {
	in  *os.File
	out io.Writer
}

// NewTerminalReader reads from in and prompts on out.
func NewTerminalReader(in *os.File, out io.Writer) *TerminalReader {
	return &TerminalReader{in: in, out: out}
}

// IsTerminal reports whether input comes from an interactive terminal.
func (r *TerminalReader) IsTerminal() bool {
	return term.IsTerminal(int(r.in.Fd()))
}

// ReadLine implements LineReader.
func (r *TerminalReader) ReadLine(prompt string) (*secure.Buffer, error) {
	if !r.IsTerminal() {
		return r.readPiped()
	}

	fmt.Fprint(r.out, prompt)
	defer fmt.Fprintln(r.out)

	var line []byte
	err := withEchoDisabled(int(r.in.Fd()), func(fd int) error {
		var err error
		line, err = term.ReadPassword(fd)
		return err
	})
	if err != nil {
		secure.Zero(line)
		return nil, err
	}
	return secure.BufferFrom(line), nil
}

// readPiped reads up to the next newline one byte at a time, straight
// into a locked scratch buffer. Nothing is read ahead, so no copy of the
// line is left behind in a read buffer.
func (r *TerminalReader) readPiped() (*secure.Buffer, error) {
	scratch := secure.NewBuffer(MaxPassphraseSize + 1)
	defer scratch.Zero()
	b := scratch.Bytes()

	n := 0
	for n < len(b) {
		m, err := r.in.Read(b[n : n+1])
		if m == 1 {
			if b[n] == '\n' {
				return secure.BufferFrom(b[:n]), nil
			}
			n++
			continue
		}
		if errors.Is(err, io.EOF) {
			if n == 0 {
				return nil, io.EOF
			}
			return secure.BufferFrom(b[:n]), nil
		}
		if err != nil {
			return nil, err
		}
	}

	if err := r.discardLine(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLong, MaxPassphraseSize)
}

// discardLine skips the rest of an overlong line so the next read starts
// on a fresh one.
func (r *TerminalReader) discardLine() error {
	var c [1]byte
	defer secure.Zero(c[:])

	for {
		m, err := r.in.Read(c[:])
		if m == 1 && c[0] == '\n' {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// withEchoDisabled runs fn while guaranteeing the terminal state saved
// before the call is restored afterwards, also when the process receives
// SIGINT or SIGTERM in the middle of it. In that case the signal is
// re-raised after restoring so the default disposition still applies.
func withEchoDisabled(fd int, fn func(fd int) error) error {
	saved, err := term.GetState(fd)
	if err != nil {
		return fmt.Errorf("get terminal state: %w", err)
	}

	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigs:
			_ = term.Restore(fd, saved)
			signal.Reset(sig)
			if self, err := os.FindProcess(os.Getpid()); err == nil {
				_ = self.Signal(sig)
			}
		case <-done:
		}
	}()

	defer func() {
		signal.Stop(sigs)
		close(done)
		_ = term.Restore(fd, saved)
	}()

	return fn(fd)
}

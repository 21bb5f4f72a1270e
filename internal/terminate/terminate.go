package terminate

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/term"
)

var ErrNotTerminal = errors.New("terminate: stdin is not a terminal")

// Signal is a single-shot termination event. Set is idempotent and safe
// from any goroutine.
type Signal struct {
	once sync.Once
	ch   chan struct{}
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

func (s *Signal) Set() {
	s.once.Do(func() { close(s.ch) })
}

func (s *Signal) Done() <-chan struct{} {
	return s.ch
}

// Wait blocks until the signal fires or ctx is canceled.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BindOSSignals fires sig on SIGINT or SIGTERM.
func BindOSSignals(sig *Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		sig.Set()
	}()
}

// BindKeyboard fires sig when the trigger byte (or Ctrl-C) is pressed,
// reading stdin in raw mode. The returned restore function must be called
// before the process writes its final output.
func BindKeyboard(sig *Signal, trigger byte) (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n > 0 && (buf[0] == trigger || buf[0] == 0x03) {
				sig.Set()
				return
			}
		}
	}()
	return func() { term.Restore(fd, state) }, nil
}

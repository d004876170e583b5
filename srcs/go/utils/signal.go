package utils

import (
	"os"
	"os/signal"
	"syscall"
)

// Trap calls cancel on the first SIGINT or SIGTERM. The returned function
// stops listening; a second signal then terminates the process as usual.
func Trap(cancel func(os.Signal)) func() {
	c := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-c:
			signal.Stop(c)
			cancel(sig)
		case <-done:
		}
	}()
	return func() {
		signal.Stop(c)
		close(done)
	}
}

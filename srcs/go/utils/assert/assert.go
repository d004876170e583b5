// Package assert aborts the process when an invariant is broken.
// It is used by tests and small tools where there is nothing to recover.
package assert

import (
	"fmt"
	"os"
	"runtime"
)

func fail(name, detail string) {
	_, fn, line, _ := runtime.Caller(2)
	if len(detail) > 0 {
		fmt.Fprintf(os.Stderr, "%s failed at %s:%d: %s\n", name, fn, line, detail)
	} else {
		fmt.Fprintf(os.Stderr, "%s failed at %s:%d\n", name, fn, line)
	}
	os.Exit(1)
}

func OK(err error) {
	if err != nil {
		fail(`assertOK`, err.Error())
	}
}

func True(ok bool) {
	if !ok {
		fail(`assertTrue`, "")
	}
}

func Equal[T comparable](got, want T) {
	if got != want {
		fail(`assertEqual`, fmt.Sprintf("got %v, want %v", got, want))
	}
}

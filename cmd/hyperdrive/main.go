// Command hyperdrive is the CLI Facade (C8): the short-lived process
// the workflow engine invokes to submit jobs, poll status, and manage
// the scheduler's local cache and cloud resources.
package main

import (
	"fmt"
	"os"

	"github.com/rvalieris/hyperdrive/cmd/hyperdrive/internal/cmd"
	"github.com/rvalieris/hyperdrive/pkg/hderrors"
)

func main() {
	err := cmd.Execute()
	if err == nil {
		os.Exit(0)
	}

	fmt.Fprintf(os.Stderr, "hyperdrive: %s\n", err)

	var hderr *hderrors.Error
	if asHDError(err, &hderr) {
		os.Exit(hderr.Code.ExitCode())
	}
	os.Exit(2)
}

func asHDError(err error, target **hderrors.Error) bool {
	for err != nil {
		if he, ok := err.(*hderrors.Error); ok {
			*target = he
			return true
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

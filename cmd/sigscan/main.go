// sigscan searches files for byte signatures.
//
// Each file is mapped into the process and searched in place using the
// same scanner that instrumentation code uses on live memory, so a
// signature that works here works against a loaded copy of the file.
// Matches are reported as file offsets.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

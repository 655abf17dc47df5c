package main

import (
	"fmt"
	"os/exec"
)

// executeShell runs a configured tap hook via /bin/sh -c and waits for
// it to finish.
func executeShell(shell string) error {
	out, err := exec.Command("/bin/sh", "-c", shell).CombinedOutput()
	if err != nil {
		return fmt.Errorf("running %q: %v\n%s", shell, err, out)
	}
	return nil
}

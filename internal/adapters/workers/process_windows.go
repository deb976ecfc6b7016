//go:build windows

package workers

import "os/exec"

// configureProcAttr is a no-op on Windows; process groups work
// differently and CommandContext's kill covers the direct child.
func configureProcAttr(_ *exec.Cmd) {}

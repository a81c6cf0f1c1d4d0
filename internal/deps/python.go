package deps

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const importTimeout = 20 * time.Second

// CheckPythonModule reports whether python can import module. The
// interpreter lookup happens first so a missing interpreter and a missing
// package are told apart.
func CheckPythonModule(ctx context.Context, python, module, description string) Status {
	status := checkBinary(Requirement{
		Name:        module,
		Command:     python,
		Description: description,
	})
	if !status.Available {
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, importTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, status.Command, "-c", "import "+module) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err == nil {
		return status
	}
	status.Available = false
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		status.Detail = fmt.Sprintf("import %s timed out", module)
		return status
	}
	status.Detail = fmt.Sprintf("import %s failed: %s", module, lastLine(string(output)))
	return status
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	line := strings.TrimSpace(lines[len(lines)-1])
	if line == "" {
		return "no output"
	}
	return line
}

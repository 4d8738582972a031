package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// PythonRunner returns a Runner that executes the harness with a python
// interpreter in a throwaway temporary directory. python defaults to
// "python3" when empty.
//
// The runner imposes no timeout of its own; cancellation is the caller's
// responsibility through ctx.
func PythonRunner(python string) Runner {
	if python == "" {
		python = "python3"
	}
	return func(ctx context.Context, script string, stdin []byte) ([]byte, []byte, error) {
		tempDir, err := os.MkdirTemp("", "tabular-sandbox-*")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create temporary directory: %v", err)
		}
		defer os.RemoveAll(tempDir)

		scriptPath := filepath.Join(tempDir, "harness.py")
		if err := os.WriteFile(scriptPath, []byte(script), 0644); err != nil {
			return nil, nil, fmt.Errorf("failed to write harness file: %v", err)
		}

		cmd := exec.CommandContext(ctx, python, scriptPath)
		cmd.Dir = tempDir
		cmd.Env = []string{
			"PYTHONUNBUFFERED=1",
			"PYTHONDONTWRITEBYTECODE=1",
			"PATH=" + os.Getenv("PATH"),
		}
		cmd.Stdin = bytes.NewReader(stdin)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err = cmd.Run()
		if ctx.Err() != nil {
			return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("execution cancelled: %w", ctx.Err())
		}
		return stdout.Bytes(), stderr.Bytes(), err
	}
}

// Package ghaction writes step outputs in the format GitHub Actions reads
// from the file named by GITHUB_OUTPUT.
package ghaction

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// EnvOutputFile names the environment variable holding the outputs file path.
const EnvOutputFile = "GITHUB_OUTPUT"

// Output is a single named step output.
type Output struct {
	Name  string
	Value string
}

// Write emits one output as a multi-line block. The delimiter is random so no
// value can close the block early.
func Write(w io.Writer, name, value string) error {
	delimiter := "ghadelimiter_" + uuid.NewString()
	if _, err := fmt.Fprintf(w, "%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter); err != nil {
		return fmt.Errorf("failed to write output %q: %w", name, err)
	}
	return nil
}

// AppendFile appends the outputs to the file at path.
func AppendFile(path string, outputs ...Output) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open outputs file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close outputs file: %w", closeErr)
		}
	}()

	for _, o := range outputs {
		if err := Write(f, o.Name, o.Value); err != nil {
			return err
		}
	}
	return nil
}

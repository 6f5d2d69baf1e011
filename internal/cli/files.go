package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const flagOut = "out"

// writeOutput renders v to the --out file when the command has one set and to
// stdout otherwise.
func writeOutput(cmd *cobra.Command, v any) error {
	format := viper.GetString("output")

	path := ""
	if f := cmd.Flags().Lookup(flagOut); f != nil {
		path = f.Value.String()
	}
	if path == "" {
		return render(cmd.OutOrStdout(), format, v)
	}

	var buf bytes.Buffer
	if err := render(&buf, format, v); err != nil {
		return err
	}
	if err := writeFile(path, buf.Bytes()); err != nil {
		return err
	}

	cmd.PrintErrf("wrote %s\n", path)
	return nil
}

// writeFile writes data to path, creating its parent directory.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

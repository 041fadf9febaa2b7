package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-simplefs/internal/types"
	"github.com/deploymenttheory/go-simplefs/pkg/app"
)

// printResult writes text for table output, or v encoded as JSON or YAML
func printResult(ctx *app.Context, v any, text string) error {
	switch ctx.OutputFormat {
	case "json":
		encoder := json.NewEncoder(ctx.Out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(ctx.Out)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(v)
	case "table":
		_, err := fmt.Fprintln(ctx.Out, text)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", ctx.OutputFormat)
	}
}

// parseInumber reads an inode number argument
func parseInumber(arg string) (types.Inumber, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("invalid inode number %q", arg), err)
	}
	if n <= 0 {
		return 0, app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("inode number must be positive, got %d", n), nil)
	}
	return types.Inumber(n), nil
}

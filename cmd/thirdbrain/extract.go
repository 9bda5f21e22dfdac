package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/thirdbrain/research"
)

var extractCmd = &cobra.Command{
	Use:   "extract INPUT_JSON OUTPUT_MD",
	Short: "Extract the markdown report from a saved OpenAI response",
	Long: `Read a raw OpenAI deep research response and write the report text to a
markdown file.

The report is the first non-empty output[].type="message"
.content[].type="output_text".text entry. Nothing else is tried.

Example:
  thirdbrain extract research-raw.json research.md`,
	Args: cobra.ExactArgs(2),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", input, err)
	}
	var resp map[string]any
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("failed to parse %s: %w", input, err)
	}

	content, ok := research.ExtractOpenAIText(resp)
	if !ok {
		return errors.New(`no message content found in JSON response (expected output[].type="message".content[].type="output_text".text)`)
	}
	if err := research.WriteFile(output, []byte(content)); err != nil {
		return err
	}

	fmt.Printf("Research content extracted successfully\n")
	fmt.Printf("  Input:  %s\n", input)
	fmt.Printf("  Output: %s\n", output)
	fmt.Printf("  Size:   %d characters\n", len([]rune(content)))
	return nil
}

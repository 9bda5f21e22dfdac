package research

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	longStamp  = "20060102_150405"
	shortStamp = "060102_1504"
)

// ReportPath returns where a report for handle is saved. An explicit output
// path is used as is; otherwise the file goes to
// <outputDir>/<provider>_<first 8 chars of handle>_<YYYYmmdd_HHMMSS>.md.
func ReportPath(output, outputDir, provider, handle string, now time.Time) string {
	if output != "" {
		return output
	}
	short := handle
	if len(short) > 8 {
		short = short[:8]
	}
	name := fmt.Sprintf("%s_%s_%s.md", provider, short, now.Format(longStamp))
	return filepath.Join(outputDir, name)
}

// PollPaths returns the markdown and raw JSON paths written by a resumed
// poll. With an explicit output the timestamp goes before the extension:
// report.md becomes report_<yymmdd_HHMM>.md and report_<yymmdd_HHMM>-raw.json.
// Otherwise files are named openai_<model>_<yymmdd_HHMM> in outputDir.
func PollPaths(output, outputDir, model string, now time.Time) (markdown, raw string) {
	stamp := now.Format(shortStamp)

	if output != "" {
		base, ext := splitExt(output)
		if ext == "" {
			ext = "md"
		}
		return fmt.Sprintf("%s_%s.%s", base, stamp, ext), fmt.Sprintf("%s_%s-raw.json", base, stamp)
	}

	if model == "" {
		model = "unknown"
	}
	base := filepath.Join(outputDir, fmt.Sprintf("openai_%s_%s", model, stamp))
	return base + ".md", base + "-raw.json"
}

// splitExt splits at the last dot of the file name, ignoring dots in
// directory names.
func splitExt(path string) (base, ext string) {
	dir, file := filepath.Split(path)
	idx := strings.LastIndex(file, ".")
	if idx <= 0 {
		return path, ""
	}
	return dir + file[:idx], file[idx+1:]
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// SaveRaw writes v as indented JSON.
func SaveRaw(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return WriteFile(path, append(data, '\n'))
}

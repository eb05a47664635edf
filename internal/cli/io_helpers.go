package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseCenter parses "x,y,z" into three floats.
func parseCenter(raw string) ([3]float64, error) {
	var out [3]float64
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("expected x,y,z got %q", raw)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, fmt.Errorf("bad coordinate %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

func stdinIsTTY() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

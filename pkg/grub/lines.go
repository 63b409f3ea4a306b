package grub

import (
	"fmt"
	"os"
	"strings"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
)

// DefaultCmdlineKey is the defaults file variable holding the kernel
// command line.
const DefaultCmdlineKey = "GRUB_CMDLINE_LINUX"

// Line is one line of the defaults file.
type Line struct {
	// Text is the line without its newline.
	Text string

	// Defining marks the line that assigns the command line variable.
	Defining bool
}

// splitLines splits content into lines, tagging those that define key.
// Joining the Text fields with "\n" reproduces content exactly.
func splitLines(content, key string) []Line {
	raw := strings.Split(content, "\n")
	lines := make([]Line, len(raw))
	prefix := key + "="
	for i, r := range raw {
		lines[i] = Line{
			Text:     r,
			Defining: strings.HasPrefix(strings.TrimSpace(r), prefix),
		}
	}
	return lines
}

func joinLines(lines []Line) string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// cmdlineValue splits a defining line into its argument string and any text
// after the closing quote, such as a trailing comment. Stray double quotes
// in an unquoted value are dropped.
func cmdlineValue(text, key string) (value, tail string) {
	v := strings.TrimSpace(text)
	v = strings.TrimPrefix(v, key+"=")
	if len(v) > 0 && (v[0] == '"' || v[0] == '\'') {
		if end := strings.IndexByte(v[1:], v[0]); end >= 0 {
			return v[1 : end+1], v[end+2:]
		}
	}
	return strings.ReplaceAll(v, `"`, ""), ""
}

// formatCmdline renders a defining line.
func formatCmdline(key, value string) string {
	return key + `="` + value + `"`
}

// prepend puts token in front of value, separated by one space.
func prepend(token, value string) string {
	if strings.TrimSpace(value) == "" {
		return token
	}
	return token + " " + value
}

// ReadConfigured returns the value of the first line defining key in the
// defaults file at path. found is false when no line defines it.
func ReadConfigured(path, key string) (value string, found bool, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false, cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to read %s", path), err)
	}
	for _, l := range splitLines(string(content), key) {
		if l.Defining {
			value, _ := cmdlineValue(l.Text, key)
			return value, true, nil
		}
	}
	return "", false, nil
}

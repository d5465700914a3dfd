// Package staging computes deterministic artifact locations so all three
// pipeline stages agree on where each other's files live.
package staging

import (
	"path/filepath"
	"strings"
)

// Characters the common filesystems refuse in file names. Whitespace is
// deliberately preserved: keywords like "Gyeongju Bell" keep their spaces.
const invalidFilenameChars = `<>:"/\|?*`

// Sanitize converts a raw keyword into a filesystem-safe name.
func Sanitize(keyword string) string {
	sanitized := strings.TrimSpace(keyword)
	for _, ch := range invalidFilenameChars {
		sanitized = strings.ReplaceAll(sanitized, string(ch), "")
	}
	return sanitized
}

// InfoPath is the info-retrieval artifact location for a keyword.
func InfoPath(dir, keyword, outputName string) string {
	return filepath.Join(dir, baseName(keyword, outputName)+".md")
}

// ScriptPath is the script-generation artifact location for a keyword.
func ScriptPath(dir, keyword, outputName string) string {
	return filepath.Join(dir, baseName(keyword, outputName)+"_script.md")
}

// AudioPath is the audio-synthesis artifact location for a keyword.
func AudioPath(dir, keyword, outputName string) string {
	return filepath.Join(dir, baseName(keyword, outputName)+".mp3")
}

func baseName(keyword, outputName string) string {
	if outputName != "" {
		return Sanitize(outputName)
	}
	return Sanitize(keyword)
}

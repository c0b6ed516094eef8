package assemble

import "strings"

const maxCharsPerLine = 30

// WrapCaption splits narration text into lines short enough to stay
// readable on a vertical video.
func WrapCaption(text string) []string {
	words := strings.Fields(text)
	var lines []string
	var current []string

	for _, word := range words {
		current = append(current, word)
		if len(strings.Join(current, " ")) > maxCharsPerLine {
			if len(current) > 1 {
				current = current[:len(current)-1]
				lines = append(lines, strings.Join(current, " "))
				current = []string{word}
			} else {
				lines = append(lines, word)
				current = nil
			}
		}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

// escapeDrawtext escapes the characters the ffmpeg drawtext filter treats
// specially inside a text value.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}

package app

import "strings"

// CleanAnswer drops everything up to the last "Answer:" marker, which
// models often echo from the prompt.
func CleanAnswer(output string) string {
	if i := strings.LastIndex(output, "Answer:"); i >= 0 {
		output = output[i+len("Answer:"):]
	}
	return strings.TrimSpace(output)
}

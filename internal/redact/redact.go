package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Generic API keys (long hex/base64 strings after common key patterns)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// AWS secret access keys
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	// Generic secrets/tokens/passwords in assignments
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	// Bearer tokens
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	// GitHub tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	// Slack tokens
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	// Anthropic API keys
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	// OpenAI API keys
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
}

// Secrets replaces detected secrets in text with [REDACTED] and reports how
// many replacements were made.
func Secrets(text string) (string, int) {
	count := 0
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllStringFunc(result, func(string) string {
			count++
			return placeholder
		})
	}
	return result, count
}

// ShouldRedactPath checks if a file path matches any of the redaction path patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		// Also try matching just the filename for patterns like "**/.env"
		cleanPattern := strings.TrimPrefix(pattern, "**/")
		if cleanPattern != pattern {
			matched, err = filepath.Match(cleanPattern, filepath.Base(path))
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Diff scrubs a unified diff. File sections whose path matches one of
// paths keep their headers but lose every hunk; other sections have
// individual secrets replaced. The second result counts redactions.
func Diff(diff string, paths []string) (string, int) {
	if diff == "" {
		return diff, 0
	}

	var b strings.Builder
	total := 0
	for _, section := range splitSections(diff) {
		if p := sectionPath(section); p != "" && ShouldRedactPath(p, paths) {
			b.WriteString(sectionHeader(section))
			b.WriteString(placeholder + " (file content redacted by path policy)\n")
			total++
			continue
		}
		scrubbed, n := Secrets(section)
		b.WriteString(scrubbed)
		total += n
	}
	return b.String(), total
}

// splitSections splits a diff at each "diff --git" header. Concatenating
// the result yields the input.
func splitSections(diff string) []string {
	var sections []string
	start := 0
	for i := 0; i < len(diff); {
		next := strings.Index(diff[i:], "\ndiff --git ")
		if next == -1 {
			break
		}
		cut := i + next + 1
		sections = append(sections, diff[start:cut])
		start = cut
		i = cut
	}
	return append(sections, diff[start:])
}

func sectionPath(section string) string {
	first, _, _ := strings.Cut(section, "\n")
	if !strings.HasPrefix(first, "diff --git ") {
		return ""
	}
	idx := strings.LastIndex(first, " b/")
	if idx == -1 {
		return ""
	}
	return first[idx+len(" b/"):]
}

func sectionHeader(section string) string {
	if idx := strings.Index(section, "\n@@"); idx != -1 {
		return section[:idx+1]
	}
	if idx := strings.Index(section, "\nGIT binary patch"); idx != -1 {
		return section[:idx+1]
	}
	if !strings.HasSuffix(section, "\n") {
		return section + "\n"
	}
	return section
}

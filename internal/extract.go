package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// CodeBlock is a fenced code region found in a generated message. Blocks
// are derived on demand, never persisted.
type CodeBlock struct {
	Language string
	Filename string
	Source   string
	Origin   int
}

// languageExtensions maps a fence language tag to a file extension used
// when no filename can be inferred.
var languageExtensions = map[string]string{
	"python":     ".py",
	"py":         ".py",
	"shell":      ".sh",
	"sh":         ".sh",
	"bash":       ".sh",
	"markdown":   ".md",
	"html":       ".html",
	"css":        ".css",
	"javascript": ".js",
	"js":         ".js",
	"typescript": ".ts",
	"ts":         ".ts",
	"json":       ".json",
	"yaml":       ".yaml",
	"c":          ".c",
	"cpp":        ".cpp",
	"rust":       ".rs",
	"go":         ".go",
	"csv":        ".csv",
}

// commentPrefixes maps a language to its line-comment marker, used when
// sniffing a filename out of a block's leading comment.
var commentPrefixes = map[string]string{
	"python":     "#",
	"py":         "#",
	"shell":      "#",
	"sh":         "#",
	"bash":       "#",
	"text":       "#",
	"markdown":   "#",
	"yaml":       "#",
	"csv":        "#",
	"javascript": "//",
	"js":         "//",
	"typescript": "//",
	"ts":         "//",
	"json":       "//",
	"c":          "//",
	"cpp":        "//",
	"rust":       "//",
	"go":         "//",
	"html":       "<!--",
}

// filenamePattern matches something that looks like a path with an
// extension: "main.py", "src/app/index.html"...
var filenamePattern = regexp.MustCompile(`([^\s"':]+(\.[^\s"':]+)+)`)

// ExtractBlocks scans the message at index (default: the last one) for
// fenced code blocks and attempts to infer a filename for each.
func ExtractBlocks(log *Log, index int) ([]CodeBlock, error) {
	i, err := log.ResolveIndex(index)
	if err != nil {
		return nil, err
	}

	blocks := parseFences(log.Messages[i].Content)
	for j := range blocks {
		blocks[j].Origin = i
		blocks[j].Filename = inferFilename(blocks[j].Language, blocks[j].Source)
	}
	return blocks, nil
}

// parseFences walks the content line by line, toggling on ``` markers.
// Nested fences are not handled; blocks with only whitespace are dropped.
func parseFences(content string) []CodeBlock {
	var blocks []CodeBlock
	var current CodeBlock
	var lines []string
	inside := false

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "```") {
			if !inside {
				inside = true
				current = CodeBlock{Language: strings.TrimSpace(strings.TrimPrefix(line, "```"))}
				lines = nil
			} else {
				inside = false
				current.Source = strings.Join(lines, "\n")
				if strings.TrimSpace(current.Source) != "" {
					blocks = append(blocks, current)
				}
			}
			continue
		}
		if inside {
			lines = append(lines, line)
		}
	}

	return blocks
}

// inferFilename checks the first few lines of a block for a filename
// comment like "# main.py" or "// src/app.ts".
func inferFilename(language, source string) string {
	prefix, ok := commentPrefixes[language]
	if !ok {
		prefix = "#"
	}

	lines := strings.Split(source, "\n")
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}

	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if language == "css" {
			if strings.HasPrefix(line, "/*") && strings.HasSuffix(line, "*/") {
				line = strings.TrimSpace(line[2 : len(line)-2])
				if match := filenamePattern.FindString(line); match != "" {
					return match
				}
			}
			continue
		}

		if strings.HasPrefix(line, prefix) {
			comment := strings.TrimSpace(strings.TrimPrefix(line, prefix))
			if match := filenamePattern.FindString(comment); match != "" {
				return match
			}
		}
	}

	return ""
}

// DeriveFilename builds a deterministic fallback name from the block's
// language and a hash of its content.
func DeriveFilename(language, source string) string {
	ext, ok := languageExtensions[language]
	if !ok {
		ext = ".txt"
	}
	sum := sha256.Sum256([]byte(source))
	return fmt.Sprintf("snippet-%s%s", hex.EncodeToString(sum[:4]), ext)
}

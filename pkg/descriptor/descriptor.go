// Package descriptor builds a ctxmodel.ContextDescriptor from a file path,
// an in-memory content blob, or a multi-file bundle. Read failures are
// folded into a single ctxerr.InputUnreadable, returned alongside a zero
// descriptor that callers must not use.
package descriptor

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctxforge/ctxforge/pkg/ctxerr"
	"github.com/ctxforge/ctxforge/pkg/ctxmodel"
	"github.com/ctxforge/ctxforge/pkg/estimator"
)

// maxPrefixBytes bounds how much of a large input is sampled to sniff
// structure and (when the input exceeds fullReadThreshold) to estimate
// tokens.
const maxPrefixBytes = 64 * 1024

// fullReadThreshold is the size below which the whole input is read for
// token estimation rather than a sampled prefix scaled by size ratio.
const fullReadThreshold = 16 * 1024 * 1024

var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".java": true, ".c": true, ".h": true, ".cpp": true, ".cc": true, ".hpp": true,
	".rs": true, ".rb": true, ".php": true, ".sh": true, ".cs": true, ".kt": true,
	".swift": true, ".scala": true,
}

// BuildFromFile stats and reads a file to produce its descriptor. It reads
// a bounded prefix to sniff structure, then either the full content (when
// totalBytes <= 16 MiB) or the sampled prefix scaled by size ratio to
// estimate tokens.
func BuildFromFile(path string) (ctxmodel.ContextDescriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ctxmodel.ContextDescriptor{}, ctxerr.InputUnreadable(err)
	}
	if info.IsDir() {
		return ctxmodel.ContextDescriptor{}, ctxerr.InputUnreadable(
			&os.PathError{Op: "build-descriptor", Path: path, Err: os.ErrInvalid})
	}

	f, err := os.Open(path)
	if err != nil {
		return ctxmodel.ContextDescriptor{}, ctxerr.InputUnreadable(err)
	}
	defer f.Close()

	prefix, err := readPrefix(f, maxPrefixBytes)
	if err != nil {
		return ctxmodel.ContextDescriptor{}, ctxerr.InputUnreadable(err)
	}

	totalBytes := info.Size()
	kind := sniffKind(filepath.Ext(path), prefix)
	hasStructure := confirmStructure(prefix, kind)

	tokens, err := estimateTokens(f, prefix, totalBytes)
	if err != nil {
		return ctxmodel.ContextDescriptor{}, ctxerr.InputUnreadable(err)
	}

	return ctxmodel.ContextDescriptor{
		Origin:          ctxmodel.OriginFilePath,
		TotalBytes:      totalBytes,
		EstimatedTokens: tokens,
		DataKind:        kind,
		HasStructure:    hasStructure,
	}, nil
}

// BuildFromContent produces a descriptor for an in-memory blob, applying the
// same sniffing and estimation rules as BuildFromFile without a stat call.
func BuildFromContent(content string) ctxmodel.ContextDescriptor {
	data := []byte(content)
	prefixLen := min(len(data), maxPrefixBytes)
	prefix := data[:prefixLen]

	kind := sniffKind("", prefix)
	hasStructure := confirmStructure(prefix, kind)

	var tokens int
	if len(data) <= fullReadThreshold {
		tokens = estimator.EstimateBytes(data)
	} else {
		sampled := estimator.EstimateBytes(prefix)
		tokens = scaleByRatio(sampled, len(data), len(prefix))
	}

	return ctxmodel.ContextDescriptor{
		Origin:          ctxmodel.OriginContent,
		TotalBytes:      int64(len(data)),
		EstimatedTokens: tokens,
		DataKind:        kind,
		HasStructure:    hasStructure,
	}
}

// BuildFromFiles produces a bundle-level descriptor for a multi-file input:
// FilesCount is the number of files and EstimatedTokens/TotalBytes are sums
// of the per-file estimates. Individual files that can't be stat'd are
// skipped rather than failing the whole bundle, since file-parallel dispatch
// isolates per-file errors downstream anyway.
func BuildFromFiles(paths []string) (ctxmodel.ContextDescriptor, error) {
	if len(paths) == 0 {
		return ctxmodel.ContextDescriptor{}, ctxerr.InputUnreadable(os.ErrInvalid)
	}

	var totalBytes int64
	var totalTokens int
	for _, p := range paths {
		d, err := BuildFromFile(p)
		if err != nil {
			continue
		}
		totalBytes += d.TotalBytes
		totalTokens += d.EstimatedTokens
	}

	return ctxmodel.ContextDescriptor{
		Origin:          ctxmodel.OriginFilePath,
		TotalBytes:      totalBytes,
		EstimatedTokens: totalTokens,
		DataKind:        ctxmodel.DataKindUnknown,
		FilesCount:      len(paths),
		HasStructure:    false,
	}, nil
}

func estimateTokens(f *os.File, prefix []byte, totalBytes int64) (int, error) {
	if totalBytes <= fullReadThreshold {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
		content, err := io.ReadAll(f)
		if err != nil {
			return 0, err
		}
		return estimator.EstimateBytes(content), nil
	}

	sampled := estimator.EstimateBytes(prefix)
	return scaleByRatio(sampled, int(totalBytes), len(prefix)), nil
}

func scaleByRatio(sampledTokens, totalBytes, sampledBytes int) int {
	if sampledBytes == 0 {
		return 0
	}
	return int(float64(sampledTokens) * float64(totalBytes) / float64(sampledBytes))
}

func readPrefix(f *os.File, limit int) ([]byte, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, limit)
	n, err := io.ReadFull(bufio.NewReader(f), buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func sniffKind(ext string, prefix []byte) ctxmodel.DataKind {
	text := string(prefix)

	switch strings.ToLower(ext) {
	case ".json":
		return ctxmodel.DataKindJSON
	case ".csv":
		return ctxmodel.DataKindCSV
	case ".log":
		return ctxmodel.DataKindLog
	}
	if codeExtensions[strings.ToLower(ext)] {
		return ctxmodel.DataKindCode
	}

	if !estimator.LooksLikeText(prefix) {
		return ctxmodel.DataKindBinary
	}

	trimmed := strings.TrimSpace(text)
	switch {
	case looksLikeJSON(trimmed):
		return ctxmodel.DataKindJSON
	case looksLikeCSV(text):
		return ctxmodel.DataKindCSV
	case looksLikeLog(text):
		return ctxmodel.DataKindLog
	case estimator.LooksLikeCode(text):
		return ctxmodel.DataKindCode
	case trimmed != "":
		return ctxmodel.DataKindText
	default:
		return ctxmodel.DataKindUnknown
	}
}

func looksLikeJSON(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	return (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && (strings.HasSuffix(trimmed, "]") || !strings.Contains(trimmed, "\n")))
}

func looksLikeCSV(text string) bool {
	lines := nonEmptyLines(text)
	if len(lines) < 2 {
		return false
	}
	first := strings.Count(lines[0], ",")
	if first == 0 {
		return false
	}
	matching := 0
	for _, l := range lines[:min(len(lines), 10)] {
		if strings.Count(l, ",") == first {
			matching++
		}
	}
	return matching >= min(len(lines), 10)-1
}

func looksLikeLog(text string) bool {
	lines := nonEmptyLines(text)
	if len(lines) == 0 {
		return false
	}
	timestamped := 0
	for _, l := range lines[:min(len(lines), 10)] {
		if hasLeadingTimestamp(l) {
			timestamped++
		}
	}
	return timestamped >= (min(len(lines), 10)+1)/2
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// hasLeadingTimestamp reports whether a line starts with a digit (or with
// "[" and then a digit) and has at least six digits, separated only by
// date/time separators, within its first 20 characters: a cheap signal for
// "timestamp-prefixed log line" without parsing a specific format.
func hasLeadingTimestamp(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || (line[0] < '0' || line[0] > '9') {
		if len(line) > 0 && line[0] == '[' {
			line = line[1:]
		} else {
			return false
		}
	}
	digits := 0
	for i := 0; i < len(line) && i < 20; i++ {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '-' || c == ':' || c == 'T' || c == '.' || c == ' ' || c == '/':
			// separators commonly found in ISO8601/common log timestamps
		default:
			return digits >= 6
		}
	}
	return digits >= 6
}

func confirmStructure(prefix []byte, kind ctxmodel.DataKind) bool {
	text := string(prefix)
	switch kind {
	case ctxmodel.DataKindJSON:
		return looksLikeJSON(strings.TrimSpace(text))
	case ctxmodel.DataKindCSV:
		return looksLikeCSV(text)
	case ctxmodel.DataKindLog:
		return looksLikeLog(text)
	case ctxmodel.DataKindCode:
		return strings.Contains(text, "{") || strings.Contains(text, "def ") || strings.Contains(text, "function ")
	default:
		return false
	}
}

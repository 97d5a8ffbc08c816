package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// maxReadBytes caps how much of a single file an agent reads.
const maxReadBytes = 512 * 1024

// RuleReadError is the rule id for files that were listed but could not be read.
const RuleReadError = "io.read-error"

// RuleOutsideProject is the rule id for listed files that resolve outside
// the project path. They are reported, never read.
const RuleOutsideProject = "io.outside-project"

// Depth-bound file limits. Zero means unbounded.
var depthFileLimits = map[domain.Depth]int{
	domain.DepthShallow:       200,
	domain.DepthDeep:          2000,
	domain.DepthComprehensive: 0,
}

// Language identifies the source language of a file by extension.
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangOther      Language = "other"
)

var extensionLanguages = map[string]Language{
	".go":  LangGo,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".ts":  LangTypeScript,
	".tsx": LangTypeScript,
	".py":  LangPython,
}

// DetectLanguage returns the language for path based on its extension.
func DetectLanguage(path string) Language {
	if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LangOther
}

// SourceFile is a text file loaded for analysis.
type SourceFile struct {
	Path     string // Relative to the project path, slash-separated
	AbsPath  string
	Language Language
	Content  string
	Lines    []string
}

// IsTest reports whether the file looks like a test file for its language.
func (f SourceFile) IsTest() bool {
	return isTestFile(f.Path)
}

func isTestFile(path string) bool {
	base := filepath.Base(path)
	switch DetectLanguage(path) {
	case LangGo:
		return strings.HasSuffix(base, "_test.go")
	case LangJavaScript, LangTypeScript:
		return strings.Contains(base, ".test.") || strings.Contains(base, ".spec.")
	case LangPython:
		return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py")
	default:
		return false
	}
}

// LoadSources resolves the files named by actx and reads them.
//
// Explicit file lists are resolved relative to the project path; an empty
// list walks the project path. Binary files are skipped silently. Files that
// were listed explicitly but cannot be read are returned as io.read-error
// findings. Listed files that resolve outside the project path are never read
// and come back as io.outside-project findings. A missing or non-directory
// project path is a *domain.ContextError.
func LoadSources(ctx context.Context, actx domain.AnalysisContext) ([]SourceFile, []domain.Finding, error) {
	root, err := projectRoot(actx.ProjectPath)
	if err != nil {
		return nil, nil, err
	}

	var paths []string
	var problems []domain.Finding
	if len(actx.Files) > 0 {
		var outside []string
		paths, outside = explicitPaths(root, actx.Files)
		for _, f := range outside {
			problems = append(problems, outsideProjectFinding(f))
		}
	} else {
		paths, err = walkProject(ctx, root)
		if err != nil {
			return nil, nil, err
		}
	}

	if limit := depthFileLimits[actx.Depth]; limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}

	explicit := len(actx.Files) > 0
	var sources []SourceFile
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		abs := filepath.Join(root, filepath.FromSlash(rel))
		content, ok, err := readTextFile(abs)
		if err != nil {
			if explicit {
				problems = append(problems, readErrorFinding(rel, err))
			}
			continue
		}
		if !ok {
			continue
		}

		sources = append(sources, SourceFile{
			Path:     rel,
			AbsPath:  abs,
			Language: DetectLanguage(rel),
			Content:  content,
			Lines:    strings.Split(content, "\n"),
		})
	}

	return sources, problems, nil
}

func projectRoot(path string) (string, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return "", &domain.ContextError{Path: path, Err: err}
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", &domain.ContextError{Path: path, Err: err}
	}
	if !info.IsDir() {
		return "", &domain.ContextError{Path: path, Err: errors.New("not a directory")}
	}
	return root, nil
}

// explicitPaths resolves listed files to slash-separated paths relative to
// root. Absolute paths are made relative first. Paths that escape root are
// returned separately, in their original form.
func explicitPaths(root string, files []string) (inside, outside []string) {
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		rel := filepath.Clean(f)
		if filepath.IsAbs(rel) {
			r, err := filepath.Rel(root, rel)
			if err != nil {
				outside = append(outside, f)
				continue
			}
			rel = r
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			outside = append(outside, f)
			continue
		}
		rel = filepath.ToSlash(rel)
		if seen[rel] {
			continue
		}
		seen[rel] = true
		inside = append(inside, rel)
	}
	sort.Strings(inside)
	return inside, outside
}

func walkProject(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subtrees are skipped; the root was already checked.
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || shouldSkipFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func shouldSkipDir(name string) bool {
	switch name {
	case ".git", "node_modules", "vendor", "dist", "build", ".idea", ".vscode", ".aca", ".worktrees":
		return true
	default:
		return false
	}
}

func shouldSkipFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".pdf", ".zip", ".tar", ".gz", ".ico", ".mov", ".mp4", ".mp3", ".class", ".jar", ".exe", ".so", ".dylib"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// readTextFile reads up to maxReadBytes. ok is false for binary content.
func readTextFile(path string) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, maxReadBytes))
	if err != nil {
		return "", false, err
	}
	if len(buf) == maxReadBytes {
		buf = trimPartialRune(buf)
	}
	if !isLikelyText(buf) {
		return "", false, nil
	}
	return string(buf), true, nil
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off by the read limit.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}

func isLikelyText(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	if bytes.IndexByte(b, 0x00) >= 0 {
		return false
	}
	return utf8.Valid(b)
}

func readErrorFinding(rel string, err error) domain.Finding {
	reason := err.Error()
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		reason = pathErr.Err.Error()
	}
	return domain.Finding{
		Category: domain.CategoryCorrectness,
		Severity: domain.SeverityLow,
		Location: domain.Location{Path: rel},
		Message:  fmt.Sprintf("could not read file: %s", reason),
		RuleID:   RuleReadError,
	}
}

func outsideProjectFinding(path string) domain.Finding {
	return domain.Finding{
		Category: domain.CategoryCorrectness,
		Severity: domain.SeverityLow,
		Location: domain.Location{Path: filepath.ToSlash(path)},
		Message:  "file is outside the project path; not analyzed",
		RuleID:   RuleOutsideProject,
	}
}

// lineAt returns the 1-based line number containing byte offset off.
func lineAt(content string, off int) int {
	return strings.Count(content[:off], "\n") + 1
}

// columnAt returns the 1-based column of byte offset off.
func columnAt(content string, off int) int {
	start := strings.LastIndexByte(content[:off], '\n') + 1
	return utf8.RuneCountInString(content[start:off]) + 1
}

package agent

import (
	"regexp"
	"strings"
	"unicode"
)

// function is a function body located in a source file.
type function struct {
	name      string
	exported  bool
	startLine int // 1-based
	endLine   int // 1-based, inclusive
	body      string
}

var (
	goFuncRe     = regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*[\[(]`)
	jsFuncRe     = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*[<(]`)
	jsArrowRe    = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*(?::\s*[^=]+)?=>`)
	jsMethodRe   = regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|async|override|readonly)\s+)*([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*(?::\s*[^{]+)?\{\s*$`)
	pyFuncRe     = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	jsExportedRe = regexp.MustCompile(`^\s*export\s`)
)

var jsKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "return": true,
}

var branchPatterns = map[Language]*regexp.Regexp{
	LangGo:         regexp.MustCompile(`\b(?:if|for|case)\b|&&|\|\|`),
	LangJavaScript: regexp.MustCompile(`\b(?:if|for|while|case|catch)\b|&&|\|\||\?\?`),
	LangTypeScript: regexp.MustCompile(`\b(?:if|for|while|case|catch)\b|&&|\|\||\?\?`),
	LangPython:     regexp.MustCompile(`\b(?:if|elif|for|while|except|and|or)\b`),
}

// complexity is 1 plus the number of branch points in the body.
func (fn function) complexity(lang Language) int {
	re, ok := branchPatterns[lang]
	if !ok {
		return 1
	}
	return 1 + len(re.FindAllStringIndex(stripLineComments(fn.body, lang), -1))
}

func stripLineComments(body string, lang Language) string {
	marker := "//"
	if lang == LangPython {
		marker = "#"
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, marker); idx >= 0 && !strings.ContainsAny(line[:idx], `"'`+"`") {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}

// extractFunctions finds function bodies in f. Brace languages are delimited
// by matching braces; Python by indentation.
func extractFunctions(f SourceFile) []function {
	switch f.Language {
	case LangGo:
		return braceFunctions(f.Lines, func(line string) (string, bool) {
			m := goFuncRe.FindStringSubmatch(line)
			if m == nil {
				return "", false
			}
			return m[1], true
		}, func(name, _ string) bool { return isUpper(name) })
	case LangJavaScript, LangTypeScript:
		return braceFunctions(f.Lines, func(line string) (string, bool) {
			for _, re := range []*regexp.Regexp{jsFuncRe, jsArrowRe, jsMethodRe} {
				if m := re.FindStringSubmatch(line); m != nil && !jsKeywords[m[1]] {
					return m[1], true
				}
			}
			return "", false
		}, func(_, line string) bool { return jsExportedRe.MatchString(line) })
	case LangPython:
		return pythonFunctions(f.Lines)
	default:
		return nil
	}
}

func braceFunctions(lines []string, match func(string) (string, bool), exported func(name, line string) bool) []function {
	var out []function
	for i := 0; i < len(lines); i++ {
		name, ok := match(lines[i])
		if !ok {
			continue
		}
		end, found := matchBraces(lines, i)
		if !found {
			continue
		}
		out = append(out, function{
			name:      name,
			exported:  exported(name, lines[i]),
			startLine: i + 1,
			endLine:   end + 1,
			body:      strings.Join(lines[i:end+1], "\n"),
		})
		// Nested functions are scored as part of their parent.
		i = end
	}
	return out
}

// matchBraces returns the line index where the brace block opened at or
// after start closes.
func matchBraces(lines []string, start int) (int, bool) {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		inString := rune(0)
		prev := rune(0)
	scan:
		for _, r := range lines[i] {
			switch {
			case inString != 0:
				if r == inString && prev != '\\' {
					inString = 0
				}
			case r == '"' || r == '\'' || r == '`':
				inString = r
			case r == '/' && prev == '/':
				break scan
			case r == '{':
				depth++
				opened = true
			case r == '}':
				depth--
				if opened && depth == 0 {
					return i, true
				}
			}
			prev = r
		}
		// A signature spanning more than a few lines without a body is a declaration.
		if !opened && i-start > 5 {
			return 0, false
		}
	}
	return 0, false
}

func pythonFunctions(lines []string) []function {
	var out []function
	for i := 0; i < len(lines); i++ {
		m := pyFuncRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		indent := len(m[1])
		end := i
		for j := i + 1; j < len(lines); j++ {
			trimmed := strings.TrimSpace(lines[j])
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			if leadingSpace(lines[j]) <= indent {
				break
			}
			end = j
		}
		name := m[2]
		out = append(out, function{
			name:      name,
			exported:  !strings.HasPrefix(name, "_"),
			startLine: i + 1,
			endLine:   end + 1,
			body:      strings.Join(lines[i:end+1], "\n"),
		})
		i = end
	}
	return out
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}

func isUpper(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

package interpreter

import (
	"os"
	"strings"
)

// Request describes one interpreter invocation:
//
//	[global-args] -d include_path="<dirs>" "<script>" ["<arg>"...]
type Request struct {
	GlobalArgs  string   // Raw arguments placed before everything else
	IncludePath []string // Joined with the host list separator
	Script      string
	ScriptArgs  []string
	File        string // Attribution for failures; defaults to Script
}

// Arguments renders the request as a raw argument string.
func (r Request) Arguments() string {
	var parts []string
	if g := strings.TrimSpace(r.GlobalArgs); g != "" {
		parts = append(parts, g)
	}
	if len(r.IncludePath) > 0 {
		joined := strings.Join(r.IncludePath, string(os.PathListSeparator))
		parts = append(parts, "-d", "include_path="+quote(joined))
	}
	if r.Script != "" {
		parts = append(parts, quote(r.Script))
	}
	for _, arg := range r.ScriptArgs {
		parts = append(parts, quote(arg))
	}
	return strings.Join(parts, " ")
}

func (r Request) file() string {
	if r.File != "" {
		return r.File
	}
	return r.Script
}

// quote wraps s in double quotes, escaping the characters that are special
// inside POSIX double quotes.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, c := range s {
		switch c {
		case '"', '\\', '$', '`':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	b.WriteByte('"')
	return b.String()
}

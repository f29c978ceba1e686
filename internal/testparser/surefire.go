package testparser

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseReport reads an XML report and returns one result per top-level
// testsuite element. Suites nested in another suite are already counted by
// their parent and only contribute failed test details.
func ParseReport(r io.Reader) ([]SurefireResult, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var (
		results  []SurefireResult
		current  *SurefireResult
		depth    int    // testsuite nesting depth
		testcase string // name of the open testcase, if any
		failure  *FailedTest
		message  strings.Builder // element text, used when there is no message attribute
		sawRoot  bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed report: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			switch t.Name.Local {
			case "testsuite":
				depth++
				if depth > 1 {
					continue
				}
				res, err := suiteFromAttrs(t.Attr)
				if err != nil {
					return nil, err
				}
				results = append(results, res)
				current = &results[len(results)-1]
			case "testcase":
				testcase = attr(t.Attr, "name")
			case "failure", "error":
				if current == nil || testcase == "" {
					continue
				}
				failure = &FailedTest{
					Suite: current.Name,
					Name:  testcase,
					Error: t.Name.Local == "error",
				}
				failure.Reason = firstLine(attr(t.Attr, "message"))
				message.Reset()
			}
		case xml.CharData:
			if failure != nil && failure.Reason == "" {
				message.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "testsuite":
				if depth > 0 {
					depth--
				}
				if depth == 0 {
					current = nil
				}
			case "testcase":
				testcase = ""
			case "failure", "error":
				if failure != nil && current != nil {
					if failure.Reason == "" {
						failure.Reason = firstLine(message.String())
					}
					current.FailedTests = append(current.FailedTests, *failure)
				}
				failure = nil
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("malformed report: no root element")
	}
	return results, nil
}

// ParseReportFile parses the report at path.
func ParseReportFile(path string) ([]SurefireResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	results, err := ParseReport(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return results, nil
}

func suiteFromAttrs(attrs []xml.Attr) (SurefireResult, error) {
	res := SurefireResult{
		Name: attr(attrs, "name"),
		Time: attr(attrs, "time"),
	}
	var err error
	if res.Tests, err = intAttr(attrs, "tests"); err != nil {
		return res, err
	}
	if res.Failures, err = intAttr(attrs, "failures"); err != nil {
		return res, err
	}
	if res.Errors, err = intAttr(attrs, "errors"); err != nil {
		return res, err
	}
	return res, nil
}

func attr(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// intAttr parses a count attribute. A missing attribute counts as zero.
func intAttr(attrs []xml.Attr, name string) (int, error) {
	v := strings.TrimSpace(attr(attrs, name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("malformed report: testsuite attribute %s=%q is not a count", name, v)
	}
	return n, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	const maxLen = 100
	if len(s) > maxLen {
		s = s[:maxLen-3] + "..."
	}
	return s
}

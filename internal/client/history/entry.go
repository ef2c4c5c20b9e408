package history

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MaxEntries is the history capacity.
const MaxEntries = 200

type ContentType string

const (
	TypeText ContentType = "text"
	TypeCode ContentType = "code"
	TypeURL  ContentType = "url"

	// FilterAll matches every content type in Query.
	FilterAll ContentType = "all"
)

// ParseContentType accepts "all", "text", "code" and "url". Empty means all.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case TypeText:
		return TypeText, nil
	case TypeCode:
		return TypeCode, nil
	case TypeURL:
		return TypeURL, nil
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Entry is one accepted clipboard change.
type Entry struct {
	ID          string
	Content     string
	Timestamp   time.Time
	Source      Source
	DeviceName  string
	Pinned      bool
	ContentType ContentType
}

var (
	urlPattern = regexp.MustCompile(`(?i)^https?://\S+$`)

	codePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^(import|export|const|let|var|function|class|interface|type|def|fn|pub|async|await)\s`),
		regexp.MustCompile(`[{}\[\]];?\s*$`),
		regexp.MustCompile(`(?i)</?[a-z][\s\S]*>`),
		regexp.MustCompile(`(?m)^\s*(if|for|while|switch|try|catch)\s*\(`),
	}
)

// Classify guesses the content type of clipboard text. A lone http(s) URL is
// TypeURL; text matching any source-code heuristic is TypeCode.
func Classify(content string) ContentType {
	trimmed := strings.TrimSpace(content)

	if urlPattern.MatchString(trimmed) {
		return TypeURL
	}

	for _, p := range codePatterns {
		if p.MatchString(trimmed) {
			return TypeCode
		}
	}

	return TypeText
}

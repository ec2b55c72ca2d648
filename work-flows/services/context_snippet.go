package services

// MaxContextChars bounds the page context sent with every request.
const MaxContextChars = 3800

// ContextSource supplies text describing what the learner is looking at.
type ContextSource func() string

// ContextSnippet returns the first MaxContextChars characters from accessor, or from
// pageText when accessor is nil.
func ContextSnippet(accessor, pageText ContextSource) string {
	source := accessor
	if source == nil {
		source = pageText
	}
	if source == nil {
		return ""
	}
	return truncateRunes(source(), MaxContextChars)
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

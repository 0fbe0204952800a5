package conv

import "sort"

// Severity ranks a runtime message. Higher values sort first for display.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Origin identifies which layer produced a runtime message.
type Origin string

const (
	OriginValidation Origin = "validation"
	OriginProvider   Origin = "provider"
	OriginNetwork    Origin = "network"
	OriginTool       Origin = "tool"
	OriginReturn     Origin = "return"
)

// Message is a severity-ranked diagnostic surfaced to callers instead of a
// panic or error return. The text of provider, network, and tool failures is
// preserved verbatim.
type Message struct {
	Severity Severity `json:"severity"`
	Origin   Origin   `json:"origin"`
	Text     string   `json:"text"`
}

// Info creates an info-level message.
func Info(origin Origin, text string) Message {
	return Message{Severity: SeverityInfo, Origin: origin, Text: text}
}

// Warning creates a warning-level message.
func Warning(origin Origin, text string) Message {
	return Message{Severity: SeverityWarning, Origin: origin, Text: text}
}

// Error creates an error-level message.
func Error(origin Origin, text string) Message {
	return Message{Severity: SeverityError, Origin: origin, Text: text}
}

// HasError reports whether any message in the slice is error severity.
func HasError(messages []Message) bool {
	for _, m := range messages {
		if m.Severity == SeverityError {
			return true
		}
	}
	return false
}

// RankMessages returns the messages ordered by descending severity. The sort
// is stable so same-severity messages keep their relative order.
func RankMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity > out[j].Severity
	})
	return out
}

// MergeMessages combines messages from several sources, de-duplicating by
// text (the first occurrence wins, keeping its severity and origin) and
// ranking the result by descending severity.
func MergeMessages(sources ...[]Message) []Message {
	seen := make(map[string]struct{})
	var merged []Message
	for _, src := range sources {
		for _, m := range src {
			if _, ok := seen[m.Text]; ok {
				continue
			}
			seen[m.Text] = struct{}{}
			merged = append(merged, m)
		}
	}
	return RankMessages(merged)
}

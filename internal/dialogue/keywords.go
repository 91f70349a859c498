package dialogue

import (
	"regexp"
	"strings"
)

// Group names a general-chat keyword group.
type Group string

const (
	GroupGreeting  Group = "greeting"
	GroupGratitude Group = "gratitude"
	GroupFarewell  Group = "farewell"
	GroupCourtesy  Group = "courtesy"
)

// Canned general-chat replies.
const (
	GreetingReply  = "How can I assist you with making education more accessible?"
	GratitudeReply = "You're welcome! Let me know if you have any other questions."
	FarewellReply  = "Goodbye! Feel free to return if you need more assistance."
	DefaultReply   = "How can I help you with accessibility-related questions?"
)

type keywordGroup struct {
	group   Group
	reply   string
	pattern *regexp.Regexp
}

// Groups are checked in order; the first match picks the reply.
var keywordGroups = []keywordGroup{
	newKeywordGroup(GroupGreeting, GreetingReply, "hello", "hi", "hey"),
	newKeywordGroup(GroupGratitude, GratitudeReply, "thanks", "thank you"),
	newKeywordGroup(GroupFarewell, FarewellReply, "bye", "goodbye"),
	newKeywordGroup(GroupCourtesy, DefaultReply,
		"good morning", "good afternoon", "good evening",
		"appreciate", "see you", "farewell"),
}

func newKeywordGroup(g Group, reply string, terms ...string) keywordGroup {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(t), " ", `\s+`)
	}
	return keywordGroup{
		group:   g,
		reply:   reply,
		pattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// classify reports the keyword group a message belongs to, if any.
func classify(message string) (keywordGroup, bool) {
	for _, kg := range keywordGroups {
		if kg.pattern.MatchString(message) {
			return kg, true
		}
	}
	return keywordGroup{}, false
}

// IsGeneralChat reports whether message is a greeting, thanks or farewell
// that bypasses retrieval.
func IsGeneralChat(message string) bool {
	_, ok := classify(message)
	return ok
}

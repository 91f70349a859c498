package grounding

import (
	"regexp"
	"strings"
)

// TopicBuckets are the three term lists a corroborated match is checked against.
type TopicBuckets struct {
	Domain        []string `yaml:"domain"`
	Accessibility []string `yaml:"accessibility"`
	Technology    []string `yaml:"technology"`
}

// DefaultTopicBuckets returns the built-in vocabulary for the education
// accessibility corpus.
func DefaultTopicBuckets() TopicBuckets {
	return TopicBuckets{
		Domain: []string{
			"education", "educator", "educators", "student", "students", "learning",
			"learner", "learners", "school", "university", "college", "course",
			"courses", "classroom", "teacher", "teachers", "curriculum", "academic",
			"campus", "instruction", "exam", "exams", "lecture",
		},
		Accessibility: []string{
			"accessibility", "accessible", "disability", "disabilities", "disabled",
			"accommodation", "accommodations", "support", "inclusive", "inclusion",
			"special needs", "impairment", "impaired", "blind", "deaf", "dyslexia",
			"adhd", "autism", "universal design", "udl", "ada", "section 504", "wcag",
		},
		Technology: []string{
			"technology", "assistive technology", "screen reader", "screen readers",
			"software", "tool", "tools", "app", "apps", "device", "devices",
			"captioning", "captions", "text-to-speech", "speech-to-text", "braille",
			"magnifier", "digital", "online", "platform", "lms", "keyboard",
		},
	}
}

func (b TopicBuckets) empty() bool {
	return len(b.Domain) == 0 && len(b.Accessibility) == 0 && len(b.Technology) == 0
}

// topicMatcher holds one compiled word-boundary pattern per bucket.
type topicMatcher struct {
	buckets []*regexp.Regexp
}

func newTopicMatcher(b TopicBuckets) (*topicMatcher, error) {
	m := &topicMatcher{}
	for _, terms := range [][]string{b.Domain, b.Accessibility, b.Technology} {
		re, err := compileTerms(terms)
		if err != nil {
			return nil, err
		}
		m.buckets = append(m.buckets, re)
	}
	return m, nil
}

func compileTerms(terms []string) (*regexp.Regexp, error) {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(t)))
		}
	}
	if len(quoted) == 0 {
		return nil, nil
	}
	return regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// hits counts how many buckets have at least one term in text.
func (m *topicMatcher) hits(text string) int {
	n := 0
	for _, re := range m.buckets {
		if re != nil && re.MatchString(text) {
			n++
		}
	}
	return n
}

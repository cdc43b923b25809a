package analyzer

import (
	"regexp"
	"sort"
)

// Vocabulary maps a canonical skill name to its synonyms. The canonical name
// itself is always matched too.
type Vocabulary map[string][]string

// DefaultVocabulary covers the common skills the matcher cares about. Synonyms
// collapse onto one canonical name so "golang" and "Go" count once.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		"Python":             nil,
		"JavaScript":         nil,
		"TypeScript":         nil,
		"React":              {"react.js", "reactjs"},
		"Angular":            nil,
		"Vue":                {"vue.js", "vuejs"},
		"Node.js":            {"nodejs"},
		"Go":                 {"golang"},
		"Java":               nil,
		"C++":                {"cpp"},
		"C#":                 {"csharp"},
		"Rust":               nil,
		"Swift":              nil,
		"Kotlin":             nil,
		"PHP":                nil,
		"Ruby":               nil,
		"AWS":                {"amazon web services"},
		"Azure":              nil,
		"GCP":                {"google cloud"},
		"Docker":             nil,
		"Kubernetes":         {"k8s"},
		"CI/CD":              {"continuous integration", "continuous delivery"},
		"DevOps":             nil,
		"Machine Learning":   {"ml"},
		"Deep Learning":      nil,
		"NLP":                {"natural language processing"},
		"Data Science":       nil,
		"SQL":                nil,
		"PostgreSQL":         {"postgres"},
		"MySQL":              nil,
		"MongoDB":            nil,
		"Redis":              nil,
		"Elasticsearch":      nil,
		"Project Management": nil,
		"Agile":              nil,
		"Scrum":              nil,
		"Leadership":         nil,
		"Communication":      nil,
		"Marketing":          nil,
		"Sales":              nil,
		"Customer Service":   nil,
		"Finance":            nil,
		"Accounting":         nil,
	}
}

type skillPattern struct {
	canonical string
	re        *regexp.Regexp
}

// SkillExtractor matches a vocabulary against free text, case-insensitively,
// deduplicating synonyms to their canonical name.
type SkillExtractor struct {
	patterns []skillPattern
}

func NewSkillExtractor(vocab Vocabulary) *SkillExtractor {
	e := &SkillExtractor{}
	for canonical, synonyms := range vocab {
		terms := append([]string{canonical}, synonyms...)
		for i, t := range terms {
			terms[i] = regexp.QuoteMeta(t)
		}
		// Word boundaries that tolerate + and # inside skill names.
		re := regexp.MustCompile(`(?i)(^|[^\w+#])(` + joinAlternates(terms) + `)($|[^\w+#])`)
		e.patterns = append(e.patterns, skillPattern{canonical: canonical, re: re})
	}
	sort.Slice(e.patterns, func(i, j int) bool { return e.patterns[i].canonical < e.patterns[j].canonical })
	return e
}

func joinAlternates(terms []string) string {
	out := terms[0]
	for _, t := range terms[1:] {
		out += "|" + t
	}
	return out
}

// Extract returns the canonical names present in text, sorted and deduped.
func (e *SkillExtractor) Extract(text string) []string {
	var found []string
	for _, p := range e.patterns {
		if p.re.MatchString(text) {
			found = append(found, p.canonical)
		}
	}
	return found
}

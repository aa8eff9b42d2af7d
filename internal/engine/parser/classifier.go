package parser

import (
	"fmt"

	"impactgraph/internal/shared/util"
)

// ClassifierRule tags every path matching Pattern. Patterns follow the
// path-matcher forms: "dir/" matches a directory segment, a bare pattern
// matches the base name, anything else the whole path.
type ClassifierRule struct {
	Pattern string
	Tag     Classification
}

// DefaultClassifierRules are evaluated after configured rules; first match wins.
var DefaultClassifierRules = []ClassifierRule{
	{"pages/", ClassPage},
	{"views/", ClassPage},
	{"routes/", ClassPage},
	{"app/page.*", ClassPage},
	{"app/**/page.*", ClassPage},
	{"**/app/**/page.*", ClassPage},
	{"package.json", ClassConfig},
	{"tsconfig*.json", ClassConfig},
	{"jsconfig.json", ClassConfig},
	{"*.config.*", ClassConfig},
	{"go.mod", ClassConfig},
	{"pyproject.toml", ClassConfig},
	{"config/", ClassConfig},
	{"*.css", ClassStyle},
	{"*.scss", ClassStyle},
	{"*.sass", ClassStyle},
	{"*.less", ClassStyle},
	{"styles/", ClassStyle},
	{"components/", ClassComponent},
	{"widgets/", ClassComponent},
	{"*.vue", ClassComponent},
	{"*.jsx", ClassComponent},
	{"*.tsx", ClassComponent},
	{"utils/", ClassUtility},
	{"util/", ClassUtility},
	{"lib/", ClassUtility},
	{"helpers/", ClassUtility},
	{"hooks/", ClassUtility},
	{"services/", ClassUtility},
}

type compiledRule struct {
	matcher *util.PathMatcher
	tag     Classification
}

// Classifier assigns a Classification to project paths.
type Classifier struct {
	rules []compiledRule
}

// NewClassifier compiles rules followed by DefaultClassifierRules.
func NewClassifier(rules []ClassifierRule) (*Classifier, error) {
	all := make([]ClassifierRule, 0, len(rules)+len(DefaultClassifierRules))
	all = append(all, rules...)
	all = append(all, DefaultClassifierRules...)

	c := &Classifier{rules: make([]compiledRule, 0, len(all))}
	for _, rule := range all {
		m, err := util.NewPathMatcher([]string{rule.Pattern})
		if err != nil {
			return nil, fmt.Errorf("classification rule %q: %w", rule.Pattern, err)
		}
		tag := rule.Tag
		if tag == "" {
			tag = ClassUnclassified
		}
		c.rules = append(c.rules, compiledRule{matcher: m, tag: tag})
	}
	return c, nil
}

func (c *Classifier) Classify(path string) Classification {
	if c == nil {
		return ClassUnclassified
	}
	for _, rule := range c.rules {
		if rule.matcher.Match(path) {
			return rule.tag
		}
	}
	return ClassUnclassified
}

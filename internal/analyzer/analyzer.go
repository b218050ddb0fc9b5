package analyzer

import (
	"log/slog"

	"github.com/rgaatools/rgaascan/internal/model"
)

// CheckFunc inspects a parsed document and returns zero or more
// findings. Checks are independent: no check sees another's output.
type CheckFunc func(doc *Document) []model.Finding

// check pairs a rule identifier with its detection function.
type check struct {
	rule string
	fn   CheckFunc
}

// Analyzer runs the RGAA check registry over HTML pages.
//
// Design decision: Checks live in a registry iterated in declared order
// rather than being hard-coded calls, so adding or removing a check is
// a data change while finding order stays deterministic.
type Analyzer struct {
	// checks is the ordered rule registry.
	checks []check

	// vagueLinkTexts are phrases that make link text non-descriptive.
	// Matching is case-insensitive substring.
	vagueLinkTexts []string

	// lowContrastPatterns are CSS fragments that indicate probable
	// low-contrast text colors in inline styles.
	lowContrastPatterns []string

	// decorativeMarkers are src-path fragments that identify an image
	// as decorative.
	decorativeMarkers []string

	// logger for structured logging.
	logger *slog.Logger
}

// Default detection tables. Externalized here rather than scattered in
// the checks so tests can exercise each check against crafted fixtures.
var (
	defaultVagueLinkTexts = []string{
		"cliquez ici",
		"ici",
		"lire la suite",
		"plus",
		"voir plus",
		"en savoir plus",
		"click here",
		"here",
		"read more",
		"learn more",
		"more",
	}

	defaultLowContrastPatterns = []string{
		"color:#999",
		"color:#ccc",
		"color:#ddd",
		"color: #999",
		"color: #ccc",
		"color: #ddd",
	}

	defaultDecorativeMarkers = []string{
		"decoration",
		"border",
		"spacer",
		"pixel.gif",
	}
)

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithVagueLinkTexts replaces the vague link phrase table.
func WithVagueLinkTexts(phrases []string) Option {
	return func(a *Analyzer) {
		a.vagueLinkTexts = phrases
	}
}

// WithLowContrastPatterns replaces the low-contrast CSS pattern table.
func WithLowContrastPatterns(patterns []string) Option {
	return func(a *Analyzer) {
		a.lowContrastPatterns = patterns
	}
}

// WithDecorativeMarkers replaces the decorative image marker table.
func WithDecorativeMarkers(markers []string) Option {
	return func(a *Analyzer) {
		a.decorativeMarkers = markers
	}
}

// WithAnalyzerLogger sets a custom logger.
func WithAnalyzerLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// New creates an Analyzer with all built-in checks registered in their
// canonical order.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		vagueLinkTexts:      defaultVagueLinkTexts,
		lowContrastPatterns: defaultLowContrastPatterns,
		decorativeMarkers:   defaultDecorativeMarkers,
		logger:              slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	// Registration order is the output order. Keep it stable.
	a.register(model.RuleImageAlt, a.checkImageAlt)
	a.register(model.RuleLinkText, a.checkLinkText)
	a.register(model.RuleFormLabel, a.checkFormLabels)
	a.register(model.RuleColorContrast, a.checkColorContrast)
	a.register(model.RulePageTitle, a.checkPageTitle)
	a.register(model.RulePageLanguage, a.checkPageLanguage)
	a.register(model.RuleHeadingStructure, a.checkHeadingStructure)
	a.register(model.RuleLandmarks, a.checkLandmarks)
	a.register(model.RuleDecorativeImage, a.checkDecorativeImages)
	a.register(model.RuleListStructure, a.checkListStructure)

	return a
}

// register appends a check to the registry.
func (a *Analyzer) register(rule string, fn CheckFunc) {
	a.checks = append(a.checks, check{rule: rule, fn: fn})
}

// Rules returns the registered rule identifiers in execution order.
func (a *Analyzer) Rules() []string {
	rules := make([]string, len(a.checks))
	for i, c := range a.checks {
		rules[i] = c.rule
	}
	return rules
}

// Analyze runs all checks against the given page content and returns
// the findings in check-registry order. It never fails: malformed
// markup is analyzed best-effort and missing elements are simply
// absent.
func (a *Analyzer) Analyze(pageURL, content string) []model.Finding {
	doc := ParseDocument(pageURL, content)

	findings := make([]model.Finding, 0)
	for _, c := range a.checks {
		findings = append(findings, c.fn(doc)...)
	}

	a.logger.Debug("page analyzed", "url", pageURL, "findings", len(findings))
	return findings
}

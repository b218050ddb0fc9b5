package model

// RGAA rule identifiers checked by the analyzer.
// Each constant maps to one numbered criterion of the RGAA reference
// catalog. The analyzer runs the checks in the order the rules are
// declared here, which keeps finding output deterministic.
const (
	// RuleImageAlt flags informative images without a text alternative.
	RuleImageAlt = "RGAA_1_1"

	// RuleLinkText flags links whose text is empty or non-descriptive.
	RuleLinkText = "RGAA_6_1"

	// RuleFormLabel flags form controls without an associated label.
	RuleFormLabel = "RGAA_11_1"

	// RuleColorContrast flags inline styles with known low-contrast colors.
	RuleColorContrast = "RGAA_3_2"

	// RulePageTitle flags pages with a missing or empty <title>.
	RulePageTitle = "RGAA_8_5"

	// RulePageLanguage flags pages without a valid lang attribute on <html>.
	RulePageLanguage = "RGAA_8_3"

	// RuleHeadingStructure flags skipped heading levels (e.g. h2 to h4).
	RuleHeadingStructure = "RGAA_9_1"

	// RuleLandmarks flags pages without a <main> landmark.
	RuleLandmarks = "RGAA_12_6"

	// RuleDecorativeImage flags empty-alt images that look informative.
	RuleDecorativeImage = "RGAA_1_2"

	// RuleListStructure flags lists with non-li direct element children.
	RuleListStructure = "RGAA_9_3"
)

// RuleInfo contains the static metadata shared by all findings of one rule:
// human title, description, severity, and remediation guidance.
type RuleInfo struct {
	Title         string
	Description   string
	Severity      Severity
	FixSuggestion string
	CodeExample   string
}

// ruleInfoMapping maps rule identifiers to their metadata.
// This centralized mapping keeps titles, severities, and remediation text
// consistent across the application.
//
// Design decision: We use a map rather than embedding the metadata in each
// check because:
// 1. It provides a single source of truth for severity assessment
// 2. Checks stay focused on detection logic
// 3. It makes it easy to render the full catalog in documentation
var ruleInfoMapping = map[string]RuleInfo{
	RuleImageAlt: {
		Title:         "Image without a text alternative",
		Description:   "This informative image has no alt attribute.",
		Severity:      SeverityCritical,
		FixSuggestion: "Add an alt attribute describing the content of the image.",
		CodeExample:   `<img src="chart.png" alt="Description of the image">`,
	},
	RuleLinkText: {
		Title:         "Non-descriptive link",
		Description:   "This link is not understandable out of context.",
		Severity:      SeverityCritical,
		FixSuggestion: "Use link text that describes the destination or function of the link.",
		CodeExample:   `<a href="/contact">Contact our support team</a>`,
	},
	RuleFormLabel: {
		Title:         "Form field without a label",
		Description:   "This form field has no associated label.",
		Severity:      SeverityCritical,
		FixSuggestion: "Associate a label with the field using the for attribute or aria-label.",
		CodeExample:   "<label for=\"email\">Email address</label>\n<input type=\"text\" id=\"email\" name=\"email\">",
	},
	RuleColorContrast: {
		Title:         "Insufficient color contrast",
		Description:   "The contrast between the text and its background may be insufficient.",
		Severity:      SeverityWarning,
		FixSuggestion: "Ensure a contrast ratio of at least 4.5:1 for normal text.",
		CodeExample:   "color: #333; background: #fff; /* contrast 12.6:1 */",
	},
	RulePageTitle: {
		Title:         "Missing page title",
		Description:   "This page has no title or the title is empty.",
		Severity:      SeverityCritical,
		FixSuggestion: "Add a descriptive title to the page.",
		CodeExample:   "<title>Home - My Website</title>",
	},
	RulePageLanguage: {
		Title:         "Page language not declared",
		Description:   "The main language of the page is not declared or is invalid.",
		Severity:      SeverityWarning,
		FixSuggestion: "Add a valid lang attribute to the html element.",
		CodeExample:   `<html lang="fr">`,
	},
	RuleHeadingStructure: {
		Title:         "Skipped heading level",
		Description:   "A heading level is skipped without an intermediate level.",
		Severity:      SeverityWarning,
		FixSuggestion: "Respect the heading hierarchy without skipping levels.",
		CodeExample:   "<h1>Title</h1>\n<h2>Subtitle</h2>",
	},
	RuleLandmarks: {
		Title:         "Missing main content landmark",
		Description:   "The page has no identified main region.",
		Severity:      SeverityWarning,
		FixSuggestion: "Add a main element to identify the primary content region.",
		CodeExample:   "<main>Primary page content</main>",
	},
	RuleDecorativeImage: {
		Title:         "Image possibly mistagged as decorative",
		Description:   "This image with an empty alt attribute may carry information.",
		Severity:      SeverityInfo,
		FixSuggestion: "Verify whether this image is truly decorative or needs a description.",
		CodeExample:   `<img src="decoration.png" alt="" role="presentation">`,
	},
	RuleListStructure: {
		Title:         "Incorrect list structure",
		Description:   "This list contains direct children that are not list items (li).",
		Severity:      SeverityWarning,
		FixSuggestion: "Lists must only contain li elements as direct children.",
		CodeExample:   "<ul><li>Item 1</li><li>Item 2</li></ul>",
	},
}

// GetRuleInfo returns the catalog metadata for a rule identifier.
// Unknown rules get a default Info-severity entry so that findings from
// a newer catalog version still render instead of being dropped.
func GetRuleInfo(rule string) RuleInfo {
	if info, ok := ruleInfoMapping[rule]; ok {
		return info
	}
	return RuleInfo{
		Title:         "Unknown rule",
		Description:   "This finding references a rule that is not in the catalog.",
		Severity:      SeverityInfo,
		FixSuggestion: "Review the finding manually.",
	}
}

// GetRuleSeverity returns the severity for a rule identifier.
// Returns SeverityInfo if the rule is not in the catalog.
func GetRuleSeverity(rule string) Severity {
	return GetRuleInfo(rule).Severity
}

package analyzer

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/language"

	"github.com/rgaatools/rgaascan/internal/model"
)

// checkImageAlt flags informative images that carry no alt attribute.
// Images identified as decorative are exempt: they are handled by
// checkDecorativeImages instead.
func (a *Analyzer) checkImageAlt(doc *Document) []model.Finding {
	var findings []model.Finding
	for _, img := range doc.Find("img") {
		_, hasAlt := attr(img, "alt")
		if hasAlt || a.isDecorativeImage(img) {
			continue
		}
		src := attrVal(img, "src")
		f := model.NewFinding(model.RuleImageAlt, doc.URL)
		f.Selector = fmt.Sprintf("img[src='%s']", src)
		f.ElementHTML = outerHTML(img)
		findings = append(findings, f)
	}
	return findings
}

// checkLinkText flags links whose text is empty or matches a vague
// phrase, making them meaningless out of context.
func (a *Analyzer) checkLinkText(doc *Document) []model.Finding {
	var findings []model.Finding
	for _, link := range doc.Find("a") {
		href, hasHref := attr(link, "href")
		if !hasHref {
			continue
		}
		text := strings.TrimSpace(innerText(link))
		if text != "" && !a.isVagueLinkText(text) {
			continue
		}
		f := model.NewFinding(model.RuleLinkText, doc.URL)
		f.Selector = fmt.Sprintf("a[href='%s']", href)
		f.ElementHTML = outerHTML(link)
		findings = append(findings, f)
	}
	return findings
}

func (a *Analyzer) isVagueLinkText(text string) bool {
	lower := strings.ToLower(text)
	for _, vague := range a.vagueLinkTexts {
		if strings.Contains(lower, vague) {
			return true
		}
	}
	return false
}

// nonLabelableInputTypes are input types that need no visible label.
var nonLabelableInputTypes = map[string]bool{
	"hidden": true,
	"submit": true,
	"button": true,
}

// checkFormLabels flags form fields with neither an associated label
// element nor an aria-label attribute.
func (a *Analyzer) checkFormLabels(doc *Document) []model.Finding {
	labelFor := make(map[string]bool)
	for _, label := range doc.Find("label") {
		if id := attrVal(label, "for"); id != "" {
			labelFor[id] = true
		}
	}

	var findings []model.Finding
	for _, field := range doc.Find("input", "textarea", "select") {
		if field.Data == "input" && nonLabelableInputTypes[strings.ToLower(attrVal(field, "type"))] {
			continue
		}
		id := attrVal(field, "id")
		if id != "" && labelFor[id] {
			continue
		}
		if strings.TrimSpace(attrVal(field, "aria-label")) != "" {
			continue
		}
		f := model.NewFinding(model.RuleFormLabel, doc.URL)
		f.Selector = fmt.Sprintf("input[name='%s']", attrVal(field, "name"))
		f.ElementHTML = outerHTML(field)
		findings = append(findings, f)
	}
	return findings
}

// checkColorContrast scans inline style sheets for text color
// declarations known to produce weak contrast on common backgrounds.
// A static heuristic: real contrast measurement needs a rendering
// engine, which is out of reach for a crawler.
func (a *Analyzer) checkColorContrast(doc *Document) []model.Finding {
	var findings []model.Finding
	for _, style := range doc.Find("style") {
		css := innerText(style)
		if !strings.Contains(css, "color:") || !strings.Contains(css, "background") {
			continue
		}
		for _, pattern := range a.lowContrastPatterns {
			if strings.Contains(css, pattern) {
				f := model.NewFinding(model.RuleColorContrast, doc.URL)
				f.Selector = "style"
				f.ElementHTML = css
				findings = append(findings, f)
				break
			}
		}
	}
	return findings
}

// checkPageTitle flags a missing or empty document title.
func (a *Analyzer) checkPageTitle(doc *Document) []model.Finding {
	title := doc.First("title")
	if title != nil && strings.TrimSpace(innerText(title)) != "" {
		return nil
	}
	f := model.NewFinding(model.RulePageTitle, doc.URL)
	f.Selector = "title"
	if title != nil {
		f.ElementHTML = outerHTML(title)
	} else {
		f.ElementHTML = "<title></title>"
	}
	return []model.Finding{f}
}

// checkPageLanguage flags a missing lang attribute on the html element,
// and a lang attribute whose value is not a well-formed BCP 47 tag.
func (a *Analyzer) checkPageLanguage(doc *Document) []model.Finding {
	root := doc.First("html")

	lang := ""
	if root != nil {
		lang = strings.TrimSpace(attrVal(root, "lang"))
	}

	if lang != "" {
		if _, err := language.Parse(lang); err == nil {
			return nil
		}
	}

	f := model.NewFinding(model.RulePageLanguage, doc.URL)
	f.Selector = "html"
	if root != nil {
		f.ElementHTML = fmt.Sprintf("<html lang=\"%s\">", lang)
	} else {
		f.ElementHTML = "<html>"
	}
	return []model.Finding{f}
}

// checkHeadingStructure flags level skips in the heading sequence,
// e.g. an h3 directly following an h1.
func (a *Analyzer) checkHeadingStructure(doc *Document) []model.Finding {
	headings := doc.Find("h1", "h2", "h3", "h4", "h5", "h6")

	var findings []model.Finding
	for i := 1; i < len(headings); i++ {
		prev := headingLevel(headings[i-1])
		cur := headingLevel(headings[i])
		if cur <= prev+1 {
			continue
		}
		f := model.NewFinding(model.RuleHeadingStructure, doc.URL)
		f.Description = fmt.Sprintf("Skip from h%d to h%d without an intermediate level.", prev, cur)
		f.Selector = fmt.Sprintf("h%d", cur)
		f.ElementHTML = outerHTML(headings[i])
		findings = append(findings, f)
	}
	return findings
}

// headingLevel extracts the numeric level from an h1..h6 element.
func headingLevel(n *html.Node) int {
	return int(n.Data[1] - '0')
}

// checkLandmarks flags pages without a main landmark region.
func (a *Analyzer) checkLandmarks(doc *Document) []model.Finding {
	if doc.First("main") != nil {
		return nil
	}
	f := model.NewFinding(model.RuleLandmarks, doc.URL)
	f.Selector = "body"
	f.ElementHTML = "No main element found"
	return []model.Finding{f}
}

// checkDecorativeImages flags images declared decorative via an empty
// alt but whose markup does not otherwise look decorative: they may be
// informative images silenced by mistake.
func (a *Analyzer) checkDecorativeImages(doc *Document) []model.Finding {
	var findings []model.Finding
	for _, img := range doc.Find("img") {
		alt, hasAlt := attr(img, "alt")
		if !hasAlt || alt != "" {
			continue
		}
		src := attrVal(img, "src")
		if strings.TrimSpace(src) == "" || a.isDecorativeImage(img) {
			continue
		}
		f := model.NewFinding(model.RuleDecorativeImage, doc.URL)
		f.Selector = fmt.Sprintf("img[src='%s']", src)
		f.ElementHTML = outerHTML(img)
		findings = append(findings, f)
	}
	return findings
}

// checkListStructure flags ul and ol elements with direct element
// children other than li.
func (a *Analyzer) checkListStructure(doc *Document) []model.Finding {
	var findings []model.Finding
	for _, list := range doc.Find("ul", "ol") {
		if !hasNonListItemChild(list) {
			continue
		}
		f := model.NewFinding(model.RuleListStructure, doc.URL)
		f.Selector = list.Data
		f.ElementHTML = outerHTML(list)
		findings = append(findings, f)
	}
	return findings
}

func hasNonListItemChild(list *html.Node) bool {
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data != "li" {
			return true
		}
	}
	return false
}

// isDecorativeImage reports whether an image is decorative from its
// markup alone: an explicit presentation role, or a source path that
// matches a known decorative marker.
func (a *Analyzer) isDecorativeImage(img *html.Node) bool {
	if strings.ToLower(attrVal(img, "role")) == "presentation" {
		return true
	}
	src := strings.ToLower(attrVal(img, "src"))
	for _, marker := range a.decorativeMarkers {
		if strings.Contains(src, marker) {
			return true
		}
	}
	return false
}

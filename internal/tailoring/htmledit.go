package tailoring

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-pipeline/internal/types"
)

// ApplyContent injects tailored content into a copy of the base resume
// document and returns the edited HTML plus whether any section actually
// changed. The base document is identified by structure, not by id: section
// headings are matched by keyword so the same editor works across template
// revisions. An error means the document could not be parsed or serialized,
// not that a section was missing.
func ApplyContent(baseHTML string, content *types.TailoredContent) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(baseHTML))
	if err != nil {
		return "", false, fmt.Errorf("failed to parse resume HTML: %w", err)
	}

	changed := injectSummary(doc, content.Summary)
	if injectBullets(doc, content.ExperienceTitle, content.Bullets) {
		changed = true
	}
	if rebuildSkills(doc, content.SkillCategories) {
		changed = true
	}

	out, err := doc.Html()
	if err != nil {
		return "", false, fmt.Errorf("failed to serialize resume HTML: %w", err)
	}
	return out, changed, nil
}

// injectSummary replaces the body of the summary section with a single
// paragraph, keeping the heading. The summary may carry inline markup such as
// <strong> tags.
func injectSummary(doc *goquery.Document, summary string) bool {
	if strings.TrimSpace(summary) == "" {
		return false
	}
	heading := findHeading(doc, "h2", "summary")
	if heading.Length() == 0 {
		return false
	}
	section := heading.Closest("div.section")
	if section.Length() == 0 {
		return false
	}
	headingHTML, err := goquery.OuterHtml(heading)
	if err != nil {
		return false
	}
	section.SetHtml(headingHTML + "<p>" + summary + "</p>")
	return true
}

// injectBullets replaces the bullet list of the experience entry whose h3
// heading contains title, case-insensitively. Only the first matching entry
// is edited; lists belonging to other entries are left alone.
func injectBullets(doc *goquery.Document, title string, bullets []string) bool {
	if strings.TrimSpace(title) == "" || len(bullets) == 0 {
		return false
	}
	heading := findHeading(doc, "h2", "experience")
	if heading.Length() == 0 {
		return false
	}
	section := heading.Closest("div.section")
	if section.Length() == 0 {
		return false
	}

	want := strings.ToLower(strings.TrimSpace(title))
	var target *goquery.Selection
	section.Find("h3").EachWithBreak(func(_ int, h3 *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(strings.TrimSpace(h3.Text())), want) {
			return true
		}
		// The bullet list is a later sibling of the entry's heading
		// wrapper, with the role line in between.
		entry := h3.Closest("div.clearfix")
		if entry.Length() == 0 {
			return false
		}
		if ul := entry.NextAllFiltered("ul").First(); ul.Length() > 0 {
			target = ul
		}
		return false
	})
	if target == nil {
		return false
	}

	var b strings.Builder
	for _, bullet := range bullets {
		if strings.TrimSpace(bullet) == "" {
			continue
		}
		b.WriteString("<li>")
		b.WriteString(bullet)
		b.WriteString("</li>")
	}
	target.SetHtml(b.String())
	return true
}

// rebuildSkills replaces the contents of the skills container with one column
// per category. Categories are emitted in sorted order so output is stable
// across runs.
func rebuildSkills(doc *goquery.Document, categories map[string][]string) bool {
	if len(categories) == 0 {
		return false
	}
	heading := findHeading(doc, "h2", "skills")
	if heading.Length() == 0 {
		return false
	}
	container := heading.NextAllFiltered("div.skills-container").First()
	if container.Length() == 0 {
		return false
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		skills := make([]string, 0, len(categories[name]))
		for _, skill := range categories[name] {
			if strings.TrimSpace(skill) != "" {
				skills = append(skills, skill)
			}
		}
		if len(skills) == 0 {
			continue
		}
		b.WriteString(`<div class="skills-column"><h4>`)
		b.WriteString(html.EscapeString(name))
		b.WriteString(`</h4><ul class="skills-list">`)
		for _, skill := range skills {
			b.WriteString("<li>")
			b.WriteString(skill)
			b.WriteString("</li>")
		}
		b.WriteString(`</ul></div>`)
	}
	container.SetHtml(b.String())
	return true
}

// RemoveLastEducationBullet trims the final list item from the education
// section and returns the edited document. It reports false when there is no
// education list left to trim. The page-fitting loop uses this as the last
// resort after condensation rounds run out.
func RemoveLastEducationBullet(docHTML string) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(docHTML))
	if err != nil {
		return "", false, fmt.Errorf("failed to parse resume HTML: %w", err)
	}

	heading := findHeading(doc, "h2", "education")
	if heading.Length() == 0 {
		return docHTML, false, nil
	}

	removed := false
	heading.Closest("div.section").Find("ul").EachWithBreak(func(_ int, ul *goquery.Selection) bool {
		items := ul.ChildrenFiltered("li")
		if items.Length() == 0 {
			return true
		}
		items.Last().Remove()
		removed = true
		return false
	})
	if !removed {
		return docHTML, false, nil
	}

	out, err := doc.Html()
	if err != nil {
		return "", false, fmt.Errorf("failed to serialize resume HTML: %w", err)
	}
	return out, true, nil
}

// findHeading returns the first element of the given tag whose text contains
// keyword, case-insensitively. The selection is empty when nothing matches.
func findHeading(doc *goquery.Document, tag, keyword string) *goquery.Selection {
	return doc.Find(tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(strings.TrimSpace(s.Text())), keyword)
	}).First()
}

// stripTags flattens an HTML fragment to plain text with single spaces, for
// persisting generated content in readable form.
func stripTags(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

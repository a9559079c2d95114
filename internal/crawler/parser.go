package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/tournx/webaudit/internal/model"
)

// HTML element name constants for form field detection.
const (
	htmlElementInput    = "input"
	htmlElementSelect   = "select"
	htmlElementTextarea = "textarea"
)

// Parser extracts information from HTML content.
// It identifies links, headings, images, forms, metadata, and other
// elements the audit checks need.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
//  4. Standard library extension, well-maintained
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL
}

// ParseResult contains all information extracted from an HTML page.
//
// Design decision: We return a comprehensive result struct rather than
// multiple methods because:
//  1. Single parsing pass is more efficient
//  2. Related data can be collected together
//  3. Caller can choose what to use
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// MetaDescription is the content of the meta description tag.
	MetaDescription string

	// MetaTags contains meta tag information keyed by name or property.
	MetaTags map[string]string

	// Canonical is the resolved canonical URL from <link rel="canonical">.
	Canonical string

	// HeadingCounts maps heading levels (h1..h6) to their counts.
	HeadingCounts map[string]int

	// H1Texts contains the text content of each <h1> element.
	H1Texts []string

	// Images contains all images with their alt status.
	Images []model.Image

	// Links contains all discovered URLs (href attributes), resolved.
	Links []string

	// InternalLinks are links on the same host as the base URL.
	InternalLinks []string

	// ExternalLinks are links to other hosts.
	ExternalLinks []string

	// EmptyAnchorCount is the number of anchors with no visible text
	// and no image content.
	EmptyAnchorCount int

	// NofollowCount is the number of anchors carrying rel="nofollow".
	NofollowCount int

	// Forms contains information about HTML forms.
	Forms []model.Form

	// Scripts contains external script sources.
	Scripts []string

	// Stylesheets contains stylesheet URLs.
	Stylesheets []string

	// HasStructuredData is true when a JSON-LD script block is present.
	HasStructuredData bool

	// WordCount is the number of words in the visible text.
	WordCount int

	// Comments contains HTML comments.
	Comments []string
}

// fieldCapture tracks a form field during parsing, before label
// resolution can happen.
type fieldCapture struct {
	field     model.FormField
	id        string
	inLabel   bool
	formIndex int
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content and extracts all relevant information.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		MetaTags:      make(map[string]string),
		HeadingCounts: make(map[string]int),
		Links:         make([]string, 0),
		InternalLinks: make([]string, 0),
		ExternalLinks: make([]string, 0),
	}

	// Label resolution state: fields are matched to labels after the
	// walk because a <label for="..."> can appear anywhere in the DOM.
	var fields []fieldCapture
	labeledIDs := make(map[string]bool)

	var textContent strings.Builder

	// Walk the DOM tree. skipText suppresses word counting inside
	// script/style blocks; labelDepth tracks label nesting for implicit
	// field association.
	var walk func(n *html.Node, skipText bool, inLabel bool, formIndex int)
	walk = func(n *html.Node, skipText bool, inLabel bool, formIndex int) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				// Script elements still carry signals (src, JSON-LD),
				// only their text is excluded from word counting.
				skipText = true
				if n.Data == "script" {
					p.processElement(n, result)
				}
			case "label":
				inLabel = true
				if forID := getAttr(n, "for"); forID != "" {
					labeledIDs[forID] = true
				}
			case "form":
				result.Forms = append(result.Forms, model.Form{
					Action: p.resolveURL(getAttr(n, "action")),
					Method: formMethod(n),
				})
				formIndex = len(result.Forms) - 1
			case htmlElementInput, htmlElementSelect, htmlElementTextarea:
				if formIndex >= 0 {
					fields = append(fields, fieldCapture{
						field:     newFormField(n),
						id:        getAttr(n, "id"),
						inLabel:   inLabel,
						formIndex: formIndex,
					})
				}
			default:
				p.processElement(n, result)
			}
		case html.TextNode:
			if !skipText {
				textContent.WriteString(n.Data)
				textContent.WriteString(" ")
			}
		case html.CommentNode:
			result.Comments = append(result.Comments, n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skipText, inLabel, formIndex)
		}
	}

	walk(doc, false, false, -1)

	// Resolve labels now that all <label for> targets are known
	for _, fc := range fields {
		f := fc.field
		f.HasLabel = fc.inLabel || (fc.id != "" && labeledIDs[fc.id])
		// Hidden and submit inputs don't need labels
		if f.Type == "hidden" || f.Type == "submit" || f.Type == "button" {
			f.HasLabel = true
		}
		result.Forms[fc.formIndex].Fields = append(result.Forms[fc.formIndex].Fields, f)
	}

	result.WordCount = len(strings.Fields(textContent.String()))

	return result, nil
}

// processElement handles HTML element nodes that don't need walk state.
func (p *Parser) processElement(n *html.Node, result *ParseResult) {
	switch n.Data {
	case "title":
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			result.Title = strings.TrimSpace(n.FirstChild.Data)
		}

	case "h1", "h2", "h3", "h4", "h5", "h6":
		result.HeadingCounts[n.Data]++
		if n.Data == "h1" {
			result.H1Texts = append(result.H1Texts, strings.TrimSpace(nodeText(n)))
		}

	case "a":
		p.processAnchor(n, result)

	case "script":
		if src := getAttr(n, "src"); src != "" {
			result.Scripts = append(result.Scripts, p.resolveURL(src))
		}
		if getAttr(n, "type") == "application/ld+json" {
			result.HasStructuredData = true
		}

	case "img":
		if src := getAttr(n, "src"); src != "" {
			alt, hasAlt := findAttr(n, "alt")
			result.Images = append(result.Images, model.Image{
				Source: p.resolveURL(src),
				Alt:    alt,
				HasAlt: hasAlt && strings.TrimSpace(alt) != "",
			})
		}

	case "meta":
		name := getAttr(n, "name")
		if name == "" {
			name = getAttr(n, "property") // OpenGraph uses property
		}
		content := getAttr(n, "content")
		if name != "" && content != "" {
			result.MetaTags[strings.ToLower(name)] = content
			if strings.ToLower(name) == "description" {
				result.MetaDescription = content
			}
		}

	case "link":
		href := getAttr(n, "href")
		if href == "" {
			return
		}
		switch getAttr(n, "rel") {
		case "canonical":
			result.Canonical = p.resolveURL(href)
		case "stylesheet":
			result.Stylesheets = append(result.Stylesheets, p.resolveURL(href))
		}
	}
}

// processAnchor extracts, resolves, and classifies a single anchor.
func (p *Parser) processAnchor(n *html.Node, result *ParseResult) {
	href := getAttr(n, "href")
	if href == "" {
		return
	}

	resolved := p.resolveURL(href)
	if resolved == "" {
		return
	}

	result.Links = append(result.Links, resolved)
	p.classifyLink(resolved, result)

	if strings.Contains(getAttr(n, "rel"), "nofollow") {
		result.NofollowCount++
	}
	if strings.TrimSpace(nodeText(n)) == "" && !containsElement(n, "img") {
		result.EmptyAnchorCount++
	}
}

// resolveURL resolves a relative URL against the base URL.
//
// Design decision: We resolve URLs rather than storing them as-is because:
//  1. Makes deduplication easier
//  2. Allows proper link classification
//  3. Reduces ambiguity in results
func (p *Parser) resolveURL(href string) string {
	if href == "" {
		return ""
	}

	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)
	return resolved.String()
}

// classifyLink categorizes a link as internal or external.
// Internal means the same host as the page being parsed, ignoring case.
func (p *Parser) classifyLink(link string, result *ParseResult) {
	u, err := url.Parse(link)
	if err != nil {
		return
	}

	if strings.EqualFold(u.Host, p.baseURL.Host) || u.Host == "" {
		result.InternalLinks = append(result.InternalLinks, link)
		return
	}
	result.ExternalLinks = append(result.ExternalLinks, link)
}

// newFormField builds a FormField from an input-like element.
func newFormField(n *html.Node) model.FormField {
	field := model.FormField{
		Name: getAttr(n, "name"),
		Type: getAttr(n, "type"),
	}
	if field.Type == "" {
		switch n.Data {
		case htmlElementTextarea:
			field.Type = htmlElementTextarea
		case htmlElementSelect:
			field.Type = htmlElementSelect
		default:
			field.Type = "text"
		}
	}
	return field
}

// formMethod returns the normalized form method, defaulting to GET.
func formMethod(n *html.Node) string {
	m := strings.ToUpper(getAttr(n, "method"))
	if m == "" {
		return "GET"
	}
	return m
}

// nodeText returns the concatenated text content of a node's subtree.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// containsElement reports whether the subtree contains the given element.
func containsElement(n *html.Node, name string) bool {
	if n.Type == html.ElementNode && n.Data == name {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if containsElement(c, name) {
			return true
		}
	}
	return false
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// findAttr retrieves an attribute value and whether it was present.
func findAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

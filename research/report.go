package research

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/thirdbrain"
)

// DefaultTitle heads every generated report.
const DefaultTitle = "Research Report"

// Citation is one reference of a report.
type Citation struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Report is a fetched research result.
type Report struct {
	Title     string
	Content   string
	Citations []Citation

	// Model is the model that produced the answer, when known.
	Model string

	// Source names the service for the report header, e.g. "OpenAI Deep Research".
	Source string

	// Raw is the decoded provider response.
	Raw map[string]any
}

// Markdown renders the report with [FormatMarkdown].
func (r Report) Markdown() string {
	title := r.Title
	if title == "" {
		title = DefaultTitle
	}
	return FormatMarkdown(title, r.Content, r.Citations, r.Source)
}

// FormatMarkdown lays out a report:
//
//	# <title>
//	> Research conducted with <source>
//	<content>
//	## References
//	[1] <title>: <url>
//
// The source line and references section are omitted when empty.
func FormatMarkdown(title, content string, citations []Citation, source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)

	if source != "" {
		fmt.Fprintf(&b, "> Research conducted with %s\n", source)
	}

	b.WriteString(content)

	if len(citations) > 0 {
		b.WriteString("\n## References\n")
		for i, c := range citations {
			switch {
			case c.URL != "":
				fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, c.Title, c.URL)
			default:
				fmt.Fprintf(&b, "[%d] %s\n", i+1, c.Title)
			}
		}
	}

	return b.String()
}

// Frontmatter is the YAML header written above saved reports.
type Frontmatter struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	RequestID string `yaml:"request_id"`
	Timestamp string `yaml:"timestamp"`
}

// NewFrontmatter stamps a header with now in yymmdd_HHMM form.
func NewFrontmatter(provider, model, requestID string, now time.Time) Frontmatter {
	if model == "" {
		model = "unknown"
	}
	return Frontmatter{
		Provider:  provider,
		Model:     model,
		RequestID: requestID,
		Timestamp: now.Format(shortStamp),
	}
}

// Render returns the frontmatter block followed by a blank line.
func (f Frontmatter) Render() (string, error) {
	out, err := yaml.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to render frontmatter: %w", err)
	}
	return "---\n" + string(out) + "---\n\n", nil
}

// ExtractOpenAIText returns the text of the first output_text item inside a
// message of the response's output array. It reports false when no message
// carries text.
func ExtractOpenAIText(resp map[string]any) (string, bool) {
	output, _ := resp["output"].([]any)
	for _, item := range output {
		msg, ok := item.(map[string]any)
		if !ok || msg["type"] != "message" {
			continue
		}
		content, _ := msg["content"].([]any)
		for _, c := range content {
			part, ok := c.(map[string]any)
			if !ok || part["type"] != "output_text" {
				continue
			}
			if text, _ := part["text"].(string); text != "" {
				return text, true
			}
		}
	}
	return "", false
}

var legacyReport = thirdbrain.FirstField("content.0.research", "content.0.text", "report")

// ExtractOpenAIReport finds the report body of a response. It tries
// [ExtractOpenAIText], then the older content[0].research,
// content[0].text and report fields. If all fail it returns the whole
// response as a fenced JSON block so nothing is lost.
func ExtractOpenAIReport(resp map[string]any) string {
	if text, ok := ExtractOpenAIText(resp); ok {
		return text
	}
	if text, ok := legacyReport(resp); ok {
		return text
	}

	dump, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error extracting report: %v", err)
	}
	return "```json\n" + string(dump) + "\n```"
}

// ExtractOpenAICitations collects content[0].citations and the url_citation
// annotations of output_text items, dropping repeated URLs.
func ExtractOpenAICitations(resp map[string]any) []Citation {
	var citations []Citation
	seen := make(map[string]bool)

	add := func(c Citation) {
		if c.Title == "" && c.URL == "" {
			return
		}
		if c.URL != "" {
			if seen[c.URL] {
				return
			}
			seen[c.URL] = true
		}
		citations = append(citations, c)
	}

	if legacy, ok := thirdbrain.Lookup(resp, "content", "0", "citations"); ok {
		list, _ := legacy.([]any)
		for _, item := range list {
			add(toCitation(item))
		}
	}

	output, _ := resp["output"].([]any)
	for _, item := range output {
		msg, ok := item.(map[string]any)
		if !ok || msg["type"] != "message" {
			continue
		}
		content, _ := msg["content"].([]any)
		for _, c := range content {
			part, ok := c.(map[string]any)
			if !ok || part["type"] != "output_text" {
				continue
			}
			annotations, _ := part["annotations"].([]any)
			for _, a := range annotations {
				ann, ok := a.(map[string]any)
				if !ok || ann["type"] != "url_citation" {
					continue
				}
				add(toCitation(ann))
			}
		}
	}

	return citations
}

func toCitation(v any) Citation {
	switch c := v.(type) {
	case string:
		return Citation{Title: c}
	case map[string]any:
		title, _ := c["title"].(string)
		url, _ := c["url"].(string)
		return Citation{Title: title, URL: url}
	case float64:
		return Citation{Title: strconv.FormatFloat(c, 'f', -1, 64)}
	default:
		return Citation{}
	}
}

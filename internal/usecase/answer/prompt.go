package answer

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// NoAnswerPhrase is what the default prompt tells the model to say when the
// context does not contain an answer.
const NoAnswerPhrase = "문서에 답변이 없습니다."

//go:embed prompt.tmpl
var defaultPrompt string

// Prompt renders the system message from retrieved documents and the question.
type Prompt struct {
	tmpl *template.Template
}

type promptData struct {
	Context  string
	Question string
}

// DefaultPrompt returns the built-in Korean precedent prompt.
func DefaultPrompt() *Prompt {
	return &Prompt{tmpl: template.Must(template.New("answer").Parse(defaultPrompt))}
}

// ParsePrompt compiles a custom template. It may reference {{.Context}} and {{.Question}}.
func ParsePrompt(text string) (*Prompt, error) {
	tmpl, err := template.New("answer").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt: %w", err)
	}
	return &Prompt{tmpl: tmpl}, nil
}

// LoadPrompt reads a template from path, or returns the default when path is empty.
func LoadPrompt(path string) (*Prompt, error) {
	if path == "" {
		return DefaultPrompt(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt %s: %w", path, err)
	}
	return ParsePrompt(string(raw))
}

// Messages builds the chat turns: the rendered system prompt, then the question.
func (p *Prompt) Messages(docs []domain.Document, question string) ([]domain.ChatMessage, error) {
	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, promptData{Context: FormatContext(docs), Question: question}); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: sb.String()},
		{Role: domain.RoleUser, Content: question},
	}, nil
}

var contextFields = []struct {
	label string
	key   string
}{
	{"판례일련번호", domain.MetaPrecSeq},
	{"사건명", domain.MetaCaseName},
	{"사건번호", domain.MetaCaseNumber},
	{"선고일자", domain.MetaDecisionDate},
	{"법원", domain.MetaCourt},
	{"사건종류", domain.MetaCaseType},
}

// FormatContext lays out documents in merge order, one section each. No
// documents yields an empty string.
func FormatContext(docs []domain.Document) string {
	var sb strings.Builder
	for i, d := range docs {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "## 문서 %d\n", i+1)
		for _, f := range contextFields {
			if v := d.Meta(f.key); v != "" {
				fmt.Fprintf(&sb, "%s: %s\n", f.label, v)
			}
		}
		if u := d.SourceURL(); u != "" {
			fmt.Fprintf(&sb, "출처: %s\n", u)
		}
		sb.WriteString("내용:\n")
		sb.WriteString(strings.TrimSpace(d.Content))
		sb.WriteString("\n")
	}
	return sb.String()
}

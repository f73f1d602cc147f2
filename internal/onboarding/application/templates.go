package application

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

type templateSource struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

type compiledTemplate struct {
	subject *template.Template
	body    *template.Template
}

// Templates 按通知类型渲染邮件标题与正文
type Templates struct {
	byKind map[domain.NotificationKind]compiledTemplate
}

// LoadTemplates 从 YAML 文件加载模板，path 为空时使用内置模板
func LoadTemplates(path string) (*Templates, error) {
	data := defaultTemplates
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read templates: %w", err)
		}
		data = b
	}
	return ParseTemplates(data)
}

// ParseTemplates 解析 YAML 模板，所有通知类型都必须有模板
func ParseTemplates(data []byte) (*Templates, error) {
	var src map[string]templateSource
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	t := &Templates{byKind: make(map[domain.NotificationKind]compiledTemplate, len(src))}
	for name, s := range src {
		subject, err := template.New(name + ".subject").Option("missingkey=zero").Parse(s.Subject)
		if err != nil {
			return nil, fmt.Errorf("template %s subject: %w", name, err)
		}
		body, err := template.New(name + ".body").Option("missingkey=zero").Parse(s.Body)
		if err != nil {
			return nil, fmt.Errorf("template %s body: %w", name, err)
		}
		t.byKind[domain.NotificationKind(name)] = compiledTemplate{subject: subject, body: body}
	}

	for _, kind := range []domain.NotificationKind{
		domain.NotificationTrackingIssued,
		domain.NotificationDocumentDecision,
		domain.NotificationCompanyRegistered,
		domain.NotificationEINIssued,
	} {
		if _, ok := t.byKind[kind]; !ok {
			return nil, fmt.Errorf("missing template for %s", kind)
		}
	}
	return t, nil
}

// Render 渲染通知
func (t *Templates) Render(n *domain.Notification) (string, string, error) {
	tpl, ok := t.byKind[n.Kind]
	if !ok {
		return "", "", fmt.Errorf("no template for %s", n.Kind)
	}

	var subject, body strings.Builder
	if err := tpl.subject.Execute(&subject, n.Data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", n.Kind, err)
	}
	if err := tpl.body.Execute(&body, n.Data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", n.Kind, err)
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}

package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

// Template names
const (
	VerifyEmail = "verify_email"
	Welcome     = "welcome"
)

// EmailData defines standard fields for email templates.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	AppName         string `json:"AppName"`
	InstitutionName string `json:"InstitutionName"`
	SupportURL      string `json:"SupportURL"`

	VerifyURL     string    `json:"VerifyURL"`
	ExpiresAt     time.Time `json:"ExpiresAt"`
	ExpiresAtText string    `json:"ExpiresAtText"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.IsZero() {
			return fallback
		}
		return value
	}
}

func baseFuncs() map[string]any {
	return map[string]any{
		"upper":   strings.ToUpper,
		"default": defaultFn,
	}
}

type source struct {
	subject string
	text    string
	html    string
}

var sources = map[string]source{
	VerifyEmail: {
		subject: `Verify your {{ .AppName | default "Campus Connect" }} account`,
		text: `Hi {{ .Name | default "there" }},

Confirm {{ .Email }} to finish signing up for {{ .AppName | default "Campus Connect" }}:
{{ .VerifyURL }}

The link expires {{ .ExpiresAtText | default "in 24 hours" }}.
If you did not register, ignore this email.
`,
		html: `<p>Hi {{ .Name | default "there" }},</p>
<p>Confirm <b>{{ .Email }}</b> to finish signing up for {{ .AppName | default "Campus Connect" }}.</p>
<p><a href="{{ .VerifyURL }}">Verify my email</a></p>
<p>The link expires {{ .ExpiresAtText | default "in 24 hours" }}. If you did not register, ignore this email.</p>`,
	},
	Welcome: {
		subject: `Welcome to {{ .AppName | default "Campus Connect" }}`,
		text: `Hi {{ .Name | default "there" }},

Your email is verified. Browse clubs and events at {{ .InstitutionName | default "your campus" }}.
`,
		html: `<p>Hi {{ .Name | default "there" }},</p>
<p>Your email is verified. Browse clubs and events at {{ .InstitutionName | default "your campus" }}.</p>`,
	},
}

// Render renders subject, text and html for the named template.
func Render(name string, data any) (subject, text, html string, err error) {
	src, ok := sources[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown template %q", name)
	}
	if subject, err = renderText(name+".subject", src.subject, data); err != nil {
		return "", "", "", err
	}
	if text, err = renderText(name+".text", src.text, data); err != nil {
		return "", "", "", err
	}
	tpl, err := htmpl.New(name + ".html").Funcs(htmpl.FuncMap(baseFuncs())).Parse(src.html)
	if err != nil {
		return "", "", "", fmt.Errorf("parse html %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("exec html %q: %w", name, err)
	}
	return strings.TrimSpace(subject), text, buf.String(), nil
}

func renderText(name, body string, data any) (string, error) {
	tpl, err := texttpl.New(name).Funcs(texttpl.FuncMap(baseFuncs())).Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse text %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec text %q: %w", name, err)
	}
	return buf.String(), nil
}

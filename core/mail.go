package core

import (
	"bytes"
	"net/mail"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

type (
	// EmailMessage is a text-only email. TemplateName/TemplateData may be
	// provided instead of BodyStr for templated content.
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently (fire-and-forget).
		SendMessages(messages ...*EmailMessage)
	}
)

var mailTemplates = texttmpl.New("mail")

// RegisterMailTemplate parses and caches a named text template for use
// via EmailMessage.TemplateName.
func RegisterMailTemplate(name, text string) error {
	_, err := mailTemplates.New(name).Parse(text)
	return errors.Wrapf(err, "parsing mail template %s", name)
}

func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" {
		return nil
	}
	tmpl := mailTemplates.Lookup(m.TemplateName)
	if tmpl == nil {
		return errors.Errorf("mail template %s not found", m.TemplateName)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, m.TemplateData); err != nil {
		return errors.Wrapf(err, "rendering mail template %s", m.TemplateName)
	}
	m.TextContent = buf.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.TextContent != ""
}

package email

import (
	"bytes"
	"fmt"
	htemplate "html/template"
	ttemplate "text/template"
)

// Vars son las variables del template de confirmación de submission.
type Vars struct {
	NamespaceID  string
	SubmissionID string
	ContentHash  string
	Timestamp    string
	Deadline     string
}

const defaultSubject = "Comprobante de envío: %s"

const defaultHTML = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Comprobante de envío</h2>
  <p>Tu envío quedó registrado para <strong>{{.NamespaceID}}</strong>.</p>
  <table cellpadding="4">
    <tr><td>Submission ID</td><td><code>{{.SubmissionID}}</code></td></tr>
    <tr><td>Hash del contenido</td><td><code>{{.ContentHash}}</code></td></tr>
    <tr><td>Emitido</td><td>{{.Timestamp}}</td></tr>
    <tr><td>Deadline</td><td>{{.Deadline}}</td></tr>
  </table>
  <p>El certificado firmado va adjunto. Guardalo: es tu prueba de envío en fecha.</p>
</body>
</html>`

const defaultText = `Comprobante de envío

Tu envío quedó registrado para {{.NamespaceID}}.

  Submission ID: {{.SubmissionID}}
  Hash:          {{.ContentHash}}
  Emitido:       {{.Timestamp}}
  Deadline:      {{.Deadline}}

El certificado firmado va adjunto. Guardalo: es tu prueba de envío en fecha.
`

// Templates compila y renderiza el par html/texto de la notificación.
type Templates struct {
	html *htemplate.Template
	text *ttemplate.Template
}

// DefaultTemplates compila los templates embebidos. Panic sería un bug de
// compilación, no de runtime, así que el error se retorna igual.
func DefaultTemplates() (*Templates, error) {
	h, err := htemplate.New("submission_html").Parse(defaultHTML)
	if err != nil {
		return nil, fmt.Errorf("email: parse html template: %w", err)
	}
	x, err := ttemplate.New("submission_text").Parse(defaultText)
	if err != nil {
		return nil, fmt.Errorf("email: parse text template: %w", err)
	}
	return &Templates{html: h, text: x}, nil
}

// Render produce subject, html y texto del mensaje.
func (t *Templates) Render(vars Vars) (subject, html, text string, err error) {
	var hb, tb bytes.Buffer
	if err = t.html.Execute(&hb, vars); err != nil {
		return "", "", "", fmt.Errorf("email: render html: %w", err)
	}
	if err = t.text.Execute(&tb, vars); err != nil {
		return "", "", "", fmt.Errorf("email: render text: %w", err)
	}
	return fmt.Sprintf(defaultSubject, vars.NamespaceID), hb.String(), tb.String(), nil
}

package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"

	domain "achievements/internal/domain/achievement"
)

var submittedTmpl = template.Must(template.New("submitted").Parse(`<h2>New achievement awaiting approval</h2>
<p><strong>{{.Title}}</strong> ({{.Category}})</p>
<p>Date: {{.Date}}{{if .Organization}} &middot; {{.Organization}}{{end}}</p>
<div>{{.Description}}</div>
{{if .ProofURL}}<p><a href="{{.ProofURL}}">View proof</a></p>{{end}}`))

// SubmissionNotifier emails the approvers when an achievement is submitted.
type SubmissionNotifier struct {
	sender    Sender
	approvers []string
	baseURL   string
}

// NewSubmissionNotifier creates a notifier. Each approver gets a separate message.
// PRE: sender is non-nil
// POST: A notifier with no approvers sends nothing
func NewSubmissionNotifier(sender Sender, approvers []string, baseURL string) *SubmissionNotifier {
	var cleaned []string
	for _, a := range approvers {
		if a = strings.TrimSpace(a); a != "" {
			cleaned = append(cleaned, a)
		}
	}
	return &SubmissionNotifier{sender: sender, approvers: cleaned, baseURL: strings.TrimRight(baseURL, "/")}
}

// NotifySubmitted sends the "awaiting approval" message.
// PRE: a is a stored, pending achievement
// POST: One message per approver is handed to the sender
func (n *SubmissionNotifier) NotifySubmitted(ctx context.Context, a domain.Achievement) error {
	if len(n.approvers) == 0 {
		return nil
	}
	body, err := n.render(a)
	if err != nil {
		return err
	}
	reqs := make([]SendRequest, 0, len(n.approvers))
	for _, to := range n.approvers {
		reqs = append(reqs, SendRequest{
			To:      []string{to},
			Subject: "Achievement submitted: " + a.Title,
			HTML:    body,
		})
	}
	if _, err := n.sender.SendBatch(ctx, reqs); err != nil {
		return fmt.Errorf("notify approvers: %w", err)
	}
	return nil
}

func (n *SubmissionNotifier) render(a domain.Achievement) (string, error) {
	var desc bytes.Buffer
	if err := goldmark.Convert([]byte(a.Description), &desc); err != nil {
		return "", fmt.Errorf("render description: %w", err)
	}
	proofURL := a.ProofURL
	if proofURL != "" && strings.HasPrefix(proofURL, "/") {
		proofURL = n.baseURL + proofURL
	}

	var buf bytes.Buffer
	err := submittedTmpl.Execute(&buf, map[string]any{
		"Title":        a.Title,
		"Category":     a.Category.Label(),
		"Date":         a.Date,
		"Organization": a.Organization,
		"Description":  template.HTML(desc.String()),
		"ProofURL":     proofURL,
	})
	if err != nil {
		return "", fmt.Errorf("render notification: %w", err)
	}
	return buf.String(), nil
}

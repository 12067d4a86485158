package email

import (
	"fmt"
	"strings"

	"punkdir/internal/config"
	"punkdir/internal/models"
)

// Templates renders notification email bodies.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a template renderer.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// EditSubmitted is sent to admins when a new edit needs review.
func (t *Templates) EditSubmitted(edit *models.PendingEdit, submitter *models.User) (subject, htmlBody, textBody string) {
	name := "a user"
	if submitter != nil && submitter.Name != "" {
		name = submitter.Name
	}

	subject = fmt.Sprintf("[%s] New edit suggestion for %s #%d", t.cfg.SiteTitle, edit.EntityType, edit.EntityID)

	fields := strings.Join(edit.FieldChanges.Fields(), ", ")
	textBody = fmt.Sprintf(
		"%s suggested an edit to %s #%d.\n\nFields: %s\n\nReview it at %s/admin/review-edits\n",
		name, edit.EntityType, edit.EntityID, fields, t.cfg.BaseURL,
	)
	htmlBody = fmt.Sprintf(
		"<p><strong>%s</strong> suggested an edit to %s #%d.</p><p>Fields: %s</p><p><a href=\"%s/admin/review-edits\">Review it</a></p>",
		name, edit.EntityType, edit.EntityID, fields, t.cfg.BaseURL,
	)
	return subject, htmlBody, textBody
}

// EditReviewed is sent to the submitter when their edit is approved or rejected.
func (t *Templates) EditReviewed(result *models.ReviewResult, notes *string) (subject, htmlBody, textBody string) {
	verb := "approved"
	if result.Action == "reject" {
		verb = "rejected"
	}

	subject = fmt.Sprintf("[%s] Your edit to %s #%d was %s", t.cfg.SiteTitle, result.EntityType, result.EntityID, verb)

	noteLine := ""
	if notes != nil && *notes != "" {
		noteLine = fmt.Sprintf("\n\nReviewer notes: %s", *notes)
	}
	textBody = fmt.Sprintf("Your suggested edit to %s #%d was %s.%s\n", result.EntityType, result.EntityID, verb, noteLine)

	noteHTML := ""
	if notes != nil && *notes != "" {
		noteHTML = fmt.Sprintf("<p>Reviewer notes: %s</p>", *notes)
	}
	htmlBody = fmt.Sprintf("<p>Your suggested edit to %s #%d was <strong>%s</strong>.</p>%s", result.EntityType, result.EntityID, verb, noteHTML)

	return subject, htmlBody, textBody
}

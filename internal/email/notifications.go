package email

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"punkdir/internal/config"
	"punkdir/internal/models"
)

// RecipientSource is an interface for resolving notification recipients.
type RecipientSource interface {
	GetAdminEmails(ctx context.Context) ([]string, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// Notifier sends email notifications for moderation events.
type Notifier struct {
	service   *Service
	templates *Templates
	cfg       *config.Config
	db        RecipientSource
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config, db RecipientSource) *Notifier {
	return &Notifier{
		service:   NewService(cfg),
		templates: NewTemplates(cfg),
		cfg:       cfg,
		db:        db,
	}
}

// NotifyEditSubmitted notifies admins that a new edit needs review.
func (n *Notifier) NotifyEditSubmitted(ctx context.Context, edit *models.PendingEdit, submitter *models.User) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyAdminsOnSubmit {
		return
	}

	emails, err := n.db.GetAdminEmails(ctx)
	if err != nil {
		slog.Error("failed to get admin emails", "error", err)
		return
	}
	if len(emails) == 0 {
		return
	}

	subject, htmlBody, textBody := n.templates.EditSubmitted(edit, submitter)
	n.service.SendAsync(emails, subject, htmlBody, textBody)
}

// NotifyEditReviewed notifies the submitter of the review outcome.
func (n *Notifier) NotifyEditReviewed(ctx context.Context, result *models.ReviewResult, notes *string) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyUserOnReview {
		return
	}

	// Submissions outlive accounts; nothing to notify after deletion.
	if result.SubmittedBy == nil {
		return
	}

	submitter, err := n.db.GetUserByID(ctx, *result.SubmittedBy)
	if err != nil {
		slog.Error("failed to get edit submitter", "error", err)
		return
	}
	if submitter.Email == "" {
		return
	}

	subject, htmlBody, textBody := n.templates.EditReviewed(result, notes)
	n.service.SendAsync([]string{submitter.Email}, subject, htmlBody, textBody)
}

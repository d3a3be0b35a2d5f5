package services

import (
	"context"
	"fmt"
	"log"

	"kabro/internal/apperr"
	"kabro/internal/email"
	"kabro/internal/models"
	"kabro/internal/notify"
	"kabro/internal/repositories"
)

// ContactSubject is the subject of the owner notification.
const ContactSubject = "Nouveau message de contact"

// ContactInput is the contact form payload.
type ContactInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

// ContactService records contact messages and forwards them to the owner.
type ContactService struct {
	repo      repositories.ContactRepository
	renderer  *email.Renderer
	mailer    notify.Notifier
	recipient string
}

// NewContactService creates a new ContactService.
func NewContactService(repo repositories.ContactRepository, renderer *email.Renderer, mailer notify.Notifier, recipient string) *ContactService {
	return &ContactService{repo: repo, renderer: renderer, mailer: mailer, recipient: recipient}
}

// Submit persists the message and emails it to the owner with Reply-To set
// to the visitor. Email failures are logged and never fail the call.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*models.Receipt, error) {
	if err := invalidIfAny(validateStruct(in)); err != nil {
		return nil, err
	}

	msg := &models.ContactMessage{Name: in.Name, Email: in.Email, Message: in.Message}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, apperr.Persistence("create contact message", err)
	}
	log.Printf("Contact message #%d recorded from %s", msg.ID, msg.Email)

	receipt := &models.Receipt{ID: msg.ID}
	rendered, err := s.renderer.Contact(*msg)
	if err != nil {
		log.Printf("Contact #%d: rendering failed: %v", msg.ID, err)
		return receipt, nil
	}

	out, err := s.mailer.Deliver(context.WithoutCancel(ctx), notify.Message{
		To:          s.recipient,
		ReplyTo:     msg.Email,
		Subject:     ContactSubject,
		HTML:        rendered.HTML,
		Attachments: rendered.Attachments,
	})
	logOutcome(fmt.Sprintf("Contact #%d", msg.ID), out, err)
	if err == nil && out != nil {
		receipt.PreviewURL = out.PreviewURL
	}
	return receipt, nil
}

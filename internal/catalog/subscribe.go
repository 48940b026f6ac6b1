package catalog

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/model"
)

// Subscribe stores or replaces the species list of an email address.
func (s *Service) Subscribe(ctx context.Context, req model.SubscriptionRequest) (model.MessageResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || len(req.Tags) == 0 {
		return model.MessageResponse{}, ErrInvalidInput.New("email and tags are required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return model.MessageResponse{}, ErrInvalidInput.New("email %q is not a valid address", email)
	}
	sub := model.NewTagSubscription(email, req.Tags)
	if sub.Tags == "" {
		return model.MessageResponse{}, ErrInvalidInput.New("tags must contain at least one species")
	}
	if s.subs == nil {
		return model.MessageResponse{}, Error.New("subscriptions are not configured")
	}

	if err := s.subs.PutSubscription(ctx, sub); err != nil {
		return model.MessageResponse{}, Error.Wrap(err)
	}
	s.log.Info("saved subscription", zap.String("email", sub.Email), zap.String("tags", sub.Tags))
	return model.MessageResponse{Message: "Subscription saved successfully"}, nil
}

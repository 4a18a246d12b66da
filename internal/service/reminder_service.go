package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"calendar_reminders/internal/models"
	"calendar_reminders/internal/repository"
	"calendar_reminders/internal/status"
)

var ErrInvalidInput = errors.New("invalid input")

type ReminderService struct {
	repo   *repository.ReminderRepository
	logger *log.Logger
}

func NewReminderService(repo *repository.ReminderRepository, logger *log.Logger) *ReminderService {
	if logger == nil {
		logger = log.Default()
	}
	return &ReminderService{
		repo:   repo,
		logger: logger,
	}
}

func (s *ReminderService) CreateReminder(ctx context.Context, groupID int64, req *models.ReminderRequest) (*models.Reminder, error) {
	if err := validateReminderRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.Create(ctx, groupID, req)
}

func (s *ReminderService) GetReminder(ctx context.Context, groupID, id int64) (*models.Reminder, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid id", ErrInvalidInput)
	}
	return s.repo.Get(ctx, groupID, id)
}

// ListReminders: без start возвращаются waiting-напоминания,
// со start — страница по due > start.
func (s *ReminderService) ListReminders(ctx context.Context, groupID int64, start *int64, limit int) ([]*models.Reminder, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if start == nil {
		return s.repo.ListByStatus(ctx, groupID, status.Waiting, limit)
	}
	return s.repo.ListByStart(ctx, groupID, *start, limit)
}

func (s *ReminderService) UpdateReminder(ctx context.Context, groupID, id int64, req *models.ReminderRequest) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid id", ErrInvalidInput)
	}
	if err := validateReminderRequest(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.Update(ctx, groupID, id, req)
}

func (s *ReminderService) DeleteReminder(ctx context.Context, groupID, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid id", ErrInvalidInput)
	}
	return s.repo.Delete(ctx, groupID, id)
}

func validateReminderRequest(req *models.ReminderRequest) error {
	if req == nil {
		return errors.New("request is nil")
	}
	if strings.TrimSpace(req.Action) == "" {
		return errors.New("action is required")
	}
	if req.Due <= 0 {
		return errors.New("due must be a positive unix timestamp in milliseconds")
	}
	if len(req.Recipients) == 0 {
		return errors.New("at least one recipient is required")
	}
	for _, id := range req.Recipients {
		if id <= 0 {
			return errors.New("recipient ids must be positive")
		}
	}
	return nil
}

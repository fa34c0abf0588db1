package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hirehall/dealflow/internal/repository"
	"github.com/google/uuid"
)

// Service handles project operations outside the transition coordinator:
// creation and read paths.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	ClientID   string
	CategoryID string
	Title      string
}

// Create creates a new project in the open status.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if strings.TrimSpace(req.ClientID) == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(req.CategoryID) == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrInvalidInput
	}

	now := time.Now()
	proj := &Project{
		ID:         uuid.NewString(),
		ClientID:   req.ClientID,
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Status:     StatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// ListByClient returns summaries of a client's projects.
func (s *Service) ListByClient(ctx context.Context, clientID string) ([]Summary, error) {
	return s.repo.ListByClient(ctx, clientID)
}

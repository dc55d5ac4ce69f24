package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrControllerNameRequired = errors.New("controller name is required")
	ErrControllerNoteTooLong  = errors.New("controller note must be at most 50 characters")
	ErrControllerInUse        = errors.New("controller is referenced by shift assignments")
)

const maxControllerNoteLength = 50

// ControllerService handles roster management
type ControllerService struct {
	controllerRepo repository.ControllerRepository
	mode           models.BoardMode
	log            logrus.FieldLogger
}

// NewControllerService creates a new ControllerService
func NewControllerService(controllerRepo repository.ControllerRepository, mode models.BoardMode, log logrus.FieldLogger) *ControllerService {
	return &ControllerService{
		controllerRepo: controllerRepo,
		mode:           mode,
		log:            log.WithField("component", "controller_service"),
	}
}

// Statuses returns the enumeration controllers use in the configured mode.
func (s *ControllerService) Statuses() models.StatusSet {
	return s.mode.ControllerStatuses()
}

// ControllerInput represents input for creating or updating a controller
type ControllerInput struct {
	Name           string
	Note           string
	ControllerType string
	IsActive       *bool
}

func (in ControllerInput) normalize() (ControllerInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Note = strings.TrimSpace(in.Note)
	in.ControllerType = strings.TrimSpace(in.ControllerType)

	if in.Name == "" {
		return in, ErrControllerNameRequired
	}
	return in, nil
}

// checkNote limits notes written through the roster. Status notes appended
// by the engine may grow the stored note past the limit.
func checkNote(note string) error {
	if utf8.RuneCountInString(note) > maxControllerNoteLength {
		return ErrControllerNoteTooLong
	}
	return nil
}

// CreateController adds a controller in the mode's default status.
func (s *ControllerService) CreateController(ctx context.Context, input ControllerInput) (*models.Controller, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}
	if err := checkNote(input.Note); err != nil {
		return nil, err
	}

	controller := &models.Controller{
		Name:           input.Name,
		Note:           input.Note,
		ControllerType: input.ControllerType,
		IsActive:       true,
		Status:         s.mode.DefaultControllerStatus(),
	}
	if input.IsActive != nil {
		controller.IsActive = *input.IsActive
	}

	if err := s.controllerRepo.Create(ctx, controller); err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	return controller, nil
}

// GetController retrieves a controller by ID.
func (s *ControllerService) GetController(ctx context.Context, id uint64) (*models.Controller, error) {
	controller, err := s.controllerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrControllerNotFound
		}
		return nil, fmt.Errorf("failed to find controller: %w", err)
	}
	return controller, nil
}

// ListControllersInput represents filters for listing controllers
type ListControllersInput struct {
	ControllerType  string
	IncludeInactive bool
}

// ListControllers returns the roster ordered by name.
func (s *ControllerService) ListControllers(ctx context.Context, input ListControllersInput) ([]models.Controller, error) {
	filter := repository.ControllerFilter{IncludeInactive: input.IncludeInactive}
	if t := strings.TrimSpace(input.ControllerType); t != "" {
		filter.ControllerType = &t
	}

	controllers, err := s.controllerRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list controllers: %w", err)
	}
	return controllers, nil
}

// UpdateController replaces a controller's descriptive fields. Status is
// only changed through the status engine. Sending the stored note back
// unchanged is accepted whatever its length; a different note replaces it.
func (s *ControllerService) UpdateController(ctx context.Context, id uint64, input ControllerInput) (*models.Controller, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	controller, err := s.GetController(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Note != strings.TrimSpace(controller.Note) {
		if err := checkNote(input.Note); err != nil {
			return nil, err
		}
	} else {
		input.Note = controller.Note
	}

	controller.Name = input.Name
	controller.Note = input.Note
	controller.ControllerType = input.ControllerType
	if input.IsActive != nil {
		controller.IsActive = *input.IsActive
	}

	if err := s.controllerRepo.Update(ctx, controller); err != nil {
		return nil, fmt.Errorf("failed to update controller: %w", err)
	}

	return controller, nil
}

// DeleteController removes a controller that no assignment references.
func (s *ControllerService) DeleteController(ctx context.Context, id uint64) error {
	if _, err := s.GetController(ctx, id); err != nil {
		return err
	}

	count, err := s.controllerRepo.CountAssignments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count assignments: %w", err)
	}
	if count > 0 {
		return ErrControllerInUse
	}

	if err := s.controllerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete controller: %w", err)
	}

	s.log.WithField("controller_id", id).Info("Controller deleted")
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"career-advisor/internal/domain"
	"career-advisor/internal/repository"
)

// UserService coordina registro, login y skills declaradas del usuario.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
	skills repository.UserSkillRepository
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, skills repository.UserSkillRepository) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{logger: logger, users: users, skills: skills}
}

type CreateUserInput struct {
	Email          string `json:"email" validate:"required,email"`
	DisplayName    string `json:"display_name" validate:"max=120"`
	Password       string `json:"password" validate:"required,min=8,max=72"`
	EducationLevel string `json:"education_level" validate:"omitempty,oneof=high_school bachelor master phd diploma certification other"`
	Location       string `json:"location" validate:"max=120"`
}

type SetSkillInput struct {
	SkillID           string  `json:"skill_id" validate:"required,uuid"`
	ProficiencyLevel  string  `json:"proficiency_level" validate:"required,oneof=beginner intermediate advanced expert"`
	YearsOfExperience float64 `json:"years_of_experience" validate:"min=0,max=60"`
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (domain.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.Location = strings.TrimSpace(input.Location)
	if err := validateInput(input); err != nil {
		return domain.User{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:             uuid.NewString(),
		Email:          input.Email,
		DisplayName:    input.DisplayName,
		PasswordHash:   string(hashBytes),
		EducationLevel: input.EducationLevel,
		Location:       input.Location,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("%w: create user: %v", domain.ErrPersistence, err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return user, err
}

// SetSkill registra o actualiza una skill declarada por el usuario.
func (s *UserService) SetSkill(ctx context.Context, userID string, input SetSkillInput) (domain.UserSkill, error) {
	if err := validateInput(input); err != nil {
		return domain.UserSkill{}, err
	}
	skill := domain.UserSkill{
		UserID:            userID,
		SkillID:           input.SkillID,
		ProficiencyLevel:  input.ProficiencyLevel,
		YearsOfExperience: input.YearsOfExperience,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.skills.Upsert(ctx, skill); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return domain.UserSkill{}, fmt.Errorf("%w: skill %s", domain.ErrNotFound, input.SkillID)
		}
		return domain.UserSkill{}, fmt.Errorf("%w: upsert skill: %v", domain.ErrPersistence, err)
	}
	return skill, nil
}

func (s *UserService) ListSkills(ctx context.Context, userID string) ([]domain.UserSkill, error) {
	skills, err := s.skills.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return skills, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

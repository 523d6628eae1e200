package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	applog "invoicing/internal/log"
	"invoicing/internal/model"
	"invoicing/internal/repository"
	"invoicing/internal/session"

	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// DTOs for Request validation
type SignUpRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Name       string `json:"name" binding:"required"`
	Department string `json:"department"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// DTO for returning an Agent without exposing the password hash
type AgentResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       string `json:"role"`
	CreatedAt  string `json:"created_at"`
}

type SignInResponse struct {
	Token     string          `json:"token"`
	ExpiresAt string          `json:"expires_at"`
	Agent     AgentResponse   `json:"agent"`
	Session   SessionResponse `json:"session"`
}

// AuthService owns accounts and the session lifecycle: sign-in creates a
// session, sign-out deletes it.
type AuthService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*AgentResponse, error)
	SignIn(ctx context.Context, req SignInRequest) (*SignInResponse, error)
	SignOut(ctx context.Context, sess *session.Session) error
	Me(ctx context.Context, sess *session.Session) (*AgentResponse, error)
	// Authenticate resolves a bearer token to its live session.
	Authenticate(ctx context.Context, token string) (*session.Session, error)
	// EnsureDirector creates the configured director account when missing.
	EnsureDirector(ctx context.Context, email, password, name string) error
}

type authService struct {
	repos  repository.Set
	store  session.Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *applog.Logger
}

func NewAuthService(repos repository.Set, store session.Store, secret []byte, ttl time.Duration, clock func() time.Time, logger *applog.Logger) AuthService {
	if clock == nil {
		clock = time.Now
	}
	return &authService{
		repos:  repos,
		store:  store,
		secret: secret,
		ttl:    ttl,
		now:    clock,
		logger: logger.WithComponent(applog.ComponentAuth),
	}
}

func toAgentResponse(a *model.Agent) AgentResponse {
	return AgentResponse{
		ID:         a.ID.String(),
		Name:       a.Name,
		Email:      a.Email,
		Department: a.Department,
		Role:       string(a.Role),
		CreatedAt:  a.CreatedAt.Format(timestampLayout),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) createAccount(ctx context.Context, email, password, name, department string, role model.Role) (*model.Agent, error) {
	email = normalizeEmail(email)
	if !emailRegex.MatchString(email) {
		return nil, inputError("email", "invalid email format")
	}
	if len(password) < 8 {
		return nil, inputError("password", "must be at least 8 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, inputError("name", "is required")
	}

	if _, err := s.repos.Agents.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email %s", ErrConflict, email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	agent := &model.Agent{
		Name:         strings.TrimSpace(name),
		Email:        email,
		Department:   strings.TrimSpace(department),
		Role:         role,
		PasswordHash: string(hashed),
	}

	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Agents.Create(txCtx, agent); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		details, _ := json.Marshal(map[string]interface{}{
			"email": agent.Email,
			"role":  agent.Role,
		})
		agentID := agent.ID
		return s.repos.Audit.Log(txCtx, &model.AuditLog{
			AgentID:  &agentID,
			Action:   model.ActionSignUp,
			EntityID: agent.ID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// SignUp always creates an agent; the director role cannot be self-assigned.
func (s *authService) SignUp(ctx context.Context, req SignUpRequest) (*AgentResponse, error) {
	agent, err := s.createAccount(ctx, req.Email, req.Password, req.Name, req.Department, model.RoleAgent)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "agent signed up", applog.FieldAgentID, agent.ID.String())
	res := toAgentResponse(agent)
	return &res, nil
}

func (s *authService) SignIn(ctx context.Context, req SignInRequest) (*SignInResponse, error) {
	agent, err := s.repos.Agents.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(agent.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if !agent.Role.Valid() {
		return nil, fmt.Errorf("%w: account has no valid role", ErrForbidden)
	}

	sess := session.New(agent, s.now(), s.ttl)
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	token, err := session.Sign(sess, s.secret)
	if err != nil {
		_ = s.store.Delete(ctx, sess.ID)
		return nil, err
	}

	s.logger.InfoContext(ctx, "agent signed in",
		applog.FieldAgentID, agent.ID.String(),
		applog.FieldRole, string(agent.Role),
		applog.FieldSessionID, sess.ID.String())

	return &SignInResponse{
		Token:     token,
		ExpiresAt: sess.ExpiresAt.Format(timestampLayout),
		Agent:     toAgentResponse(agent),
		Session:   toSessionResponse(sess),
	}, nil
}

func (s *authService) SignOut(ctx context.Context, sess *session.Session) error {
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	s.logger.InfoContext(ctx, "agent signed out", applog.FieldSessionID, sess.ID.String())
	return nil
}

func (s *authService) Me(ctx context.Context, sess *session.Session) (*AgentResponse, error) {
	agent, err := s.repos.Agents.FindByID(ctx, sess.AgentID)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", sess.AgentID, err)
	}
	res := toAgentResponse(agent)
	return &res, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*session.Session, error) {
	claims, err := session.Parse(token, s.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	sess, err := s.store.Get(ctx, claims.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, fmt.Errorf("%w: session ended", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if sess.AgentID.String() != claims.Subject || sess.Expired(s.now()) {
		return nil, fmt.Errorf("%w: session mismatch", ErrUnauthorized)
	}
	return sess, nil
}

func (s *authService) EnsureDirector(ctx context.Context, email, password, name string) error {
	if email == "" {
		return nil
	}
	existing, err := s.repos.Agents.FindByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil && existing.IsDirector():
		return nil
	case err == nil:
		return fmt.Errorf("account %s exists with role %s", existing.Email, existing.Role)
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("failed to look up director: %w", err)
	}

	agent, err := s.createAccount(ctx, email, password, name, "Management", model.RoleDirector)
	if err != nil {
		return err
	}
	s.logger.Info("director account created", applog.FieldAgentID, agent.ID.String())
	return nil
}


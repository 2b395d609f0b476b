package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/crypto"
	"perfeval/internal/platform/docstore"
)

// CompanyDirectory confirms that a selected company exists and is active.
type CompanyDirectory interface {
	GetCompany(ctx context.Context, id string) (tenant.Company, error)
}

type Service struct {
	store     StoreAPI
	companies CompanyDirectory
	crypto    *crypto.Service
	secret    string
	ttl       time.Duration
}

func NewService(store StoreAPI, companies CompanyDirectory, sealer *crypto.Service, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{store: store, companies: companies, crypto: sealer, secret: secret, ttl: ttl}
}

func (s *Service) Secret() string {
	return s.secret
}

// Login checks the password and, when enabled, the TOTP code. A user with a
// single company membership gets that company preselected in the token.
func (s *Service) Login(ctx context.Context, email, password, code string) (LoginResult, error) {
	user, found, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}
	if !found || user.Status != UserStatusActive {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.MFAEnabled {
		if code == "" {
			return LoginResult{}, ErrMFARequired
		}
		secret, err := s.openSecret(user.MFASecretEnc)
		if err != nil || secret == "" || !totp.Validate(code, secret) {
			return LoginResult{}, ErrInvalidMFACode
		}
	}

	role, err := s.store.GetRole(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	companyID := ""
	if len(user.CompanyIDs) == 1 {
		companyID = user.CompanyIDs[0]
	}
	result, err := s.issue(user, role, companyID)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.store.UpdateUser(ctx, user.ID, map[string]any{"lastLoginAt": docstore.Now()}); err != nil {
		slog.Warn("update lastLoginAt failed", "userId", user.ID, "err", err)
	}
	return result, nil
}

// SelectCompany re-issues the token scoped to companyID.
func (s *Service) SelectCompany(ctx context.Context, userID, companyID string) (LoginResult, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return LoginResult{}, err
	}
	if user.Status != UserStatusActive {
		return LoginResult{}, ErrInvalidCredentials
	}
	role, err := s.store.GetRole(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	if !CanAccessCompany(user, role, companyID) {
		return LoginResult{}, ErrCompanyNotAllowed
	}
	if s.companies != nil {
		company, err := s.companies.GetCompany(ctx, companyID)
		if errors.Is(err, docstore.ErrNotFound) {
			return LoginResult{}, ErrCompanyNotAllowed
		}
		if err != nil {
			return LoginResult{}, err
		}
		if !company.Active {
			return LoginResult{}, ErrCompanyNotAllowed
		}
	}
	return s.issue(user, role, companyID)
}

// AllowedCompanies returns the membership list, or nil when every company is
// allowed.
func (s *Service) AllowedCompanies(ctx context.Context, userID string) ([]string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	role, err := s.store.GetRole(ctx, userID)
	if err != nil {
		return nil, err
	}
	if role == RoleAdmin && len(user.CompanyIDs) == 0 {
		return nil, nil
	}
	return user.CompanyIDs, nil
}

func CanAccessCompany(user User, role, companyID string) bool {
	if companyID == "" {
		return false
	}
	if role == RoleAdmin && len(user.CompanyIDs) == 0 {
		return true
	}
	return slices.Contains(user.CompanyIDs, companyID)
}

func (s *Service) issue(user User, role, companyID string) (LoginResult, error) {
	token, err := GenerateToken(s.secret, Claims{UserID: user.ID, TenantID: companyID, Role: role, Name: user.Name}, s.ttl)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{
		Token: token,
		User: Identity{
			ID:         user.ID,
			Email:      user.Email,
			Name:       user.Name,
			Role:       role,
			CompanyID:  companyID,
			CompanyIDs: user.CompanyIDs,
			MFAEnabled: user.MFAEnabled,
		},
	}, nil
}

// SetupMFA generates a new TOTP secret. It stays disabled until EnableMFA
// confirms a code.
func (s *Service) SetupMFA(ctx context.Context, userID string) (MFASetup, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return MFASetup{}, err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      mfaIssuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFASetup{}, fmt.Errorf("generate mfa secret: %w", err)
	}
	sealed, err := s.sealSecret(key.Secret())
	if err != nil {
		return MFASetup{}, err
	}
	if err := s.store.UpdateUser(ctx, userID, map[string]any{"mfaSecretEnc": sealed, "mfaEnabled": false}); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

func (s *Service) EnableMFA(ctx context.Context, userID, code string) error {
	if err := s.verifyCode(ctx, userID, code); err != nil {
		return err
	}
	return s.store.UpdateUser(ctx, userID, map[string]any{"mfaEnabled": true})
}

func (s *Service) DisableMFA(ctx context.Context, userID, code string) error {
	if err := s.verifyCode(ctx, userID, code); err != nil {
		return err
	}
	return s.store.UpdateUser(ctx, userID, map[string]any{"mfaEnabled": false, "mfaSecretEnc": ""})
}

func (s *Service) verifyCode(ctx context.Context, userID, code string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.MFASecretEnc == "" {
		return ErrMFANotConfigured
	}
	secret, err := s.openSecret(user.MFASecretEnc)
	if err != nil || !totp.Validate(code, secret) {
		return ErrInvalidMFACode
	}
	return nil
}

// Secrets are stored in plain text only when no encryption key is configured.
func (s *Service) sealSecret(secret string) (string, error) {
	if s.crypto == nil || !s.crypto.Configured() {
		return secret, nil
	}
	return s.crypto.SealString(secret)
}

func (s *Service) openSecret(stored string) (string, error) {
	if s.crypto == nil || !s.crypto.Configured() {
		return stored, nil
	}
	return s.crypto.OpenString(stored)
}

func (s *Service) CreateUser(ctx context.Context, input UserInput) (User, error) {
	if !slices.Contains(Roles, input.Role) {
		return User{}, ErrInvalidRole
	}
	if _, found, err := s.store.FindUserByEmail(ctx, input.Email); err != nil {
		return User{}, err
	} else if found {
		return User{}, ErrUserExists
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return User{}, err
	}
	user := User{
		Email:        normalizeEmail(input.Email),
		Name:         input.Name,
		PasswordHash: hash,
		Status:       UserStatusActive,
		CompanyIDs:   input.CompanyIDs,
	}
	id, err := s.store.CreateUser(ctx, user, input.Role)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return User{}, ErrUserExists
	}
	if err != nil {
		return User{}, err
	}
	user.ID = id
	return user.Public(), nil
}

// EnsureUser creates the user when the email is unknown and returns it either way.
func (s *Service) EnsureUser(ctx context.Context, input UserInput) (User, bool, error) {
	existing, found, err := s.store.FindUserByEmail(ctx, input.Email)
	if err != nil {
		return User{}, false, err
	}
	if found {
		return existing.Public(), false, nil
	}
	user, err := s.CreateUser(ctx, input)
	return user, err == nil, err
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].Public()
	}
	return users, nil
}

func (s *Service) SetRole(ctx context.Context, userID, role string) error {
	if !slices.Contains(Roles, role) {
		return ErrInvalidRole
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return err
	}
	return s.store.SetRole(ctx, userID, role)
}

func (s *Service) SetMemberships(ctx context.Context, userID string, companyIDs []string) error {
	if companyIDs == nil {
		companyIDs = []string{}
	}
	return s.store.UpdateUser(ctx, userID, map[string]any{"companyIds": companyIDs})
}

func (s *Service) SetStatus(ctx context.Context, userID, status string) error {
	if status != UserStatusActive && status != UserStatusDisabled {
		return ErrInvalidStatus
	}
	return s.store.UpdateUser(ctx, userID, map[string]any{"status": status})
}

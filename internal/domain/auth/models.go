package auth

// User is global; CompanyIDs lists the tenants the user may select. An admin
// with no memberships may select any company.
type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	PasswordHash string   `json:"passwordHash,omitempty"`
	Status       string   `json:"status"`
	CompanyIDs   []string `json:"companyIds,omitempty"`
	MFAEnabled   bool     `json:"mfaEnabled"`
	MFASecretEnc string   `json:"mfaSecretEnc,omitempty"`
	LastLoginAt  string   `json:"lastLoginAt,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
	UpdatedAt    string   `json:"updatedAt,omitempty"`
}

// UserRole is stored under the user's id.
type UserRole struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type UserInput struct {
	Email      string   `json:"email" validate:"required,email"`
	Name       string   `json:"name" validate:"required,max=120"`
	Password   string   `json:"password" validate:"required,min=8"`
	Role       string   `json:"role" validate:"required,oneof=admin manager evaluator viewer"`
	CompanyIDs []string `json:"companyIds"`
}

// UserContext is what the auth middleware places on the request context.
type UserContext struct {
	UserID   string
	TenantID string
	Role     string
	Name     string
}

type Identity struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Role       string   `json:"role"`
	CompanyID  string   `json:"companyId,omitempty"`
	CompanyIDs []string `json:"companyIds,omitempty"`
	MFAEnabled bool     `json:"mfaEnabled"`
}

type LoginResult struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

// Public strips credentials before a user leaves the service.
func (u User) Public() User {
	u.PasswordHash = ""
	u.MFASecretEnc = ""
	return u
}

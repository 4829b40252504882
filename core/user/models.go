package user

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/Aarth-Web/ss-backend/core"
)

// Roles
const (
	RoleSuperadmin  = "superadmin"
	RoleSchooladmin = "schooladmin"
	RoleTeacher     = "teacher"
	RoleStudent     = "student"
)

var (
	AllRoles = []string{RoleSuperadmin, RoleSchooladmin, RoleTeacher, RoleStudent}

	rolePriorities = map[string]int{
		RoleSuperadmin:  40,
		RoleSchooladmin: 30,
		RoleTeacher:     20,
		RoleStudent:     10,
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func ValidRole(role string) bool {
	_, ok := rolePriorities[role]
	return ok
}

// AdditionalInfo is the free-form profile sub-record. Unknown keys sent by
// clients are dropped on binding.
type AdditionalInfo struct {
	ParentLanguage   string `json:"parentLanguage,omitempty"`
	ParentOccupation string `json:"parentOccupation,omitempty"`
	Address          string `json:"address,omitempty"`
	Bio              string `json:"bio,omitempty"`
	Preferences      string `json:"preferences,omitempty"`
}

func (ai AdditionalInfo) IsZero() bool {
	return ai == AdditionalInfo{}
}

func (ai AdditionalInfo) Value() (driver.Value, error) {
	b, err := json.Marshal(ai)
	return b, errors.Wrap(err, "marshaling additional info")
}

func (ai *AdditionalInfo) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.New("scanning additional info: unsupported source type")
	}
	return errors.Wrap(json.Unmarshal(b, ai), "unmarshaling additional info")
}

type User struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	RegistrationID string          `json:"registrationId"`
	Role           string          `json:"role"`
	SchoolID       string          `json:"school,omitempty"`
	Email          string          `json:"email,omitempty"`
	Mobile         string          `json:"mobile,omitempty"`
	IsActive       bool            `json:"isActive"`
	AdditionalInfo *AdditionalInfo `json:"additionalInfo,omitempty"`
	PasswordHash   []byte          `json:"-"`
	CreatedAt      time.Time       `json:"createdAt"` // UTC
	UpdatedAt      time.Time       `json:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsSuperadmin() bool  { return u.Role == RoleSuperadmin }
func (u *User) IsSchooladmin() bool { return u.Role == RoleSchooladmin }
func (u *User) IsTeacher() bool     { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool     { return u.Role == RoleStudent }

func (u *User) IsAdmin() bool {
	return u.Role == RoleSuperadmin || u.Role == RoleSchooladmin
}

func (u *User) SameSchool(schoolID string) bool {
	return u.SchoolID != "" && u.SchoolID == schoolID
}

// ParentLanguage returns the student's configured parent language, defaulting
// to english.
func (u *User) ParentLanguage() string {
	if u.AdditionalInfo != nil && IsLanguage(u.AdditionalInfo.ParentLanguage) {
		return core.CleanString(u.AdditionalInfo.ParentLanguage, true /* lower */)
	}
	return LanguageEnglish
}

// NewUser contains information needed to onboard a new User.
type NewUser struct {
	Name             string          `json:"name" validate:"required"`
	Role             string          `json:"role" validate:"required,role"`
	SchoolID         string          `json:"schoolId"`
	Email            string          `json:"email" validate:"omitempty,email"`
	Mobile           string          `json:"mobile"`
	ParentLanguage   string          `json:"parentLanguage" validate:"omitempty,parentlang"`
	ParentOccupation string          `json:"parentOccupation"`
	AdditionalInfo   *AdditionalInfo `json:"additionalInfo"`
	Secret           string          `json:"secret"` // superadmin bootstrap only
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Mobile = core.CleanString(nu.Mobile)
	nu.ParentLanguage = core.CleanString(nu.ParentLanguage, true /* lower */)
	return validate.Struct(nu)
}

// additionalInfo merges the typed sub-record with the student-specific
// top-level fields; explicit sub-record values win.
func (nu *NewUser) additionalInfo() *AdditionalInfo {
	var info AdditionalInfo
	if nu.Role == RoleStudent {
		info.ParentLanguage = nu.ParentLanguage
		info.ParentOccupation = nu.ParentOccupation
	}
	if nu.AdditionalInfo != nil {
		if nu.AdditionalInfo.ParentLanguage != "" {
			info.ParentLanguage = nu.AdditionalInfo.ParentLanguage
		}
		if nu.AdditionalInfo.ParentOccupation != "" {
			info.ParentOccupation = nu.AdditionalInfo.ParentOccupation
		}
		info.Address = nu.AdditionalInfo.Address
		info.Bio = nu.AdditionalInfo.Bio
		info.Preferences = nu.AdditionalInfo.Preferences
	}
	if info.IsZero() {
		return nil
	}
	return &info
}

// UpdateUser defines what information may be provided to modify an existing
// User. The caller decides which fields actually apply via an allowed-field
// set.
type UpdateUser struct {
	Name             string          `json:"name"`
	Role             string          `json:"role" validate:"omitempty,role"`
	SchoolID         string          `json:"school"`
	IsActive         *bool           `json:"isActive"`
	Email            string          `json:"email" validate:"omitempty,email"`
	Mobile           string          `json:"mobile"`
	AdditionalInfo   *AdditionalInfo `json:"additionalInfo"`
	ParentLanguage   string          `json:"parentLanguage" validate:"omitempty,parentlang"`
	ParentOccupation string          `json:"parentOccupation"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	uu.Name = core.CleanString(uu.Name)
	uu.Role = core.CleanString(uu.Role, true /* lower */)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	uu.Mobile = core.CleanString(uu.Mobile)
	uu.ParentLanguage = core.CleanString(uu.ParentLanguage, true /* lower */)
	return validate.Struct(uu)
}

type ResetUserPassword struct {
	Token       string `json:"token,omitempty" validate:"required"`
	UID         string `json:"uid,omitempty" validate:"required"`
	NewPassword string `json:"newPassword,omitempty" validate:"required,min=6"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Role     string
	SchoolID string
	Search   string
	Page     core.Page
}

func (qf *QueryFilter) Clean() {
	qf.Role = core.CleanString(qf.Role, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
	qf.Page.Clean()
}

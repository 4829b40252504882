package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core"
)

var (
	// errors
	ErrNotFound = errors.New("user not found")
)

// Per-role allowed-field sets for admin user updates.
var (
	superadminUpdatableFields  = []string{"name", "role", "school", "isActive", "email", "mobile", "additionalInfo"}
	schooladminUpdatableFields = []string{"name", "isActive", "email", "mobile", "additionalInfo"}
	teacherUpdatableFields     = []string{"name", "mobile", "additionalInfo"}

	// ProfileUpdatableFields applies to self-service profile updates for all roles.
	ProfileUpdatableFields = []string{"name", "email", "mobile", "additionalInfo"}
)

// UpdatableFields returns the fields an actor role may change on other users.
func UpdatableFields(role string) []string {
	switch role {
	case RoleSuperadmin:
		return superadminUpdatableFields
	case RoleSchooladmin:
		return schooladminUpdatableFields
	case RoleTeacher:
		return teacherUpdatableFields
	}
	return nil
}

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByRegistrationID(ctx context.Context, regID string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUsersByID(ctx context.Context, ids []string) ([]User, error)
		SuperadminExists(ctx context.Context) (bool, error)
		// FilterUsers applies AND on the available QueryFilter fields and returns
		// the requested page plus the unpaged total. QueryFilter.Search does a
		// case-insensitive match on name, email, mobile, registration ID or role.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, int, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUserByID(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config
	}

	// OnboardResult is returned to the onboarding caller so credentials can be
	// handed over to the new user.
	OnboardResult struct {
		Message         string `json:"message"`
		RegistrationID  string `json:"registrationId"`
		DefaultPassword string `json:"defaultPassword"`
	}
)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	initTokenGenerator(conf)
	return &Service{repo: repo, mailSvc: mailSvc, logger: logger, conf: conf}
}

// Onboard registers a new user with a generated registration ID and the
// default password. Superadmin onboarding is gated by the configured secret
// and limited to a single account; all other roles are gated by the
// creator's onboarding permissions.
func (svc *Service) Onboard(ctx context.Context, nu NewUser, creator *User) (OnboardResult, error) {
	if nu.Role == RoleSuperadmin {
		if nu.Secret == "" || svc.conf.SuperadminSecret == "" || nu.Secret != svc.conf.SuperadminSecret {
			return OnboardResult{}, core.NewForbiddenError("invalid or missing superadmin secret")
		}
		exists, err := svc.repo.SuperadminExists(ctx)
		if err != nil {
			return OnboardResult{}, pkgerrors.Wrap(err, "checking for existing superadmin")
		}
		if exists {
			return OnboardResult{}, core.NewForbiddenError("superadmin already exists")
		}
	} else {
		if creator == nil {
			return OnboardResult{}, core.NewForbiddenError("authentication required")
		}
		if !CanOnboard(creator.Role, nu.Role) {
			return OnboardResult{}, core.NewForbiddenError(
				fmt.Sprintf("role %s not allowed to create %s", creator.Role, nu.Role))
		}
	}

	now := time.Now().UTC()
	usr := User{
		Name:           nu.Name,
		RegistrationID: GenerateRegistrationID(),
		Role:           nu.Role,
		SchoolID:       nu.SchoolID,
		Email:          nu.Email,
		Mobile:         nu.Mobile,
		IsActive:       true,
		AdditionalInfo: nu.additionalInfo(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := usr.SetPassword(svc.conf.DefaultUserPassword); err != nil {
		return OnboardResult{}, pkgerrors.Wrap(err, "hashing default password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return OnboardResult{}, pkgerrors.Wrap(err, "creating user")
	}
	return OnboardResult{
		Message:         fmt.Sprintf("%s onboarded successfully", usr.Role),
		RegistrationID:  usr.RegistrationID,
		DefaultPassword: svc.conf.DefaultUserPassword,
	}, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return User{}, core.NewNotFoundError("user not found")
		}
		return User{}, pkgerrors.Wrap(err, "finding user by ID")
	}
	return usr, nil
}

func (svc *Service) GetByRegistrationID(ctx context.Context, regID string) (User, error) {
	// registration IDs are stored uppercase
	return svc.repo.GetUserByRegistrationID(ctx, strings.ToUpper(core.CleanString(regID)))
}

// Query returns a page of users plus pagination metadata.
func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]User, core.PageMeta, error) {
	filter.Clean()
	users, total, err := svc.repo.FilterUsers(ctx, filter)
	if err != nil {
		return nil, core.PageMeta{}, pkgerrors.Wrap(err, "filtering users")
	}
	if users == nil {
		users = []User{}
	}
	return users, core.NewPageMeta(total, filter.Page), nil
}

// Update applies uu to the stored user, restricted to the allowed field set.
// Student-specific top-level fields fold into the additional-info sub-record
// before filtering.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser, allowed []string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if uu.IsActive != nil && !fieldAllowed(allowed, "isActive") {
		return User{}, core.NewForbiddenError("you are not allowed to activate or deactivate users")
	}

	if usr.IsStudent() && (uu.ParentLanguage != "" || uu.ParentOccupation != "") {
		if uu.AdditionalInfo == nil {
			uu.AdditionalInfo = &AdditionalInfo{}
		}
		if uu.ParentLanguage != "" {
			uu.AdditionalInfo.ParentLanguage = uu.ParentLanguage
		}
		if uu.ParentOccupation != "" {
			uu.AdditionalInfo.ParentOccupation = uu.ParentOccupation
		}
	}

	for _, field := range allowed {
		switch field {
		case "name":
			if uu.Name != "" {
				usr.Name = uu.Name
			}
		case "role":
			if uu.Role != "" {
				usr.Role = uu.Role
			}
		case "school":
			if uu.SchoolID != "" {
				usr.SchoolID = uu.SchoolID
			}
		case "isActive":
			if uu.IsActive != nil {
				usr.IsActive = *uu.IsActive
			}
		case "email":
			if uu.Email != "" {
				usr.Email = uu.Email
			}
		case "mobile":
			if uu.Mobile != "" {
				usr.Mobile = uu.Mobile
			}
		case "additionalInfo":
			if uu.AdditionalInfo != nil {
				usr.AdditionalInfo = uu.AdditionalInfo
			}
		}
	}
	usr.UpdatedAt = time.Now().UTC()

	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "updating user")
	}
	return usr, nil
}

// SetActive blocks or unblocks a user.
func (svc *Service) SetActive(ctx context.Context, id string, active bool) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.IsActive = active
	usr.UpdatedAt = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteUserByID(ctx, id); err != nil {
		if err == ErrNotFound {
			return core.NewNotFoundError("user not found")
		}
		return pkgerrors.Wrap(err, "deleting user")
	}
	return nil
}

// ResetPassword changes usr's password after verifying the current one.
func (svc *Service) ResetPassword(ctx context.Context, usr User, currentPwd, newPwd string) error {
	if err := usr.CheckPassword(currentPwd); err != nil {
		return core.NewValidationError(errors.New("current password is incorrect"))
	}
	if err := usr.SetPassword(newPwd); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err := svc.repo.UpdateUser(ctx, usr)
	return pkgerrors.Wrap(err, "updating user")
}

// AdminResetPassword sets a new password on the target user. School admins may
// only reset passwords of users in their own school.
func (svc *Service) AdminResetPassword(ctx context.Context, actor User, userID, newPwd string) error {
	scope := Allowed(actor.Role, ActionUserResetPassword)
	if scope == ScopeNone {
		return core.NewForbiddenError("only administrators can reset other users passwords")
	}

	usr, err := svc.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if scope == ScopeSchool && !actor.SameSchool(usr.SchoolID) {
		return core.NewForbiddenError("you can only reset passwords for users in your school")
	}

	if err := usr.SetPassword(newPwd); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return pkgerrors.Wrap(err, "updating user")
}

// RequestPasswordReset emails a reset link to the account with the given
// email, if one exists.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"You're receiving this email because you requested a password reset for your account.\r\n\r\n"+
			"Please go to the following page and choose a new password:\r\n\r\n"+
			"%s/password-reset/confirm?uid=%s&token=%s\r\n\r\n"+
			"If you did not request this, you can safely ignore this email.",
		svc.conf.FrontendBaseURL, EncodeUID(usr), makeToken(usr),
	)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Password Reset",
		Body:    body,
	})
	return nil
}

// ConfirmPasswordReset verifies the reset token and sets the new password.
func (svc *Service) ConfirmPasswordReset(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return pkgerrors.Wrap(err, "finding user by ID")
	}
	if err := verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err := usr.SetPassword(rp.NewPassword); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return pkgerrors.Wrap(err, "updating user")
}

func fieldAllowed(allowed []string, field string) bool {
	for _, f := range allowed {
		if f == field {
			return true
		}
	}
	return false
}

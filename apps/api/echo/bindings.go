package echoapi

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Aarth-Web/ss-backend/core"
)

type (
	LoginRequest struct {
		RegistrationID string `json:"registrationId" validate:"required,regid"`
		Password       string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	VerifyResponse struct {
		Valid  bool   `json:"valid"`
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordRequest struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=6"`
	}

	AdminResetPasswordRequest struct {
		UserID      string `json:"userId" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=6"`
	}

	TestSMSRequest struct {
		Mobile  string `json:"mobile" validate:"required"`
		Message string `json:"message" validate:"required"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	// ListResponse is the envelope for paginated list endpoints.
	ListResponse struct {
		Data interface{}   `json:"data"`
		Meta core.PageMeta `json:"meta"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.RegistrationID = core.CleanString(lr.RegistrationID)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

func (rp *ResetPasswordRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

func (ar *AdminResetPasswordRequest) Validate(validate *validator.Validate) error {
	ar.UserID = core.CleanString(ar.UserID)
	return validate.Struct(ar)
}

func (ts *TestSMSRequest) Validate(validate *validator.Validate) error {
	ts.Mobile = core.CleanString(ts.Mobile)
	ts.Message = core.CleanString(ts.Message)
	return validate.Struct(ts)
}

// bindPage reads the page/limit query params, applying defaults.
func bindPage(ctx echo.Context) core.Page {
	page := core.Page{
		Number: intQueryParam(ctx, "page"),
		Limit:  intQueryParam(ctx, "limit"),
	}
	page.Clean()
	return page
}

func intQueryParam(ctx echo.Context, name string) int {
	v, _ := strconv.Atoi(ctx.QueryParam(name))
	return v
}

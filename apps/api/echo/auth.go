package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/user"
)

var (
	// appJWTConfig is the default JWT auth middleware config; initAuth fills in
	// the signing key.
	appJWTConfig = middleware.JWTConfig{
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	}
	contextUserKey = "user"

	appName            string
	jwtExpirationDelta time.Duration
)

func initAuth(conf *core.Config) {
	appJWTConfig.SigningKey = []byte(conf.SecretKey)
	appName = conf.AppName
	jwtExpirationDelta = conf.Server.JWTExpirationDelta
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	UserID         string `json:"userId,omitempty"`
	Role           string `json:"role,omitempty"`
	RegistrationID string `json:"registrationId,omitempty"`
}

func GetUserClaims(usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    appName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(jwtExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		UserID:         usr.ID,
		Role:           usr.Role,
		RegistrationID: usr.RegistrationID,
	}
}

func authenticate(ctx context.Context, regID, pwd string, svc *user.Service) (*Claims, error) {
	usr, err := svc.GetByRegistrationID(ctx, regID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by registration ID")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !usr.IsActive {
		return nil, errAccountDeactivated
	}
	return GetUserClaims(usr), nil
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

type authApi struct {
	svc      *user.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service, validate *validator.Validate) {
	api := authApi{svc: svc, validate: validate}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/register-superadmin", api.registerSuperadmin)
	ag.POST("/password-reset", api.requestPasswordReset)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ug := ag.Group("", jwt)
	ug.POST("/register", api.register)
	ug.GET("/verify", api.verify)
	ug.POST("/reset-password", api.resetPassword)
	ug.POST("/admin-reset-password", api.adminResetPassword,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin))
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx.Request().Context(), data.RegistrationID, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if data.Role == user.RoleSuperadmin {
		return errHttpForbidden
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	// school admins and teachers onboard into their own school
	if !ctxUsr.IsSuperadmin() {
		data.SchoolID = ctxUsr.SchoolID
	}

	res, err := api.svc.Onboard(ctx.Request().Context(), data, &ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *authApi) registerSuperadmin(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	data.Role = user.RoleSuperadmin
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Onboard(ctx.Request().Context(), data, nil)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *authApi) verify(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, VerifyResponse{Valid: true, UserID: claims.UserID, Role: claims.Role})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data ResetPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPasswordRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.ResetPassword(ctx.Request().Context(), ctxUsr, data.CurrentPassword, data.NewPassword); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Password reset successfully"})
}

func (api *authApi) adminResetPassword(ctx echo.Context) error {
	var data AdminResetPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AdminResetPasswordRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.AdminResetPassword(ctx.Request().Context(), ctxUsr, data.UserID, data.NewPassword); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Password reset successfully"})
}

func (api *authApi) requestPasswordReset(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ConfirmPasswordReset(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func getContextUser(ctx echo.Context, svc *user.Service, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

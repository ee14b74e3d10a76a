package service

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"villabook/cmd/internal/access"
	"villabook/cmd/internal/domain/entity"
	cognitoclient "villabook/cmd/internal/integration/aws/cognito"
	"villabook/cmd/internal/utils"
	"villabook/cmd/internal/utils/apierror"

	"github.com/aws/smithy-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type UserRepository interface {
	FindByID(id int) (*entity.User, error)
	FindBySub(sub string) (*entity.User, error)
	FindAll() ([]*entity.User, error)
	FindByEmail(email string) (*entity.User, error)
	ExistsByEmail(email string) (bool, error)
	Save(user *entity.User) error
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64,nospaces,hasspecial,hasdigit,hasupper,haslower"`
}

type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64"`
}

type ConfirmSignupRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,min=1,max=6"`
}

type UpdateColorRequest struct {
	Color string `json:"color" validate:"required,color"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin super_admin"`
}

type UserResponse struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	IsAdmin     bool   `json:"is_admin"`
	IsValidated bool   `json:"is_validated"`
	Color       string `json:"color,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type UserLoginResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
}

type DefaultUserService struct {
	UserRepo         UserRepository
	Policy           access.Policy
	Validate         *validator.Validate
	Cognito          cognitoclient.CognitoInterface
	SuperAdminEmails []string
}

func NewUserService(userRepo UserRepository, policy access.Policy, validate *validator.Validate, cogClient cognitoclient.CognitoInterface, superAdmins []string) *DefaultUserService {
	emails := make([]string, 0, len(superAdmins))
	for _, e := range superAdmins {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails = append(emails, e)
		}
	}
	return &DefaultUserService{
		UserRepo:         userRepo,
		Policy:           policy,
		Validate:         validate,
		Cognito:          cogClient,
		SuperAdminEmails: emails,
	}
}

func (u *DefaultUserService) GetUsers(subId string) ([]*UserResponse, apierror.ErrorResponse) {
	caller, apierr := u.requireCaller(subId)
	if apierr != nil {
		return nil, apierr
	}
	if !u.Policy.CanManageUsers(caller) {
		return nil, apierror.ForbiddenError
	}

	users, err := u.UserRepo.FindAll()
	if err != nil {
		log.Errorf("failed to fetch all users: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*UserResponse, len(users))
	for i, user := range users {
		resp[i] = u.toUserResponse(user)
	}
	return resp, nil
}

func (u *DefaultUserService) GetUser(rawId, subId string) (*UserResponse, apierror.ErrorResponse) {
	user, apierr := u.fetchUser(rawId, subId)
	if apierr != nil {
		return nil, apierr
	}

	if user == nil {
		return nil, apierror.NotFoundError
	}

	resp := u.toUserResponse(user)
	return resp, nil
}

// CreateUser creates a new user on Cognito (as well as in our database),
// and sends a verification code to the user's email address. The account
// cannot book until an admin validates it, unless its email is one of the
// configured super admins.
func (u *DefaultUserService) CreateUser(req *CreateUserRequest) apierror.ErrorResponse {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}
	req.Email = strings.ToLower(req.Email)

	found, err := u.UserRepo.ExistsByEmail(req.Email)
	if err != nil {
		log.Errorf("failed to check if user already exists: %v", err)
		return apierror.InternalServerError
	}

	if found {
		return apierror.UserAlreadyExistsError
	}

	cogUser := &cognitoclient.User{Email: req.Email, Password: req.Password}
	uuid, apierr, revert := handleUserSignup(u.Cognito, cogUser)
	if apierr != nil {
		return apierr
	}

	user := &entity.User{
		SubUUID:  uuid,
		Username: req.Username,
		Email:    req.Email,
		Role:     entity.RoleUser,
	}
	if slices.Contains(u.SuperAdminEmails, req.Email) {
		user.Role = entity.RoleSuperAdmin
		user.IsValidated = true
	}

	err = u.UserRepo.Save(user)
	if err != nil {
		revert()
		log.Errorf("failed to create user: %v", err)
		return apierror.InternalServerError
	}
	return nil
}

func (u *DefaultUserService) Login(req *UserLoginRequest) (*UserLoginResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	user, err := u.UserRepo.FindByEmail(strings.ToLower(req.Email))
	if err != nil {
		log.Errorf("failed to fetch user from database: %v", err)
		return nil, apierror.InternalServerError
	}

	if user == nil {
		return nil, apierror.IDPUserNotFoundError
	}

	credentials := &cognitoclient.UserLogin{
		Email:    user.Email,
		Password: req.Password,
	}

	auth, apierr := handleUserSignin(u.Cognito, credentials)
	if apierr != nil {
		return nil, apierr
	}
	return &UserLoginResponse{AccessToken: auth.AccessToken, IDToken: auth.IDToken}, nil
}

func (u *DefaultUserService) ConfirmSignup(req *ConfirmSignupRequest) apierror.ErrorResponse {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	user, err := u.UserRepo.FindByEmail(strings.ToLower(req.Email))
	if err != nil {
		log.Errorf("failed to fetch user from database: %v", err)
		return apierror.InternalServerError
	}

	if user == nil {
		return apierror.IDPUserNotFoundError
	}

	if user.EmailVerified {
		return apierror.UserAlreadyConfirmedError
	}

	confirms := &cognitoclient.UserConfirmation{
		Email: user.Email,
		Code:  req.Code,
	}

	apierr := handleSignupConfirmation(u.Cognito, confirms)
	if apierr != nil {
		return apierr
	}

	user.EmailVerified = true
	err = u.UserRepo.Save(user)
	if err != nil {
		log.Errorf("failed to update user (%d) verified status: %v", user.ID, err)
	}
	return nil
}

// UpdateColor sets the calendar color of the calling user.
func (u *DefaultUserService) UpdateColor(req *UpdateColorRequest, subId string) (*UserResponse, apierror.ErrorResponse) {
	caller, apierr := u.requireCaller(subId)
	if apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	caller.Color = strings.ToLower(req.Color)
	if err := u.UserRepo.Save(caller); err != nil {
		log.Errorf("failed to update color of user (%d): %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}
	return u.toUserResponse(caller), nil
}

// ValidateUser marks a registration as validated, allowing it to book.
func (u *DefaultUserService) ValidateUser(rawId, subId string) (*UserResponse, apierror.ErrorResponse) {
	caller, apierr := u.requireCaller(subId)
	if apierr != nil {
		return nil, apierr
	}
	if !u.Policy.CanManageUsers(caller) {
		return nil, apierror.ForbiddenError
	}

	user, apierr := u.fetchByID(rawId)
	if apierr != nil {
		return nil, apierr
	}
	if user == nil {
		return nil, apierror.NotFoundError
	}

	if !user.IsValidated {
		user.IsValidated = true
		if err := u.UserRepo.Save(user); err != nil {
			log.Errorf("failed to validate user (%d): %v", user.ID, err)
			return nil, apierror.InternalServerError
		}
	}
	return u.toUserResponse(user), nil
}

// UpdateRole changes the role of a user. Super admins cannot change their
// own role, so there is always at least one left.
func (u *DefaultUserService) UpdateRole(rawId string, req *UpdateRoleRequest, subId string) (*UserResponse, apierror.ErrorResponse) {
	caller, apierr := u.requireCaller(subId)
	if apierr != nil {
		return nil, apierr
	}
	if !u.Policy.CanManageRoles(caller) {
		return nil, apierror.ForbiddenError
	}

	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	user, apierr := u.fetchByID(rawId)
	if apierr != nil {
		return nil, apierr
	}
	if user == nil {
		return nil, apierror.NotFoundError
	}
	if user.ID == caller.ID && req.Role != caller.Role {
		return nil, apierror.SelfDemotionError
	}

	user.Role = req.Role
	if user.Role != entity.RoleUser {
		user.IsValidated = true
	}
	if err := u.UserRepo.Save(user); err != nil {
		log.Errorf("failed to update role of user (%d): %v", user.ID, err)
		return nil, apierror.InternalServerError
	}
	return u.toUserResponse(user), nil
}

func (u *DefaultUserService) requireCaller(subId string) (*entity.User, apierror.ErrorResponse) {
	caller, apierr := u.fetchBySub(subId)
	if apierr != nil {
		return nil, apierr
	}
	if caller == nil {
		return nil, apierror.InvalidAuthTokenError
	}
	return caller, nil
}

func (u *DefaultUserService) fetchUser(rawId, sub string) (*entity.User, apierror.ErrorResponse) {
	if rawId == "@me" {
		return u.fetchBySub(sub)
	}
	return u.fetchByID(rawId)
}

func (u *DefaultUserService) fetchBySub(sub string) (*entity.User, apierror.ErrorResponse) {
	user, err := u.UserRepo.FindBySub(sub)
	if err != nil {
		log.Errorf("failed to find user (%s) by sub: %v", sub, err)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

func (u *DefaultUserService) fetchByID(rawId string) (*entity.User, apierror.ErrorResponse) {
	userId, err := strconv.Atoi(rawId)
	if err != nil {
		return nil, apierror.NewInvalidParamTypeError("id", "int32")
	}
	user, err := u.UserRepo.FindByID(userId)
	if err != nil {
		log.Errorf("failed to find user (%s) by id: %v", rawId, err)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

func handleUserSignup(cogClient cognitoclient.CognitoInterface, req *cognitoclient.User) (string, apierror.ErrorResponse, func()) {
	revert := func() {
		if err := cogClient.AdminDeleteUser(req.Email); err != nil {
			log.Errorf("failed to revert signup of user (%s): %v", req.Email, err)
		}
	}

	uuid, err := cogClient.SignUp(req)
	if err == nil {
		return uuid, nil, revert
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidPasswordException":
			return "", apierror.IDPInvalidPasswordError, revert
		case "UsernameExistsException":
			return "", apierror.IDPExistingEmailError, revert
		default:
			log.Errorf("signup failed for user (%s): %s - %s", req.Email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return "", apierror.InternalServerError, revert
		}
	}

	log.Errorf("failed to signup user (%s): %v", req.Email, err)
	return "", apierror.InternalServerError, revert
}

func handleUserSignin(cogClient cognitoclient.CognitoInterface, req *cognitoclient.UserLogin) (*cognitoclient.AuthCreate, apierror.ErrorResponse) {
	auth, err := cogClient.SignIn(req)
	if err == nil {
		return auth, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "UserNotFoundException":
			return nil, apierror.IDPUserNotFoundError
		case "UserNotConfirmedException":
			return nil, apierror.IDPUserNotConfirmedError
		case "NotAuthorizedException":
			return nil, apierror.IDPCredentialsMismatchError
		default:
			log.Errorf("signin failed for user (%s): %s - %s", req.Email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return nil, apierror.InternalServerError
		}
	}

	log.Errorf("failed to signin user (%s): %v", req.Email, err)
	return nil, apierror.InternalServerError
}

func handleSignupConfirmation(cogClient cognitoclient.CognitoInterface, req *cognitoclient.UserConfirmation) apierror.ErrorResponse {
	err := cogClient.ConfirmAccount(req)
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "CodeMismatchException":
			return apierror.IDPConfirmCodeMismatchError
		case "ExpiredCodeException":
			return apierror.IDPConfirmCodeExpiredError
		case "UserNotFoundException":
			return apierror.IDPUserNotFoundError
		default:
			log.Errorf("confirmation failed for user (%s): %s - %s", req.Email, apiErr.ErrorCode(), apiErr.ErrorMessage())
			return apierror.InternalServerError
		}
	}

	log.Errorf("failed to confirm user (%s): %v", req.Email, err)
	return apierror.InternalServerError
}

func (u *DefaultUserService) toUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		IsAdmin:     u.Policy.IsAdmin(user),
		IsValidated: user.IsValidated,
		Color:       user.Color,
		CreatedAt:   utils.FormatEpoch(user.CreatedAt),
		UpdatedAt:   utils.FormatEpoch(user.UpdatedAt),
	}
}

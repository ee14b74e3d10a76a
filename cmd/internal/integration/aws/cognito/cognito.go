package cognitoclient

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

const callTimeout = 10 * time.Second

type CognitoInterface interface {
	SignUp(user *User) (string, error)
	SignIn(login *UserLogin) (*AuthCreate, error)
	ConfirmAccount(confirm *UserConfirmation) error
	AdminDeleteUser(email string) error
}

type User struct {
	Email    string
	Password string
}

type UserLogin struct {
	Email    string
	Password string
}

type UserConfirmation struct {
	Email string
	Code  string
}

type AuthCreate struct {
	AccessToken string
	IDToken     string
}

type Settings struct {
	Region       string
	UserPoolID   string
	ClientID     string
	ClientSecret string
}

type Client struct {
	api      *cognitoidentityprovider.Client
	settings Settings
}

func InitCognitoClient(settings Settings) (*Client, error) {
	if settings.Region == "" || settings.ClientID == "" {
		return nil, errors.New("cognito region and client id are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(settings.Region))
	if err != nil {
		return nil, err
	}
	return &Client{api: cognitoidentityprovider.NewFromConfig(cfg), settings: settings}, nil
}

// secretHash is required by app clients created with a secret.
func (c *Client) secretHash(username string) *string {
	if c.settings.ClientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(c.settings.ClientSecret))
	mac.Write([]byte(username + c.settings.ClientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

// SignUp registers the user and returns its sub.
func (c *Client) SignUp(user *User) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	out, err := c.api.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId:   aws.String(c.settings.ClientID),
		Username:   aws.String(user.Email),
		Password:   aws.String(user.Password),
		SecretHash: c.secretHash(user.Email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(user.Email)},
		},
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.UserSub), nil
}

func (c *Client) SignIn(login *UserLogin) (*AuthCreate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	params := map[string]string{
		"USERNAME": login.Email,
		"PASSWORD": login.Password,
	}
	if hash := c.secretHash(login.Email); hash != nil {
		params["SECRET_HASH"] = *hash
	}

	out, err := c.api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(c.settings.ClientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, err
	}
	if out.AuthenticationResult == nil {
		return nil, errors.New("cognito returned a challenge instead of tokens")
	}
	return &AuthCreate{
		AccessToken: aws.ToString(out.AuthenticationResult.AccessToken),
		IDToken:     aws.ToString(out.AuthenticationResult.IdToken),
	}, nil
}

func (c *Client) ConfirmAccount(confirm *UserConfirmation) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	_, err := c.api.ConfirmSignUp(ctx, &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(c.settings.ClientID),
		Username:         aws.String(confirm.Email),
		ConfirmationCode: aws.String(confirm.Code),
		SecretHash:       c.secretHash(confirm.Email),
	})
	return err
}

func (c *Client) AdminDeleteUser(email string) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	_, err := c.api.AdminDeleteUser(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
		UserPoolId: aws.String(c.settings.UserPoolID),
		Username:   aws.String(email),
	})
	return err
}

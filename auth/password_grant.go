package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-crm-connect/core"
	"golang.org/x/oauth2"
)

const AuthKindOAuth2Password = "oauth2_password"

const TokenPath = "/services/oauth2/token"

// ResponseClassifier turns a non-2xx token endpoint response into an error.
type ResponseClassifier func(statusCode int, body []byte, metadata map[string]any) error

type PasswordGrantConfig struct {
	Credentials core.Credentials
	APIVersion  string
	HTTPClient  *http.Client
	Classify    ResponseClassifier
	Now         func() time.Time
}

// PasswordGrant signs in with the OAuth2 resource owner password flow and
// produces a session bound to the instance host the CRM hands back.
type PasswordGrant struct {
	config PasswordGrantConfig
}

func NewPasswordGrant(cfg PasswordGrantConfig) *PasswordGrant {
	if cfg.Classify == nil {
		cfg.Classify = statusOnlyClassifier
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	cfg.Credentials.LoginURL = strings.TrimRight(strings.TrimSpace(cfg.Credentials.LoginURL), "/")
	cfg.APIVersion = strings.TrimSpace(cfg.APIVersion)
	return &PasswordGrant{config: cfg}
}

func (*PasswordGrant) Type() string {
	return AuthKindOAuth2Password
}

func (g *PasswordGrant) TokenURL() string {
	return g.config.Credentials.LoginURL + TokenPath
}

func (g *PasswordGrant) SignIn(ctx context.Context) (core.Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	creds := g.config.Credentials
	metadata := map[string]any{
		"auth_kind": AuthKindOAuth2Password,
		"token_url": g.TokenURL(),
		"username":  creds.Username,
	}
	if creds.LoginURL == "" {
		return core.Session{}, core.NewError(core.ErrorAuthentication, "auth: login url is required", metadata)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  g.TokenURL(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if g.config.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.config.HTTPClient)
	}

	token, err := oauthConfig.PasswordCredentialsToken(ctx, creds.Username, creds.GrantPassword())
	if err != nil {
		return core.Session{}, g.signInError(err, metadata)
	}

	instanceURL, _ := token.Extra("instance_url").(string)
	instanceURL = strings.TrimRight(strings.TrimSpace(instanceURL), "/")
	if instanceURL == "" {
		return core.Session{}, core.NewError(core.ErrorAuthentication, "auth: token response missing instance_url", metadata)
	}

	return core.Session{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		InstanceURL: instanceURL,
		APIVersion:  g.config.APIVersion,
		IssuedAt:    g.config.Now(),
	}, nil
}

func (g *PasswordGrant) signInError(err error, metadata map[string]any) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) || retrieveErr.Response == nil {
		return core.WrapError(err, core.ErrorAuthentication, "auth: sign in failed", metadata)
	}

	statusCode := retrieveErr.Response.StatusCode
	cause := g.config.Classify(statusCode, retrieveErr.Body, metadata)
	if cause == nil {
		cause = core.NewCRMError(core.ErrorCRMAPI, statusCode, retrieveErr.ErrorCode, retrieveErr.ErrorDescription, metadata)
	}
	wrapped := core.WrapError(cause, core.ErrorAuthentication, "auth: sign in failed", metadata)
	if statusCode > 0 {
		wrapped.WithCode(statusCode)
	}
	return wrapped
}

func statusOnlyClassifier(statusCode int, _ []byte, metadata map[string]any) error {
	return core.NewCRMError(core.ErrorCRMAPI, statusCode, "", "", metadata)
}

package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tecu23/gochess-client/internal/auth"
	"github.com/tecu23/gochess-client/pkg/repository"
)

type loginFlags struct {
	email    *string
	password *string
	username *string
	logout   *bool
}

// signIn produces usable credentials: explicit flags win, otherwise the
// stored token is reused as long as the auth service still accepts it.
func signIn(
	ctx context.Context,
	client *auth.Client,
	store repository.CredentialStore,
	login loginFlags,
	logger *zap.Logger,
) (repository.Credentials, error) {
	email, password, username := *login.email, *login.password, *login.username

	if email == "" {
		creds, err := store.Load()
		if errors.Is(err, repository.ErrNoCredentials) {
			return repository.Credentials{}, errors.New("not logged in: pass -email and -password")
		}
		if err != nil {
			return repository.Credentials{}, err
		}

		if _, err := client.UserInfo(ctx, creds.Token); err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				if err := store.Clear(); err != nil {
					logger.Warn("could not clear stored credentials", zap.Error(err))
				}
				return repository.Credentials{}, fmt.Errorf("stored session expired, log in again: %w", err)
			}
			// the auth service being down should not keep us from playing
			logger.Warn("could not verify stored session", zap.Error(err))
		}
		return creds, nil
	}

	if password == "" {
		return repository.Credentials{}, errors.New("-password is required with -email")
	}

	var (
		token string
		err   error
	)
	if username != "" {
		if err := client.CheckUsername(ctx, username); err != nil {
			return repository.Credentials{}, err
		}
		token, err = client.SignUp(ctx, username, email, password)
	} else {
		token, err = client.LogIn(ctx, email, password)
	}
	if err != nil {
		return repository.Credentials{}, err
	}

	identity, err := auth.IdentityFromToken(token)
	if err != nil {
		logger.Warn("token carries no identity, falling back to email", zap.Error(err))
		identity = email
	}

	creds := repository.Credentials{Token: token, Identity: identity, Username: username}
	if err := store.Save(creds); err != nil {
		logger.Warn("could not store credentials", zap.Error(err))
	}
	return creds, nil
}

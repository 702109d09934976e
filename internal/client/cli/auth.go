package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/chatpulse/chatpulse-cli/internal/client/api"
	"github.com/chatpulse/chatpulse-cli/internal/client/models"
	"github.com/chatpulse/chatpulse-cli/internal/common"
)

// getSimpleText, getPassword and getConfirm are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getConfirm = GetConfirm

// reason extracts the message to show the user: the backend's own rejection
// detail when present, the error text otherwise.
func reason(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}

// Login prompts for credentials and attempts to authenticate. On success the
// session store has adopted the credential and the prompt reflects the
// logged-in user. The password is securely wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	remember, err := getConfirm(a.reader, "Stay logged in on this machine?", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.authService.Login(ctx, email, password, remember); err != nil {
		return err
	}

	if sess := a.session.Current(); sess != nil {
		fmt.Printf("Logged in as %s\n", sess.User.Email)
	}
	return nil
}

// Register prompts for account details and creates the account. The user
// must log in afterwards; registration never adopts a session.
func (a *App) Register(ctx context.Context) error {
	reg, password, err := a.promptRegistration()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	reg.Password = string(password)

	profile, err := a.authService.Register(ctx, reg)
	if err != nil {
		return err
	}

	fmt.Printf("Account %s created. Use 'login' to sign in.\n", profile.Username)
	return nil
}

func (a *App) promptRegistration() (models.Registration, []byte, error) {
	var reg models.Registration
	var err error

	if reg.Email, err = getSimpleText(a.reader, "Enter email", os.Stdout); err != nil {
		return reg, nil, err
	}
	if reg.Username, err = getSimpleText(a.reader, "Enter username", os.Stdout); err != nil {
		return reg, nil, err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return reg, nil, err
	}

	if reg.FullName, err = getSimpleText(a.reader, "Enter full name (optional)", os.Stdout); err != nil {
		common.WipeByteArray(password)
		return reg, nil, err
	}
	if reg.Company, err = getSimpleText(a.reader, "Enter company (optional)", os.Stdout); err != nil {
		common.WipeByteArray(password)
		return reg, nil, err
	}
	return reg, password, nil
}

// Logout clears the session. Safe to call when not logged in.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

// WhoAmI prints the current profile.
func (a *App) WhoAmI(ctx context.Context) error {
	sess := a.session.Current()
	if sess == nil {
		fmt.Println("Not logged in.")
		return nil
	}

	u := sess.User
	fmt.Printf("%s (%s)\n", u.Username, u.Email)
	if u.FullName != "" {
		fmt.Printf("  name:     %s\n", u.FullName)
	}
	if u.Company != "" {
		fmt.Printf("  company:  %s\n", u.Company)
	}
	fmt.Printf("  plan:     %s\n", u.SubscriptionPlan)
	fmt.Printf("  verified: %v\n", u.IsVerified)
	return nil
}

// Refresh re-fetches the profile for the current session.
func (a *App) Refresh(ctx context.Context) error {
	profile, err := a.session.RefreshProfile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Profile refreshed for %s\n", profile.Email)
	return nil
}

// ChangePassword updates the password of the authenticated account.
func (a *App) ChangePassword(ctx context.Context) error {
	fmt.Println("Current password:")
	current, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	fmt.Println("New password:")
	newPassword, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	if err := a.authService.ChangePassword(ctx, current, newPassword); err != nil {
		return err
	}
	fmt.Println("Password changed.")
	return nil
}

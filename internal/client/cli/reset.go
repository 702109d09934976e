package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/chatpulse/chatpulse-cli/internal/common"
)

// ForgotPassword asks the backend to dispatch a reset link. The response is
// deliberately the same whether or not the account exists.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	dispatch, err := a.authService.RequestPasswordReset(ctx, email)
	if err != nil {
		return err
	}
	fmt.Println(dispatch.Message)
	return nil
}

// ResetPassword redeems a reset token from the emailed link. The token is
// validated first (without consuming it) so the user sees which account it
// belongs to before typing a new password. No session is adopted; the user
// must log in with the new password.
func (a *App) ResetPassword(ctx context.Context, token string) error {
	var err error
	if token == "" {
		token, err = getSimpleText(a.reader, "Enter reset token from the email link", os.Stdout)
		if err != nil {
			return err
		}
	}

	email, err := a.authService.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}
	fmt.Printf("Resetting password for %s\n", email)

	newPassword, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	if err := a.authService.ResetPassword(ctx, token, newPassword); err != nil {
		return err
	}
	fmt.Println("Password reset. Use 'login' to sign in with your new password.")
	return nil
}

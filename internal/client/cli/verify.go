package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/chatpulse/chatpulse-cli/internal/client/models"
	"github.com/chatpulse/chatpulse-cli/internal/common"
)

// VerifyEmail runs the two-step verification: request a code for an address,
// then submit the code the user received. Verification proves control of the
// email; it does not create an account or a session.
func (a *App) VerifyEmail(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email to verify", os.Stdout)
	if err != nil {
		return err
	}

	dispatch, err := a.authService.RequestVerificationCode(ctx, email)
	if err != nil {
		return err
	}
	if dispatch.ExpiresInMinutes > 0 {
		fmt.Printf("Code sent. It expires in %d minutes.\n", dispatch.ExpiresInMinutes)
	} else {
		fmt.Println(dispatch.Message)
	}

	code, err := getSimpleText(a.reader, "Enter verification code", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.authService.SubmitVerificationCode(ctx, email, code); err != nil {
		return err
	}
	fmt.Println("Email verified. Use 'signup' to finish creating your account.")
	return nil
}

// Signup creates an account for a previously verified email in one call.
// No session is adopted; the user logs in afterwards.
func (a *App) Signup(ctx context.Context) error {
	reg, password, err := a.promptRegistration()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	reg.Password = string(password)

	code, err := getSimpleText(a.reader, "Enter verification code", os.Stdout)
	if err != nil {
		return err
	}

	profile, err := a.authService.SignupWithVerification(ctx, models.Signup{
		Registration:     reg,
		VerificationCode: code,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Account %s created. Use 'login' to sign in.\n", profile.Username)
	return nil
}

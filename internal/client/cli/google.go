package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/chatpulse/chatpulse-cli/internal/client/oauth"
)

// googleLoginTimeout bounds how long the loopback listener waits for the
// browser to come back.
const googleLoginTimeout = 5 * time.Minute

// GoogleLogin runs the two-phase authorization-code flow: hand the browser
// to the backend's initiation endpoint, then redeem the code and state the
// provider sends back to the loopback listener.
func (a *App) GoogleLogin(ctx context.Context) error {
	listener := oauth.NewListener(a.config.CallbackPort, a.log)
	redirectURI, err := listener.Start()
	if err != nil {
		return err
	}
	defer listener.Close()

	authURL, err := oauth.AuthorizeURL(a.config.ServerURL, redirectURI)
	if err != nil {
		return err
	}

	fmt.Println("Open this URL in your browser to sign in with Google:")
	fmt.Println("  " + authURL)

	waitCtx, cancel := context.WithTimeout(ctx, googleLoginTimeout)
	defer cancel()

	cb, err := listener.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("no callback received: %w", err)
	}

	isNewUser, err := a.authService.CompleteGoogleLogin(ctx, cb.Code, cb.State)
	if err != nil {
		return err
	}

	sess := a.session.Current()
	switch {
	case isNewUser && sess != nil:
		fmt.Printf("Welcome to ChatPulse, %s! Your account has been created.\n", sess.User.Email)
	case sess != nil:
		fmt.Printf("Welcome back, %s!\n", sess.User.Email)
	}
	return nil
}

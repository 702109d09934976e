package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if sess := a.session.Current(); sess != nil {
		return fmt.Sprintf("(%s)", sess.User.Email)
	}
	return ""
}

func (a *App) printHelp() {
	if a.isLoggedIn() {
		fmt.Println("Available commands: whoami, refresh, passwd, logout, exit")
	} else {
		fmt.Println("Available commands: login, register, verify, signup, google, forgot, reset, exit")
	}
}

// Root is the interactive command loop.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to ChatPulse CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("chatpulse %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			a.printHelp()
		case "login":
			err = a.Login(ctx)
		case "register":
			err = a.Register(ctx)
		case "verify":
			err = a.VerifyEmail(ctx)
		case "signup":
			err = a.Signup(ctx)
		case "google":
			err = a.GoogleLogin(ctx)
		case "forgot":
			err = a.ForgotPassword(ctx)
		case "reset":
			token := ""
			if len(args) > 0 {
				token = args[0]
			}
			err = a.ResetPassword(ctx, token)
		case "whoami":
			err = a.WhoAmI(ctx)
		case "refresh":
			err = a.Refresh(ctx)
		case "passwd":
			err = a.ChangePassword(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}

		if err != nil {
			fmt.Println("Error:", reason(err))
		}
	}
}

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email, name, and password and attempts to
// create a new account.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter display name", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.authService.Register(ctx, email, name, password); err != nil {
		log.Printf("Registration unsuccessful: %s", err.Error())
		return err
	}

	fmt.Println("Success! You can now log in.")
	return nil
}

// Login prompts the user for credentials and authenticates against the
// server. Without connectivity the saved session, local cache, and pending
// queue remain usable in offline mode.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.authService.Login(ctx, email, password); err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	a.email = email
	a.setMode(ModeOnline)
	log.Printf("Login successful")
	return nil
}

// restoreSession loads a saved token pair so a restarted client stays logged
// in without going online.
func (a *App) restoreSession(ctx context.Context) {
	ok, err := a.authService.RestoreSession(ctx)
	if err != nil || !ok {
		return
	}
	if email, err := a.authService.Email(ctx); err == nil && email != "" {
		a.email = email
		log.Printf("Restored session for %s", email)
	}
}

// Logout drops the in-memory session and wipes the stored tokens.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.email = ""
	fmt.Println("Logged out")
	return nil
}

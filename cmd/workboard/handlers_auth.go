// handlers_auth.go implements the authentication command handlers.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/workboardhq/workboard/pkg/models"
)

func runLogin(ctx context.Context, username, password string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if password == "" {
		password = promptPassword(bufio.NewReader(os.Stdin), "Password")
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	if _, err := a.client.Login(ctx, models.LoginRequest{
		Username: username,
		Password: password,
	}); err != nil {
		return err
	}

	if err := a.persistToken(); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}

	fmt.Printf("Logged in as %s\n", username)
	return nil
}

// registerForm carries the registration inputs from flag parsing to the
// handler.
type registerForm struct {
	username string
	password string
	email    string
	phone    string
	adminKey string
}

func runRegister(ctx context.Context, form registerForm) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	if form.password == "" {
		form.password = promptPassword(reader, "Password")
		confirm := promptPassword(reader, "Confirm password")
		if form.password != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}
	if form.password == "" {
		return fmt.Errorf("password is required")
	}

	if err := a.client.Register(ctx, models.RegisterRequest{
		Username:        form.username,
		Password:        form.password,
		ConfirmPassword: form.password,
		Email:           form.email,
		Phone:           form.phone,
		SecretKey:       form.adminKey,
	}); err != nil {
		return err
	}

	fmt.Printf("Registered %s; run `workboard login %s` to sign in\n", form.username, form.username)
	return nil
}

func runLogout() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if !a.store.Clear() {
		fmt.Println("No active session")
		return nil
	}
	if err := a.persistToken(); err != nil {
		return fmt.Errorf("remove session token: %w", err)
	}
	fmt.Println("Logged out")
	return nil
}

func runWhoami() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	claims, err := a.store.Claims()
	if err != nil {
		fmt.Println("Session token held (opaque, no readable claims)")
		return nil
	}

	if sub, ok := claims["sub"].(string); ok && sub != "" {
		fmt.Printf("Subject:  %s\n", sub)
	}
	if name, ok := claims["username"].(string); ok && name != "" {
		fmt.Printf("Username: %s\n", name)
	}
	if exp, ok := a.store.ExpiresAt(); ok {
		fmt.Printf("Expires:  %s", exp.Format(time.RFC3339))
		if time.Now().After(exp) {
			fmt.Print("  (expired)")
		}
		fmt.Println()
	}
	return nil
}

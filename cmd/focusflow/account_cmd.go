package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/focusflow/internal/auth"
	"github.com/verte-zerg/focusflow/internal/config"
	"github.com/verte-zerg/focusflow/internal/model"
)

var (
	accountEmail     string
	accountPassword  string
	accountName      string
	accountUsersFile string
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Sign up, log in and switch whose sessions are recorded",
	}

	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE:  runSignupCmd,
	}
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in; new sessions are recorded for this user",
		Args:  cobra.NoArgs,
		RunE:  runLoginCmd,
	}
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringVar(&accountEmail, "email", "", "account email")
		c.Flags().StringVar(&accountPassword, "password", "", "password (prompted when omitted)")
		c.Flags().StringVar(&accountUsersFile, "users-file", "", "user file (default: config or data dir)")
	}
	signupCmd.Flags().StringVar(&accountName, "name", "", "display name (default: email local part)")

	cmd.AddCommand(signupCmd, loginCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Switch back to the guest scope",
		Args:  cobra.NoArgs,
		RunE:  runLogoutCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Show whose sessions are in use",
		Args:  cobra.NoArgs,
		RunE:  runWhoamiCmd,
	})
	return cmd
}

func runSignupCmd(cmd *cobra.Command, _ []string) error {
	svc, err := authService(cmd)
	if err != nil {
		return err
	}
	password, err := passwordFromFlagOrPrompt(cmd)
	if err != nil {
		return err
	}
	user, err := svc.Signup(accountEmail, password, accountName)
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	if err := rememberUser(user); err != nil {
		return err
	}
	logErrf("Signed up as %s (%s).\n", user.Name, user.Email)
	return nil
}

func runLoginCmd(cmd *cobra.Command, _ []string) error {
	svc, err := authService(cmd)
	if err != nil {
		return err
	}
	password, err := passwordFromFlagOrPrompt(cmd)
	if err != nil {
		return err
	}
	user, err := svc.Login(accountEmail, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := rememberUser(user); err != nil {
		return err
	}
	logErrf("Logged in as %s (%s).\n", user.Name, user.Email)
	return nil
}

func runLogoutCmd(_ *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := context.Background()
	for _, key := range []string{model.SettingCurrentUser, model.SettingCurrentEmail} {
		if err := st.DeleteSetting(ctx, key); err != nil {
			return fmt.Errorf("failed to log out: %w", err)
		}
	}
	logErrln("Logged out; sessions are recorded as guest.")
	return nil
}

func runWhoamiCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	scope, label, err := currentScope(context.Background(), st)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", label, scope); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func authService(cmd *cobra.Command) (*auth.Service, error) {
	path, err := resolveUsersFile(cmd)
	if err != nil {
		return nil, err
	}
	return auth.NewService(auth.NewFileStore(path)), nil
}

func resolveUsersFile(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("users-file") && accountUsersFile != "" {
		return accountUsersFile, nil
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return config.StringOr(fileCfg.Server.UsersFile, config.DefaultUsersPath()), nil
}

func rememberUser(user auth.User) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := context.Background()
	if err := st.SetSetting(ctx, model.SettingCurrentUser, user.ID); err != nil {
		return fmt.Errorf("failed to save current user: %w", err)
	}
	if err := st.SetSetting(ctx, model.SettingCurrentEmail, user.Email); err != nil {
		return fmt.Errorf("failed to save current user: %w", err)
	}
	return nil
}

func passwordFromFlagOrPrompt(cmd *cobra.Command) (string, error) {
	if accountPassword != "" {
		return accountPassword, nil
	}
	if _, err := fmt.Fprint(cmd.ErrOrStderr(), "Password: "); err != nil {
		return "", err
	}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		logErrln()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(secret), nil
	}
	return readLine(cmd.InOrStdin())
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

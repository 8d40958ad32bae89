package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/linkhub-go/internal/cli/connection"
	"github.com/yndnr/linkhub-go/internal/core/domain"
	"github.com/yndnr/linkhub-go/internal/telemetry/logger"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the session token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (read from stdin when omitted)",
				EnvVars: []string{"LINKHUB_PASSWORD"},
			},
		},
		Action: login,
	}
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username", Required: true},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (read from stdin when omitted)",
				EnvVars: []string{"LINKHUB_PASSWORD"},
			},
		},
		Action: register,
	}
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and forget the session token",
		Action: logout,
	}
}

// MeCommand returns the me command.
func MeCommand() *cli.Command {
	return &cli.Command{
		Name:   "me",
		Usage:  "Show the signed-in profile",
		Action: me,
	}
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the local session state after startup validation",
		Action: status,
	}
}

func readPassword(c *cli.Context) (string, error) {
	if p := c.String("password"); p != "" {
		return p, nil
	}
	fmt.Fprint(c.App.ErrWriter, "Password: ")
	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if errors.Is(err, io.EOF) && line == "" {
		return "", errors.New("password required: pass --password or set LINKHUB_PASSWORD")
	}
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func login(c *cli.Context) error {
	password, err := readPassword(c)
	if err != nil {
		return err
	}

	a, release, err := clientFor(c)
	if err != nil {
		return err
	}
	defer release()

	user, err := a.Auth.Login(c.Context, domain.Credentials{
		Email:    c.String("email"),
		Password: password,
	})
	if err != nil {
		return describe(err)
	}
	return render(c, a.Config.Output, user)
}

func register(c *cli.Context) error {
	password, err := readPassword(c)
	if err != nil {
		return err
	}

	a, release, err := clientFor(c)
	if err != nil {
		return err
	}
	defer release()

	user, err := a.Auth.Register(c.Context, domain.Registration{
		Name:     c.String("name"),
		Email:    c.String("email"),
		Password: password,
		Username: c.String("username"),
	})
	if err != nil {
		return describe(err)
	}
	return render(c, a.Config.Output, user)
}

func logout(c *cli.Context) error {
	a, release, err := clientFor(c)
	if err != nil {
		return err
	}
	defer release()

	// Restore the durable token so the backend call carries it.
	if !a.State.Snapshot().HasToken() {
		token, err := a.Mirror.Load(c.Context)
		if err != nil {
			return err
		}
		if _, err := a.Auth.Restore(c.Context, token); err != nil {
			return err
		}
	}
	if err := a.Auth.Logout(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Logged out")
	return nil
}

func me(c *cli.Context) error {
	a, release, err := clientFor(c)
	if err != nil {
		return err
	}
	defer release()

	startup := a.Start(c.Context)
	waitErr := startup.Wait(c.Context)

	snap := a.State.Snapshot()
	switch {
	case snap.Authenticated():
		return render(c, a.Config.Output, snap.User)
	case !snap.HasToken():
		if waitErr != nil {
			return describe(waitErr)
		}
		return describe(domain.ErrNotAuthenticated)
	}

	// The token is still unconfirmed after a transient failure; ask again.
	user, err := a.Auth.FetchMe(c.Context)
	if err != nil {
		return describe(err)
	}
	return render(c, a.Config.Output, user)
}

// statusView is the output of the status command.
type statusView struct {
	Authenticated bool            `json:"authenticated"`
	Token         string          `json:"token"`
	User          *domain.Profile `json:"user"`
	Storage       string          `json:"storage"`
	Error         string          `json:"error,omitempty"`
}

func status(c *cli.Context) error {
	a, release, err := clientFor(c)
	if err != nil {
		return err
	}
	defer release()

	startup := a.Start(c.Context)
	waitErr := startup.Wait(c.Context)

	snap := a.State.Snapshot()
	view := statusView{
		Authenticated: snap.Authenticated(),
		Token:         logger.RedactToken(snap.Token),
		User:          snap.User,
		Storage:       a.Config.Storage.Driver,
	}
	if waitErr != nil {
		view.Error = describe(waitErr).Error()
	}
	return render(c, a.Config.Output, view)
}

// describe turns service errors into messages fit for a terminal.
func describe(err error) error {
	var apiErr *connection.APIError
	switch {
	case errors.Is(err, domain.ErrCredentialInvalidated):
		return errors.New("session expired, please log in again")
	case errors.Is(err, domain.ErrNotAuthenticated):
		return errors.New("not logged in")
	case errors.As(err, &apiErr):
		if fields := apiErr.FieldErrors(); len(fields) > 0 {
			return fmt.Errorf("%s (%s)", apiErr.Message, strings.Join(fields, "; "))
		}
		return errors.New(apiErr.Message)
	default:
		return err
	}
}

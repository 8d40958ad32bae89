package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/linkhub-go/internal/core/domain"
	"github.com/yndnr/linkhub-go/internal/notify"
)

// ToastCommand returns the toast command.
func ToastCommand() *cli.Command {
	return &cli.Command{
		Name:      "toast",
		Usage:     "Push messages through the notification queue",
		ArgsUsage: "MESSAGE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "success, error, info or warning",
				Value:   string(domain.NotificationInfo),
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Notification title",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Display time; 0 keeps it until dismissed (default from config)",
			},
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Wait until the active notification is dismissed",
			},
		},
		Action: toast,
	}
}

// toastView is one row of the toast command output.
type toastView struct {
	ID       string                  `json:"id,omitempty"`
	Type     domain.NotificationType `json:"type"`
	Message  string                  `json:"message"`
	Admitted bool                    `json:"admitted"`
}

func toast(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one MESSAGE is required")
	}
	typ := domain.NotificationType(c.String("type"))
	if !typ.Valid() {
		return fmt.Errorf("unknown notification type %q", typ)
	}

	a, release, err := clientFor(c)
	if err != nil {
		return err
	}
	defer release()

	opts := []notify.Option{notify.WithType(typ)}
	if title := c.String("title"); title != "" {
		opts = append(opts, notify.WithTitle(title))
	}
	if c.IsSet("timeout") {
		opts = append(opts, notify.WithTimeout(c.Duration("timeout")))
	}

	done := make(chan struct{}, 1)
	unsubscribe := a.Notify.Subscribe(func(list []domain.Notification) {
		if len(list) == 0 {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	var views []toastView
	var active domain.Notification
	for _, msg := range c.Args().Slice() {
		n, ok := a.Notify.Show(msg, opts...)
		views = append(views, toastView{ID: n.ID, Type: typ, Message: msg, Admitted: ok})
		if ok {
			active = n
		}
	}
	if err := render(c, a.Config.Output, views); err != nil {
		return err
	}

	if !c.Bool("wait") || active.Timeout == 0 || a.Config.Notify.DisableTimers {
		return nil
	}
	select {
	case <-done:
	case <-time.After(active.Timeout + time.Second):
	case <-c.Context.Done():
		return c.Context.Err()
	}
	return nil
}

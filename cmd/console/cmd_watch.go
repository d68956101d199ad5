package main

import (
	"context"
	"strings"

	"github.com/nexusforge/console/pkg/chrome"
	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/notify"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow push notifications and keep the factory list current",
	Long: `Mount the console shell: load the factory sidebar, open the
notification channel and print every toast until interrupted.

The channel transport is chosen by notification_source (websocket or kafka).`,
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		source, err := notify.OpenSource(a.cfg)
		if err != nil {
			return err
		}

		channel := notify.NewChannel(source, notify.OptionsFromConfig(a.cfg, notify.Options{
			Notifier: a.notifier,
			Bus:      a.bus,
		}))
		sidebar := chrome.NewSidebar(a.client, a.bus, func(list []models.Factory) {
			names := make([]string, 0, len(list))
			for _, f := range list {
				names = append(names, f.Name)
			}
			printInfo("Factories (%d): %s", len(list), orDash(strings.Join(names, ", ")))
		})
		topbar := chrome.NewTopbar(a.sessions, channel.Feed(), a.auth)
		shell := chrome.NewShell(sidebar, topbar, channel)

		printInfo("Signed in as %s <%s>", topbar.Username(), orDash(topbar.Email()))
		printInfo("Listening on %s (Ctrl+C to stop)", source.Name())
		shell.Mount(ctx)

		var runErr error
		select {
		case <-ctx.Done():
		case runErr = <-shell.ChannelDone():
		}
		shell.Unmount()

		printInfo("")
		received := topbar.OpenNotifications()
		printInfo("%d notification(s) received", len(received))
		if runErr != nil {
			printWarning("Notification channel closed: %v", runErr)
		}
		return nil
	}),
}

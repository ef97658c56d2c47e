package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/events"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/output"
)

func NewWatchCmd(deps *Dependencies) *cobra.Command {
	var (
		server string
		runID  string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream pipeline events from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)
			if server == "" {
				if err := deps.loadConfig(); err != nil {
					return err
				}
				server = fmt.Sprintf("localhost:%d", deps.Config.Server.Port)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			u := eventsURL(server, runID)
			formatter.Info("Watching " + u)
			return watchEvents(ctx, u, formatter.EventLine)
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "", "Server address (host:port); defaults to localhost and the configured port")
	cmd.Flags().StringVarP(&runID, "run", "r", "", "Only show events for this run")
	return cmd
}

func eventsURL(server, runID string) string {
	u := url.URL{Scheme: "ws", Host: server, Path: "/ws/events"}
	if runID != "" {
		u.RawQuery = url.Values{"run_id": {runID}}.Encode()
	}
	return u.String()
}

// watchEvents reads events from the server until ctx is done or the
// connection drops.
func watchEvents(ctx context.Context, u string, handle func(events.Event)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", u, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reading events: %w", err)
		}
		var e events.Event
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		handle(e)
	}
}

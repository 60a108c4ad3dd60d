// handlers_chat.go implements the interactive chat session and the status
// command.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/workboardhq/workboard/internal/backoff"
	"github.com/workboardhq/workboard/internal/chat"
	"github.com/workboardhq/workboard/internal/history"
	"github.com/workboardhq/workboard/internal/roster"
)

func runChat(ctx context.Context, replay int) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	archive, err := openArchive(a)
	if err != nil {
		return err
	}
	if archive != nil {
		defer archive.Close()
		if replay > 0 {
			if err := replayArchive(archive, replay); err != nil {
				return err
			}
		}
	} else if replay > 0 {
		return errors.New("history archive is disabled in the configuration")
	}

	// The display loop sits between the manager and the reconciler: it
	// prints each event, then forwards it unchanged.
	events := make(chan chat.Event)

	rosterOpts := roster.Options{
		Source:      a.client,
		Events:      events,
		RefreshSpec: a.cfg.Chat.RosterRefresh,
		Logger:      a.logger,
	}
	if archive != nil {
		rosterOpts.Archive = archive
	}
	rec := roster.New(rosterOpts)

	manager := chat.NewManager(chat.Options{
		URL:       a.cfg.Server.WSURL,
		Session:   a.store,
		Sink:      a.sink,
		SendGuard: rec.IsActive,
		Reconnect: backoff.Policy{
			MaxAttempts: a.cfg.Chat.ReconnectMaxAttempts,
			Initial:     a.cfg.Chat.ReconnectInitialDelay.Std(),
			Max:         a.cfg.Chat.ReconnectMaxDelay.Std(),
			Factor:      2,
			Jitter:      true,
		},
		Logger:  a.logger,
		Metrics: a.metrics,
	})

	runErr := make(chan error, 1)
	go func() { runErr <- rec.Run(ctx) }()

	if err := manager.Connect(ctx); err != nil {
		return err
	}
	defer manager.Close()

	go func() {
		defer close(events)
		for ev := range manager.Events() {
			printEvent(rec, ev)
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Println("Connected. Type /users, /select <id>, /history, /quit.")
	prompt(ctx, rec, manager)

	stop()
	manager.Close()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openArchive(a *app) (*history.Store, error) {
	if !a.cfg.History.Enabled {
		return nil, nil
	}
	path := a.cfg.History.Path
	if path == "" {
		var err error
		path, err = history.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return history.Open(path)
}

func replayArchive(archive *history.Store, n int) error {
	msgs, err := archive.Recent(n)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		fmt.Printf("[replay] %s %d: %s\n",
			time.UnixMilli(m.Timestamp).Format("01-02 15:04"), m.SenderID, m.Content)
	}
	return nil
}

// prompt reads stdin until /quit, EOF, or context cancellation.
func prompt(ctx context.Context, rec *roster.Reconciler, manager *chat.Manager) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !handleLine(rec, manager, strings.TrimSpace(line)) {
				return
			}
		}
	}
}

// handleLine executes one prompt line; it reports false when the session
// should end.
func handleLine(rec *roster.Reconciler, manager *chat.Manager, line string) bool {
	switch {
	case line == "":
		return true
	case line == "/quit":
		return false
	case line == "/users":
		printContacts(rec)
		return true
	case line == "/history":
		printLog(rec)
		return true
	case strings.HasPrefix(line, "/select"):
		arg := strings.TrimSpace(strings.TrimPrefix(line, "/select"))
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			fmt.Println("usage: /select <contact id>")
			return true
		}
		if err := rec.Select(id); err != nil {
			fmt.Printf("select: %v\n", err)
			return true
		}
		fmt.Printf("Talking to %d\n", id)
		return true
	case strings.HasPrefix(line, "/"):
		fmt.Printf("unknown command %q\n", strings.Fields(line)[0])
		return true
	default:
		target, ok := rec.ActiveTarget()
		if !ok {
			fmt.Println("no target selected; use /select <id>")
			return true
		}
		if !manager.Send(target, line) {
			fmt.Println("message not sent")
		}
		return true
	}
}

func printEvent(rec *roster.Reconciler, ev chat.Event) {
	switch ev.Kind {
	case chat.EventMessage:
		fmt.Printf("%s %s: %s\n",
			time.UnixMilli(ev.Message.Timestamp).Format("15:04"),
			contactName(rec, ev.Message.SenderID), ev.Message.Content)
	case chat.EventPresence:
		state := "offline"
		if ev.Presence.Online {
			state = "online"
		}
		fmt.Printf("* %s is %s\n", contactName(rec, ev.Presence.ContactID), state)
	case chat.EventState:
		fmt.Printf("* channel %s\n", ev.State)
	case chat.EventError:
		fmt.Printf("* channel down: %v\n", ev.Err)
	}
}

func contactName(rec *roster.Reconciler, id int64) string {
	for _, c := range rec.Contacts() {
		if c.ID == id {
			return c.DisplayName
		}
	}
	return strconv.FormatInt(id, 10)
}

func printContacts(rec *roster.Reconciler) {
	contacts := rec.Contacts()
	if len(contacts) == 0 {
		fmt.Println("No contacts")
		return
	}
	active, hasActive := rec.ActiveTarget()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATE")
	for _, c := range contacts {
		state := "offline"
		if c.Online {
			state = "online"
		}
		marker := ""
		if hasActive && c.ID == active {
			marker = "  *"
		}
		fmt.Fprintf(w, "%d\t%s\t%s%s\n", c.ID, c.DisplayName, state, marker)
	}
	w.Flush()
}

func printLog(rec *roster.Reconciler) {
	msgs := rec.Messages()
	if len(msgs) == 0 {
		fmt.Println("No messages yet")
		return
	}
	for _, m := range msgs {
		fmt.Printf("%s %s: %s\n",
			time.UnixMilli(m.Timestamp).Format("15:04"),
			contactName(rec, m.SenderID), m.Content)
	}
}

func runStatus() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	fmt.Printf("Config:    %s\n", configPath)
	fmt.Printf("Backend:   %s\n", a.cfg.Server.BaseURL)
	fmt.Printf("Channel:   %s\n", a.cfg.Server.WSURL)

	if _, ok := a.store.Get(); !ok {
		fmt.Println("Session:   none (run `workboard login`)")
	} else if exp, ok := a.store.ExpiresAt(); ok {
		remaining := time.Until(exp).Round(time.Minute)
		if remaining > 0 {
			fmt.Printf("Session:   valid, expires %s (%s)\n", exp.Format(time.RFC3339), remaining)
		} else {
			fmt.Printf("Session:   expired %s\n", exp.Format(time.RFC3339))
		}
	} else {
		fmt.Println("Session:   token held (opaque)")
	}

	if !a.cfg.History.Enabled {
		fmt.Println("History:   disabled")
		return nil
	}
	archive, err := openArchive(a)
	if err != nil {
		return err
	}
	defer archive.Close()
	n, err := archive.Count()
	if err != nil {
		return err
	}
	fmt.Printf("History:   %d archived messages\n", n)
	return nil
}

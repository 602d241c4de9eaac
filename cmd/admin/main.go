package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/models"
	"studybuddy/backend/internal/storage"
)

const usage = `Usage: admin <command> [args]

Commands:
  sessions               list all sessions with status and participant count
  participants <id>      list the participants of a session
  history <id>           print the chat history of a session`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Read()
	if err != nil {
		log.Fatalf("failed to read configuration: %v", err)
	}
	db, err := storage.Open(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	storageSvc := storage.NewStorageService(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, storageSvc, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, s storage.Storage, args []string, out io.Writer) error {
	switch args[0] {
	case "sessions":
		return listSessions(ctx, s, out, time.Now())
	case "participants":
		id, err := sessionArg(args)
		if err != nil {
			return err
		}
		return listParticipants(ctx, s, id, out)
	case "history":
		id, err := sessionArg(args)
		if err != nil {
			return err
		}
		return printHistory(ctx, s, id, out)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func sessionArg(args []string) (uint, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("usage: admin %s <session_id>", args[0])
	}
	id, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid session id %q", args[1])
	}
	return uint(id), nil
}

func listSessions(ctx context.Context, s storage.Storage, out io.Writer, now time.Time) error {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return err
	}
	ids := make([]uint, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.ID)
	}
	participants, err := s.ListParticipantsForSessions(ctx, ids)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOURSE\tTYPE\tSTART\tSTATUS\tPARTICIPANTS\tCREATOR")
	for _, sess := range sessions {
		status := models.StatusAt(sess.StartTime, sess.EndTime, now)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			sess.ID,
			sess.CourseCode,
			sess.SessionType,
			sess.StartTime.Format(time.RFC3339),
			status.Kind,
			capacity(len(participants[sess.ID]), sess.MaxParticipants),
			sess.CreatorID,
		)
	}
	return w.Flush()
}

func capacity(count int, max *int) string {
	if max == nil {
		return strconv.Itoa(count)
	}
	return fmt.Sprintf("%d/%d", count, *max)
}

func listParticipants(ctx context.Context, s storage.Storage, sessionID uint, out io.Writer) error {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return err
	}
	participants, err := s.ListParticipants(ctx, sessionID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER ID\tNAME")
	for _, p := range participants {
		fmt.Fprintf(w, "%d\t%s\n", p.ID, p.Name)
	}
	return w.Flush()
}

func printHistory(ctx context.Context, s storage.Storage, sessionID uint, out io.Writer) error {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return err
	}
	history, err := s.GetChatHistory(ctx, sessionID)
	if err != nil {
		return err
	}

	for _, m := range history {
		name := m.Name
		if name == "" {
			name = config.UnknownSenderName
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", m.CreatedAt.Format(time.DateTime), name, m.Text)
	}
	return nil
}

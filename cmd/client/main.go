// Command client is a small demo client: it keeps a synced set of notes and
// exposes the pairing handshake for adding devices.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/client/config"
	"github.com/dmitrijs2005/syncapi/internal/client/repository"
	"github.com/dmitrijs2005/syncapi/internal/client/session"
	"github.com/dmitrijs2005/syncapi/internal/client/storage"
	"github.com/dmitrijs2005/syncapi/internal/client/transport"
	"github.com/dmitrijs2005/syncapi/internal/logging"
)

type Note struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

func (n *Note) GetID() uuid.UUID      { return n.ID }
func (n *Note) SetID(id uuid.UUID)    { n.ID = id }
func (n *Note) GetIdentifier() string { return "note" }

func main() {
	var (
		cmd  = flag.String("cmd", "list", "command: add | remove | list | sync | pair-generate | pair-use")
		text = flag.String("text", "", "note text for add")
		id   = flag.String("id", "", "note id for remove")
		code = flag.String("code", "", "pairing code for pair-use")
	)
	flag.Parse()

	if err := run(*cmd, *text, *id, *code); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func run(cmd, text, id, code string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	store, err := storage.Open(ctx, cfg.CacheDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	api := transport.NewClient(cfg.BaseURL, logger)
	sess, err := session.New(cfg, api, store, logger)
	if err != nil {
		return err
	}

	notes, err := noteRepository(ctx, sess, store, logger)
	if err != nil {
		return err
	}

	switch cmd {
	case "add":
		if text == "" {
			return fmt.Errorf("add needs -text")
		}
		note := &Note{Text: text}
		if err := notes.Save(ctx, note); err != nil {
			return err
		}
		fmt.Println(note.ID)
		return nil

	case "remove":
		noteID, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("remove needs a valid -id: %w", err)
		}
		note, err := notes.Get(ctx, noteID)
		if err != nil {
			return err
		}
		return notes.Remove(ctx, note)

	case "list":
		all, err := notes.GetAll(ctx)
		if err != nil {
			return err
		}
		for _, n := range all {
			fmt.Printf("%s\t%s\n", n.ID, n.Text)
		}
		return nil

	case "sync":
		if err := notes.Sync(ctx); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil

	case "pair-generate":
		pairCode, err := sess.GeneratePairingCode(ctx)
		if err != nil {
			return err
		}
		fmt.Println(pairCode)
		return nil

	case "pair-use":
		if code == "" {
			return fmt.Errorf("pair-use needs -code")
		}
		if err := sess.RedeemPairingCode(ctx, code); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	}

	return fmt.Errorf("unknown command %q", cmd)
}

func noteRepository(ctx context.Context, sess *session.Session, store *storage.Store, logger logging.Logger) (*repository.Repository[*Note], error) {
	collection, err := sess.EnsureDefaultCollection(ctx)
	if err != nil {
		return nil, err
	}
	syncer := sess.RecordSyncer(collection)
	return repository.New("note", func() *Note { return &Note{} }, store, syncer, logger), nil
}

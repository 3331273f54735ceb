package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
)

func (a *App) list(ctx context.Context) {
	entries, err := a.journal.ListEntries(ctx, false)
	if err != nil {
		log.Println(err.Error())
		return
	}

	if len(entries) == 0 {
		fmt.Println("No entries yet. Use 'write' to start one.")
		return
	}
	for _, e := range entries {
		sync := "not synced"
		if e.SyncedAt != nil {
			sync = "synced"
		}
		fmt.Printf("%s  %s  v%d  %s\n", e.ID, e.Date, e.Version, sync)
	}
}

func (a *App) show(ctx context.Context) {
	id, err := a.promptID("Enter entry id to show")
	if err != nil {
		return
	}

	e, err := a.journal.GetEntry(ctx, id)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	fmt.Printf("Date: %s (version %d, status %s)\n", e.Date, e.Version, e.Status)
	if e.RefinedOutput != "" {
		fmt.Println("---")
		fmt.Println(e.RefinedOutput)
	}
	for _, conv := range e.Conversations {
		for _, msg := range conv.Messages {
			fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
		}
	}
}

// write creates today's entry, or appends to an existing one when the user
// supplies an id.
func (a *App) write(ctx context.Context) {
	id, err := getSimpleText(a.reader, "Enter entry id to edit (empty for a new entry)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	content, err := GetMultiline(a.reader, "Write your entry", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	if content == "" {
		fmt.Println("Nothing written, entry unchanged.")
		return
	}

	if id == "" {
		date := time.Now().Format("2006-01-02")
		e, err := a.journal.CreateEntry(ctx, date, content)
		if err != nil {
			log.Printf("Error: %s", err.Error())
			return
		}
		fmt.Printf("Created entry %s for %s\n", e.ID, e.Date)
		return
	}

	entryID, err := uuid.Parse(id)
	if err != nil {
		log.Printf("invalid id: %v", err)
		return
	}
	e, err := a.journal.UpdateEntryContent(ctx, entryID, content)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	fmt.Printf("Updated entry %s (queued for sync)\n", e.ID)
}

func (a *App) archive(ctx context.Context) {
	id, err := a.promptID("Enter entry id to archive")
	if err != nil {
		return
	}
	if err := a.journal.ArchiveEntry(ctx, id); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	fmt.Println("Archived (queued for sync)")
}

func (a *App) promptID(prompt string) (uuid.UUID, error) {
	text, err := getSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return uuid.Nil, err
	}
	id, err := uuid.Parse(text)
	if err != nil {
		log.Printf("invalid id: %v", err)
		return uuid.Nil, err
	}
	return id, nil
}

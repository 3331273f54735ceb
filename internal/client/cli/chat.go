package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) chat(ctx context.Context) {
	if a.Mode != ModeOnline {
		fmt.Println("Chat needs a server connection. Try again when online.")
		return
	}

	id, err := a.promptID("Enter entry id to chat about")
	if err != nil {
		return
	}
	message, err := getSimpleText(a.reader, "Your message", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	e, err := a.remote.Chat(ctx, id, message)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	if len(e.Conversations) > 0 {
		conv := e.Conversations[len(e.Conversations)-1]
		if len(conv.Messages) > 0 {
			last := conv.Messages[len(conv.Messages)-1]
			fmt.Printf("[%s] %s\n", last.Role, last.Content)
		}
	}
}

func (a *App) refine(ctx context.Context) {
	if a.Mode != ModeOnline {
		fmt.Println("Refine needs a server connection. Try again when online.")
		return
	}

	id, err := a.promptID("Enter entry id to refine")
	if err != nil {
		return
	}
	if _, err := a.remote.RequestRefine(ctx, id); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	fmt.Println("Refine requested. The rewritten entry arrives on a later sync.")
}

func (a *App) attach(ctx context.Context) {
	if a.Mode != ModeOnline {
		fmt.Println("Attachments need a server connection. Try again when online.")
		return
	}

	id, err := a.promptID("Enter entry id to attach to")
	if err != nil {
		return
	}
	path, err := getSimpleText(a.reader, "Enter file path", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	att, err := a.remote.UploadAttachment(ctx, id, path)
	if err != nil {
		log.Printf("Upload failed: %s", err.Error())
		return
	}
	fmt.Printf("Uploaded %s as attachment %s\n", att.FileName, att.ID)
}

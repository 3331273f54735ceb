package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	syncapi "github.com/epicrunze/journal/internal/server/sync"
)

func (a *App) sync(ctx context.Context) {
	result, err := a.syncService.Run(ctx)
	if err != nil {
		log.Printf("Sync failed: %s", err.Error())
		return
	}

	fmt.Printf("Sync complete: %d applied, %d auto-merged, %d conflicts, %d skipped, %d pulled\n",
		result.Applied, result.AutoMerged, result.Conflicts, result.Skipped, result.Pulled)
	if result.Remaining > 0 {
		fmt.Printf("%d changes still queued\n", result.Remaining)
	}
	if result.Conflicts > 0 {
		fmt.Println("Use 'conflicts' to review and 'resolve' to settle them.")
	}
}

func (a *App) conflicts(ctx context.Context) {
	list, err := a.syncService.Conflicts(ctx)
	if err != nil {
		log.Println(err.Error())
		return
	}

	if len(list) == 0 {
		fmt.Println("No unresolved conflicts.")
		return
	}
	for _, c := range list {
		fmt.Printf("%s  (%s, base v%d vs server v%d)\n", c.EntityID, c.Entity, c.BaseVersion, c.ServerVersion)
		fmt.Println("--- yours ---")
		fmt.Println(c.LocalContent)
		fmt.Println("--- server ---")
		fmt.Println(c.ServerContent)
	}
}

func (a *App) resolve(ctx context.Context) {
	id, err := a.promptID("Enter entry id to resolve")
	if err != nil {
		return
	}

	choice, err := getSimpleText(a.reader, "Keep which side? (local / server / merged)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	var content string
	switch choice {
	case syncapi.ResolutionLocal:
		c, err := a.syncService.Conflicts(ctx)
		if err != nil {
			log.Println(err.Error())
			return
		}
		for _, conflict := range c {
			if conflict.EntityID == id {
				content = conflict.LocalContent
			}
		}
	case syncapi.ResolutionServer:
		// Server content wins; no payload needed.
	case syncapi.ResolutionMerged:
		content, err = GetMultiline(a.reader, "Enter the merged text", os.Stdout)
		if err != nil {
			log.Printf("error: %v", err)
			return
		}
	default:
		fmt.Println("Unknown resolution:", choice)
		return
	}

	if err := a.syncService.ResolveConflict(ctx, id, choice, content); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	fmt.Println("Conflict resolved.")
}

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) goals(ctx context.Context) {
	goals, err := a.journal.ListGoals(ctx, false)
	if err != nil {
		log.Println(err.Error())
		return
	}

	if len(goals) == 0 {
		fmt.Println("No goals yet. Use 'addgoal' to create one.")
		return
	}
	for _, g := range goals {
		state := "active"
		if !g.Active {
			state = "inactive"
		}
		fmt.Printf("%s  [%s]  %s  (%s)\n", g.ID, g.Category, g.Description, state)
	}
}

func (a *App) addGoal(ctx context.Context) {
	category, err := getSimpleText(a.reader, "Enter category (health, productivity, skills, ...)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	description, err := getSimpleText(a.reader, "Enter description", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	g, err := a.journal.CreateGoal(ctx, category, description)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	fmt.Printf("Created goal %s (queued for sync)\n", g.ID)
}

func (a *App) deleteGoal(ctx context.Context) {
	id, err := a.promptID("Enter goal id to delete")
	if err != nil {
		return
	}
	if err := a.journal.DeleteGoal(ctx, id); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	fmt.Println("Deleted (queued for sync)")
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.email != "" {
		s = a.email + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to the journal CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	a.restoreSession(ctx)

	go func() {
		a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}()

	for {
		fmt.Printf("journal %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: (l)ist, show, write, archive, goals, addgoal, delgoal, sync, conflicts, resolve, chat, refine, attach, pending, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "l", "list":
			a.list(ctx)
		case "show":
			a.show(ctx)
		case "write":
			a.write(ctx)
		case "archive":
			a.archive(ctx)
		case "goals":
			a.goals(ctx)
		case "addgoal":
			a.addGoal(ctx)
		case "delgoal":
			a.deleteGoal(ctx)
		case "sync":
			a.sync(ctx)
		case "conflicts":
			a.conflicts(ctx)
		case "resolve":
			a.resolve(ctx)
		case "chat":
			a.chat(ctx)
		case "refine":
			a.refine(ctx)
		case "attach":
			a.attach(ctx)
		case "pending":
			n, err := a.journal.PendingCount(ctx)
			if err != nil {
				log.Println(err.Error())
				continue
			}
			fmt.Printf("%d changes queued for sync\n", n)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

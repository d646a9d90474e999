// vmeet - command line client for the V-Meet room directory
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dino-is-real/vmeet-v2/clients/go/vmeet"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := vmeet.NewClient(os.Getenv("VMEET_URL"))
	cmd := os.Args[1]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "health":
		resp, err := client.Health(ctx)
		exitOnError(err)
		printJSON(resp)

	case "rooms":
		rooms, err := client.ListRooms(ctx)
		exitOnError(err)
		printRooms(rooms)

	case "create":
		requireArgs(3, "vmeet create <name>")
		room, err := client.CreateRoom(ctx, os.Args[2])
		exitOnError(err)
		fmt.Printf("Created: %s (%s)\n", room.ID, room.Name)

	case "join":
		requireArgs(3, "vmeet join <room_id> [name]")
		name := ""
		if len(os.Args) > 3 {
			name = os.Args[3]
		}
		room, err := client.Join(ctx, os.Args[2], name)
		exitOnError(err)
		fmt.Printf("Joined %s (%d in room). Ctrl-C to leave.\n", room.Name, room.Participants)

		// Stay in the room until interrupted, keeping it listed.
		client.KeepAliveLoop(ctx, room.ID, vmeet.DefaultKeepAliveInterval, func(err error) {
			fmt.Fprintln(os.Stderr, "keep-alive:", err)
		})

		leaveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err = client.Leave(leaveCtx, room.ID)
		exitOnError(err)
		fmt.Println("Left", room.Name)

	case "leave":
		requireArgs(3, "vmeet leave <room_id>")
		room, err := client.Leave(ctx, os.Args[2])
		exitOnError(err)
		fmt.Printf("Left %s (%d in room)\n", room.Name, room.Participants)

	case "delete":
		requireArgs(3, "vmeet delete <room_id>")
		exitOnError(client.DeleteRoom(ctx, os.Args[2]))
		fmt.Println("Deleted", os.Args[2])

	case "watch":
		w := &vmeet.Watcher{
			Client:  client,
			OnRooms: printRooms,
			OnError: func(err error) { fmt.Fprintln(os.Stderr, "Error:", err) },
		}
		w.Run(ctx)

	case "notes":
		requireArgs(3, "vmeet notes <room_id> [text]")
		if len(os.Args) > 3 {
			exitOnError(client.SaveNotes(ctx, os.Args[2], os.Args[3]))
			fmt.Println("Notes saved")
			return
		}
		n, err := client.GetNotes(ctx, os.Args[2])
		exitOnError(err)
		fmt.Println(n.Text)

	case "whoami":
		if len(os.Args) > 2 {
			exitOnError(client.SetUsername(ctx, os.Args[2]))
		}
		name, err := client.Username(ctx)
		exitOnError(err)
		fmt.Println(name)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`vmeet - V-Meet room directory client

Usage: vmeet <command> [options]

Commands:
  rooms                   List active rooms
  create <name>           Create a room
  join <room_id> [name]   Join (or create) a room and stay until Ctrl-C
  leave <room_id>         Leave a room
  delete <room_id>        Delete a room
  watch                   Follow the room list
  notes <room_id> [text]  Read or replace private notes
  whoami [name]           Read or set the current username
  health                  Check server health

Environment:
  VMEET_URL     Server URL (default: http://localhost:8080)`)
}

func requireArgs(n int, usageLine string) {
	if len(os.Args) < n {
		fmt.Fprintln(os.Stderr, "Usage:", usageLine)
		os.Exit(1)
	}
}

func printRooms(rooms []vmeet.Room) {
	for _, r := range rooms {
		updated := time.UnixMilli(r.LastUpdated).Format("15:04:05")
		fmt.Printf("  %-36s  %-30s  %2d online  (updated %s)\n", r.ID, r.Name, r.Participants, updated)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

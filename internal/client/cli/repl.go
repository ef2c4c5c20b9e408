package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a stub.
type execIface interface {
	Status(ctx context.Context, args []string) error
	Connect(ctx context.Context, args []string) error
	Disconnect(ctx context.Context, args []string) error
	Send(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Copy(ctx context.Context, args []string) error
	Pin(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Clear(ctx context.Context, args []string) error
	Devices(ctx context.Context, args []string) error
	Fingerprint(ctx context.Context, args []string) error
	Link(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  status                     connection state, device and key
  connect [token]            connect to the relay
  disconnect                 close the relay connection
  send <text>                copy text here and send it to the other devices
  history | ls [type] [text] list entries (type: all, text, code, url)
  show <id>                  print an entry in full
  copy <id>                  put an entry on the clipboard
  pin <id>                   pin or unpin an entry
  delete <id>                remove an entry
  clear                      remove all unpinned entries
  devices                    list devices seen on this connection
  fingerprint                show the shared key fingerprint
  link                       show a QR code for linking a new device
  import <uri>               adopt the key from a link uri
  exit | quit                leave the program`

// runREPL reads commands from scanner until EOF or "exit"/"quit". The first
// token selects the command; the rest are passed as arguments. Handler errors
// are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("echo (%s) > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "status":
			err = a.Status(ctx, args)
		case "connect":
			err = a.Connect(ctx, args)
		case "disconnect":
			err = a.Disconnect(ctx, args)
		case "send":
			err = a.Send(ctx, args)
		case "history", "ls":
			err = a.History(ctx, args)
		case "show":
			err = a.Show(ctx, args)
		case "copy":
			err = a.Copy(ctx, args)
		case "pin":
			err = a.Pin(ctx, args)
		case "delete", "rm":
			err = a.Delete(ctx, args)
		case "clear":
			err = a.Clear(ctx, args)
		case "devices":
			err = a.Devices(ctx, args)
		case "fingerprint":
			err = a.Fingerprint(ctx, args)
		case "link":
			err = a.Link(ctx, args)
		case "import":
			err = a.Import(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

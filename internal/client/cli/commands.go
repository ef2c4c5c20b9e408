package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/echosync/internal/client/history"
	"github.com/dmitrijs2005/echosync/internal/client/keys"
	"github.com/dmitrijs2005/echosync/internal/client/linking"
	"github.com/dmitrijs2005/echosync/internal/client/protocol"
	"github.com/dmitrijs2005/echosync/internal/common"
)

const (
	previewLen = 60
	shortIDLen = 8
	timeLayout = "Jan 02 15:04:05"
	pinnedMark = "*"
)

func usage(s string) error {
	return fmt.Errorf("usage: %s", s)
}

func (a *App) Status(ctx context.Context, args []string) error {
	fmt.Fprintf(a.out, "State:       %s\n", a.engine.Status())
	fmt.Fprintf(a.out, "Relay:       %s\n", a.config.RelayURL)
	fmt.Fprintf(a.out, "Device:      %s (%s)\n", a.deviceLabel(), a.engine.DeviceID())
	if key, ok := a.keys.Key(); ok {
		fmt.Fprintf(a.out, "Key:         %s\n", keys.Fingerprint(key))
	}
	if a.keys.Degraded() {
		fmt.Fprintln(a.out, "Storage:     unavailable, key is kept for this session only")
	}
	fmt.Fprintf(a.out, "History:     %d entries\n", a.history.Len())
	return nil
}

// Connect uses the token from args, then the configured one, then a prompt.
func (a *App) Connect(ctx context.Context, args []string) error {
	token := a.currentToken()
	if len(args) > 0 {
		token = args[0]
	}
	if token == "" {
		t, err := GetToken(a.out)
		if err != nil {
			return err
		}
		token = t
	}
	a.setToken(token)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return a.engine.Connect(ctx, token)
}

func (a *App) Disconnect(ctx context.Context, args []string) error {
	return a.engine.Disconnect(ctx)
}

func (a *App) Send(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		t, err := GetMultiline(a.reader, "Text to send", a.out)
		if err != nil {
			return err
		}
		text = t
	}
	if text == "" {
		return usage("send <text>")
	}
	return a.engine.Publish(text)
}

func (a *App) History(ctx context.Context, args []string) error {
	filter := history.FilterAll
	if len(args) > 0 {
		if f, err := history.ParseContentType(args[0]); err == nil {
			filter = f
			args = args[1:]
		}
	}
	entries := a.history.Query(filter, strings.Join(args, " "))
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries.")
		return nil
	}

	selected, _ := a.history.Selected()
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		mark := " "
		if e.Pinned {
			mark = pinnedMark
		}
		if e.ID == selected.ID {
			mark += ">"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, shortID(e.ID), e.ContentType, e.DeviceName, e.Timestamp.Format(timeLayout), preview(e.Content))
	}
	return tw.Flush()
}

func (a *App) Show(ctx context.Context, args []string) error {
	e, err := a.entryArg(args, "show <id>")
	if err != nil {
		return err
	}
	if err := a.history.Select(e.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ID:      %s\n", e.ID)
	fmt.Fprintf(a.out, "Type:    %s\n", e.ContentType)
	fmt.Fprintf(a.out, "Source:  %s (%s)\n", e.Source, e.DeviceName)
	fmt.Fprintf(a.out, "Time:    %s\n", e.Timestamp.Format(timeLayout))
	fmt.Fprintf(a.out, "Pinned:  %t\n", e.Pinned)
	fmt.Fprintln(a.out, e.Content)
	return nil
}

// Copy places an entry on the clipboard. The resulting change is recorded
// and sent like any other local copy.
func (a *App) Copy(ctx context.Context, args []string) error {
	e, err := a.entryArg(args, "copy <id>")
	if err != nil {
		return err
	}
	if err := a.history.Select(e.ID); err != nil {
		return err
	}
	return a.engine.Publish(e.Content)
}

func (a *App) Pin(ctx context.Context, args []string) error {
	e, err := a.entryArg(args, "pin <id>")
	if err != nil {
		return err
	}
	pinned, err := a.history.TogglePin(e.ID)
	if err != nil {
		return err
	}
	if pinned {
		fmt.Fprintln(a.out, "Pinned", shortID(e.ID))
	} else {
		fmt.Fprintln(a.out, "Unpinned", shortID(e.ID))
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	e, err := a.entryArg(args, "delete <id>")
	if err != nil {
		return err
	}
	return a.history.Delete(e.ID)
}

func (a *App) Clear(ctx context.Context, args []string) error {
	a.history.Clear()
	return nil
}

func (a *App) Devices(ctx context.Context, args []string) error {
	devices := a.engine.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(a.out, "No devices seen yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, d := range devices {
		mark := " "
		if d.Current {
			mark = pinnedMark
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, d.Name, shortID(d.ID), d.LastSeen.Format(timeLayout))
	}
	return tw.Flush()
}

func (a *App) Fingerprint(ctx context.Context, args []string) error {
	key, ok := a.keys.Key()
	if !ok {
		return errors.New("no shared key")
	}
	fmt.Fprintln(a.out, keys.Fingerprint(key))
	return nil
}

// Link shows the link URI as a terminal QR code. It is never written to disk.
func (a *App) Link(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return usage("link")
	}
	key, ok := a.keys.Key()
	if !ok {
		return errors.New("no shared key")
	}
	uri, err := linking.BuildLinkURIWithScheme(a.config.LinkScheme, a.engine.DeviceID(), key, a.config.RelayURL)
	if err != nil {
		return err
	}

	qr, err := linking.RenderQR(uri)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, qr)
	fmt.Fprintln(a.out, "Scan this code on the new device, or run there:")
	fmt.Fprintf(a.out, "  import %s\n", uri)
	fmt.Fprintln(a.out, "Anyone holding this code can read your clipboard. Do not share it.")

	return nil
}

// Import adopts the key carried by a link URI. History saved under the old
// key is re-encrypted on exit.
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("import <uri>")
	}
	req, err := linking.ParseLinkURIWithScheme(a.config.LinkScheme, args[0])
	if err != nil {
		return err
	}

	codec, err := protocol.NewCodec(req.SharedKey)
	if err != nil {
		return err
	}
	if err := a.keys.ImportKey(ctx, req.SharedKey); err != nil {
		return err
	}
	if err := a.engine.SetCodec(codec); err != nil {
		return err
	}
	common.WipeByteArray(req.SharedKey)

	a.log.Info(ctx, "key imported", "from", req.DeviceID)
	fmt.Fprintf(a.out, "Key imported (fingerprint %s).\n", a.fingerprint())
	if req.RelayEndpoint != a.config.RelayURL {
		fmt.Fprintf(a.out, "The linking device uses relay %s; restart with -r %s to use it.\n",
			req.RelayEndpoint, req.RelayEndpoint)
	}
	return nil
}

// entryArg resolves args[0] as an entry id or unique id prefix.
func (a *App) entryArg(args []string, use string) (history.Entry, error) {
	if len(args) != 1 {
		return history.Entry{}, usage(use)
	}
	if e, err := a.history.Get(args[0]); err == nil {
		return e, nil
	}

	var found []history.Entry
	for _, e := range a.history.List() {
		if strings.HasPrefix(e.ID, args[0]) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return history.Entry{}, fmt.Errorf("entry %s: %w", args[0], common.ErrNotFound)
	case 1:
		return found[0], nil
	}
	return history.Entry{}, fmt.Errorf("entry prefix %s is ambiguous", args[0])
}

func (a *App) deviceLabel() string {
	if a.config.DeviceName != "" {
		return a.config.DeviceName
	}
	return "This Device"
}

func (a *App) fingerprint() string {
	key, ok := a.keys.Key()
	if !ok {
		return ""
	}
	return keys.Fingerprint(key)
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > previewLen {
		return string(r[:previewLen-1]) + "…"
	}
	return s
}

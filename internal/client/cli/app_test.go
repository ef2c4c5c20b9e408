package cli

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/echosync/internal/client/client"
	"github.com/dmitrijs2005/echosync/internal/client/clipboard"
	"github.com/dmitrijs2005/echosync/internal/client/config"
	"github.com/dmitrijs2005/echosync/internal/client/history"
	"github.com/dmitrijs2005/echosync/internal/client/keys"
	"github.com/dmitrijs2005/echosync/internal/client/linking"
	"github.com/dmitrijs2005/echosync/internal/client/protocol"
	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/dmitrijs2005/echosync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	*App
	buf    *bytes.Buffer
	bridge *clipboard.MemoryBridge
	dbPath string
}

func newTestApp(t *testing.T, dbPath string) *testApp {
	t.Helper()
	ctx := context.Background()

	if dbPath == "" {
		dbPath = filepath.Join(t.TempDir(), "echo.db")
	}
	repos, err := client.InitDatabase(ctx, dbPath)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabasePath = dbPath
	cfg.DeviceName = "Desk"
	cfg.AutoReconnect = false

	km := keys.NewManager(repos.Secrets, logging.Discard())
	key, err := km.LoadOrCreateKey(ctx)
	require.NoError(t, err)
	codec, err := protocol.NewCodec(key)
	require.NoError(t, err)

	bridge := clipboard.NewMemoryBridge()
	a := newApp(cfg, logging.Discard(), repos, km, bridge, codec)
	buf := &bytes.Buffer{}
	a.out = buf
	return &testApp{App: a, buf: buf, bridge: bridge, dbPath: dbPath}
}

// runEngine starts the engine until the test ends.
func (ta *testApp) runEngine(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ta.engine.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = ta.repos.Close()
	})
}

func (ta *testApp) output() string {
	s := ta.buf.String()
	ta.buf.Reset()
	return s
}

func TestApp_SendRecordsAndWritesClipboard(t *testing.T) {
	ta := newTestApp(t, "")
	ta.runEngine(t)
	ctx := context.Background()

	require.NoError(t, ta.Send(ctx, []string{"hello", "world"}))

	require.Eventually(t, func() bool { return ta.history.Len() == 1 }, time.Second, 5*time.Millisecond)
	latest, _ := ta.history.Latest()
	assert.Equal(t, "hello world", latest.Content)
	assert.Equal(t, history.SourceLocal, latest.Source)
	assert.Equal(t, "Desk", latest.DeviceName)
	require.Eventually(t, func() bool { return len(ta.bridge.Writes()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestApp_HistoryFiltersAndPins(t *testing.T) {
	ta := newTestApp(t, "")
	ta.runEngine(t)
	ctx := context.Background()

	text, _ := ta.history.Append("plain words", history.SourceLocal, "Desk")
	url, _ := ta.history.Append("https://example.com", history.SourceRemote, "Laptop")

	require.NoError(t, ta.History(ctx, []string{"url"}))
	out := ta.output()
	assert.Contains(t, out, "https://example.com")
	assert.NotContains(t, out, "plain words")

	require.NoError(t, ta.History(ctx, []string{"words"}))
	out = ta.output()
	assert.Contains(t, out, "plain words")
	assert.NotContains(t, out, "example.com")

	require.NoError(t, ta.Pin(ctx, []string{text.ID[:6]}))
	assert.Contains(t, ta.output(), "Pinned")
	require.NoError(t, ta.History(ctx, nil))
	lines := strings.Split(strings.TrimSpace(ta.output()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "plain words", "pinned entries sort first")
	assert.True(t, strings.HasPrefix(lines[0], pinnedMark))

	require.NoError(t, ta.Delete(ctx, []string{url.ID}))
	assert.Equal(t, 1, ta.history.Len())

	require.NoError(t, ta.Clear(ctx, nil))
	assert.Equal(t, 1, ta.history.Len(), "pinned entries survive clear")
}

func TestApp_ShowAndCopy(t *testing.T) {
	ta := newTestApp(t, "")
	ta.runEngine(t)
	ctx := context.Background()

	first, _ := ta.history.Append("first", history.SourceLocal, "Desk")
	ta.history.Append("second", history.SourceLocal, "Desk")

	require.NoError(t, ta.Show(ctx, []string{first.ID}))
	assert.Contains(t, ta.output(), "first")
	sel, ok := ta.history.Selected()
	require.True(t, ok)
	assert.Equal(t, first.ID, sel.ID)

	require.NoError(t, ta.Copy(ctx, []string{first.ID}))
	require.Eventually(t, func() bool {
		w := ta.bridge.Writes()
		return len(w) == 1 && w[0] == "first"
	}, time.Second, 5*time.Millisecond)
}

func TestApp_EntryArgErrors(t *testing.T) {
	ta := newTestApp(t, "")
	ta.runEngine(t)
	ctx := context.Background()

	assert.Error(t, ta.Show(ctx, nil))
	assert.ErrorIs(t, ta.Show(ctx, []string{"missing"}), common.ErrNotFound)
}

func TestApp_StatusAndFingerprint(t *testing.T) {
	ta := newTestApp(t, "")
	ta.runEngine(t)
	ctx := context.Background()

	key, ok := ta.keys.Key()
	require.True(t, ok)

	require.NoError(t, ta.Fingerprint(ctx, nil))
	assert.Equal(t, keys.Fingerprint(key)+"\n", ta.output())

	require.NoError(t, ta.Status(ctx, nil))
	out := ta.output()
	assert.Contains(t, out, "disconnected")
	assert.Contains(t, out, keys.Fingerprint(key))
	assert.Contains(t, out, ta.engine.DeviceID())
}

func TestApp_LinkAndImport(t *testing.T) {
	src := newTestApp(t, "")
	src.runEngine(t)
	dst := newTestApp(t, "")
	dst.runEngine(t)
	ctx := context.Background()

	dir := t.TempDir()
	assert.Error(t, src.Link(ctx, []string{filepath.Join(dir, "link.png")}))
	require.NoError(t, src.Link(ctx, nil))
	out := src.output()
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files, "link output stays on the terminal")

	var uri string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "import ") {
			uri = strings.TrimPrefix(line, "import ")
		}
	}
	require.NotEmpty(t, uri)
	req, err := linking.ParseLinkURI(uri)
	require.NoError(t, err)
	assert.Equal(t, src.engine.DeviceID(), req.DeviceID)

	require.NoError(t, dst.Import(ctx, []string{uri}))
	assert.Equal(t, src.fingerprint(), dst.fingerprint())

	assert.ErrorIs(t, dst.Import(ctx, []string{"echo://connect?id=x"}), common.ErrInvalidLink)
	assert.Error(t, dst.Import(ctx, nil))
}

func TestApp_HistoryPersistsAcrossRestarts(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "echo.db")
	ctx := context.Background()

	first := newTestApp(t, dbPath)
	first.history.Append("kept", history.SourceLocal, "Desk")
	first.persistHistory()
	require.NoError(t, first.repos.Close())

	second := newTestApp(t, dbPath)
	second.runEngine(t)
	second.restoreHistory(ctx)

	latest, ok := second.history.Latest()
	require.True(t, ok)
	assert.Equal(t, "kept", latest.Content)
	assert.Equal(t, first.engine.DeviceID(), second.engine.DeviceID())
}

func TestApp_DevicesEmpty(t *testing.T) {
	ta := newTestApp(t, "")
	ta.runEngine(t)

	require.NoError(t, ta.Devices(context.Background(), nil))
	assert.Contains(t, ta.output(), "No devices")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n b\tc"))
	long := strings.Repeat("x", 100)
	assert.Len(t, []rune(preview(long)), previewLen)
	assert.Equal(t, "12345678", shortID("1234567890"))
	assert.Equal(t, "abc", shortID("abc"))
}

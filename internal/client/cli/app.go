package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/echosync/internal/client/client"
	"github.com/dmitrijs2005/echosync/internal/client/clipboard"
	"github.com/dmitrijs2005/echosync/internal/client/config"
	"github.com/dmitrijs2005/echosync/internal/client/engine"
	"github.com/dmitrijs2005/echosync/internal/client/history"
	"github.com/dmitrijs2005/echosync/internal/client/keys"
	"github.com/dmitrijs2005/echosync/internal/client/protocol"
	"github.com/dmitrijs2005/echosync/internal/client/relay"
	"github.com/dmitrijs2005/echosync/internal/client/services"
	"github.com/dmitrijs2005/echosync/internal/logging"
)

const (
	connectTimeout = 15 * time.Second
	persistTimeout = 5 * time.Second
)

type App struct {
	config     *config.Config
	log        logging.Logger
	repos      *client.Repositories
	keys       *keys.Manager
	history    *history.Store
	historySvc services.HistoryService
	bridge     clipboard.Bridge
	system     *clipboard.SystemBridge
	engine     *engine.Engine
	reconnect  *engine.Reconnector

	reader *bufio.Reader
	out    io.Writer

	mu    sync.Mutex
	token string
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(c.LogLevel, c.LogFormat, os.Stderr)

	repos, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	km := keys.NewManager(repos.Secrets, log)
	key, err := km.LoadOrCreateKey(ctx)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	codec, err := protocol.NewCodec(key)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	var bridge clipboard.Bridge
	var system *clipboard.SystemBridge
	if clipboard.Supported() {
		system = clipboard.NewSystemBridge(c.PollInterval, log)
		bridge = system
	} else {
		log.Warn(ctx, "no system clipboard available, running with an in-memory clipboard")
		bridge = clipboard.NewMemoryBridge()
	}

	a := newApp(c, log, repos, km, bridge, codec)
	a.system = system
	return a, nil
}

func newApp(c *config.Config, log logging.Logger, repos *client.Repositories, km *keys.Manager,
	bridge clipboard.Bridge, codec *protocol.Codec) *App {
	ctx := context.Background()

	store := history.NewStore()
	eng := engine.New(engine.Config{
		DeviceID:          km.GetOrCreateDeviceID(ctx),
		DeviceName:        c.DeviceName,
		HeartbeatInterval: c.HeartbeatInterval,
	}, codec, relay.NewDialer(c.RelayURL, log), store, bridge, log)

	a := &App{
		config:     c,
		log:        log,
		repos:      repos,
		keys:       km,
		history:    store,
		historySvc: services.NewHistoryService(repos.History, log),
		bridge:     bridge,
		engine:     eng,
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		token:      c.Token,
	}

	eng.Subscribe(a.onStatus)
	eng.OnPlatformError(func(err error) {
		a.log.Error(ctx, "clipboard access failed", logging.KeyError, err)
	})
	if c.AutoReconnect {
		a.reconnect = engine.NewReconnector(eng, c.Token, c.ReconnectDelay, log)
	}
	return a
}

// Run blocks until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.repos.Close()

	a.restoreHistory(ctx)

	var wg sync.WaitGroup
	if a.system != nil {
		a.system.Start(ctx)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = a.engine.Run(ctx)
	}()
	if a.reconnect != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.reconnect.Run(ctx)
		}()
	}

	if a.currentToken() != "" {
		_ = a.Connect(ctx, nil)
	}

	fmt.Fprintln(a.out, "echosync (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))

	cancel()
	wg.Wait()
	a.persistHistory()
}

func (a *App) restoreHistory(ctx context.Context) {
	key, ok := a.keys.Key()
	if !ok {
		return
	}
	n, err := a.historySvc.Restore(ctx, a.history, key)
	if err != nil {
		a.log.Warn(ctx, "failed to restore history", logging.KeyError, err)
		return
	}
	a.log.Debug(ctx, "history restored", "entries", n)
}

func (a *App) persistHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	key, ok := a.keys.Key()
	if !ok {
		return
	}
	if err := a.historySvc.Persist(ctx, a.history, key); err != nil {
		a.log.Error(ctx, "failed to save history", logging.KeyError, err)
	}
}

func (a *App) onStatus(c engine.StatusChange) {
	switch {
	case c.Err != nil && errors.Is(c.Err, context.Canceled):
	case c.Err != nil:
		fmt.Fprintf(a.out, "\n[%s] %v\n", c.State, c.Err)
	default:
		fmt.Fprintf(a.out, "\n[%s]\n", c.State)
	}
}

func (a *App) getStatus() string {
	return a.engine.Status().String()
}

func (a *App) currentToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *App) setToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
	if a.reconnect != nil {
		a.reconnect.SetToken(token)
	}
}

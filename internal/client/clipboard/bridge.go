package clipboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/dmitrijs2005/echosync/internal/logging"
)

// DefaultPollInterval is how often SystemBridge samples the clipboard.
const DefaultPollInterval = 500 * time.Millisecond

const changeBuffer = 16

// Bridge is the platform clipboard as seen by the engine.
type Bridge interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
	Changes() <-chan string
}

// SystemBridge is the Bridge over the OS clipboard.
type SystemBridge struct {
	interval time.Duration
	readAll  func() (string, error)
	writeAll func(string) error
	log      logging.Logger

	mu      sync.Mutex
	last    string
	changes chan string
	once    sync.Once
}

type Option func(*SystemBridge)

// WithBackend swaps the atotto/clipboard calls, for tests.
func WithBackend(read func() (string, error), write func(string) error) Option {
	return func(b *SystemBridge) {
		b.readAll = read
		b.writeAll = write
	}
}

func NewSystemBridge(interval time.Duration, log logging.Logger, opts ...Option) *SystemBridge {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	b := &SystemBridge{
		interval: interval,
		readAll:  clipboard.ReadAll,
		writeAll: clipboard.WriteAll,
		log:      log.With(logging.KeyComponent, "clipboard"),
		changes:  make(chan string, changeBuffer),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Supported reports whether the platform has a usable clipboard utility.
func Supported() bool {
	return !clipboard.Unsupported
}

func (b *SystemBridge) Read(ctx context.Context) (string, error) {
	text, err := b.readAll()
	if err != nil {
		return "", fmt.Errorf("%w: read: %v", common.ErrPlatform, err)
	}
	return text, nil
}

// Write sets the clipboard and records text so the poller does not report it.
func (b *SystemBridge) Write(ctx context.Context, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.writeAll(text); err != nil {
		return fmt.Errorf("%w: write: %v", common.ErrPlatform, err)
	}
	b.last = text
	return nil
}

func (b *SystemBridge) Changes() <-chan string {
	return b.changes
}

// Start begins polling until ctx is done, then closes Changes. Content present
// before Start is not reported. Only the first call has an effect.
func (b *SystemBridge) Start(ctx context.Context) {
	b.once.Do(func() {
		if text, err := b.readAll(); err == nil {
			b.mu.Lock()
			b.last = text
			b.mu.Unlock()
		}
		go b.poll(ctx)
	})
}

func (b *SystemBridge) poll(ctx context.Context) {
	defer close(b.changes)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.log.Info(ctx, "clipboard monitor started", "interval", b.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			text, changed := b.sample()
			if !changed {
				continue
			}
			select {
			case b.changes <- text:
			case <-ctx.Done():
				return
			}
		}
	}
}

// sample reads the clipboard once. Read errors (often non-text content) and
// empty text are ignored.
func (b *SystemBridge) sample() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	text, err := b.readAll()
	if err != nil || text == "" || text == b.last {
		return "", false
	}
	b.last = text
	return text, true
}

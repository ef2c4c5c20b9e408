package clipboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/dmitrijs2005/echosync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOS stands in for the system clipboard.
type fakeOS struct {
	mu      sync.Mutex
	text    string
	readErr error
	failW   error
}

func (f *fakeOS) read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.text, nil
}

func (f *fakeOS) write(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failW != nil {
		return f.failW
	}
	f.text = s
	return nil
}

func (f *fakeOS) set(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = s
}

func (f *fakeOS) setReadErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

func newBridge(t *testing.T, os *fakeOS) (*SystemBridge, context.CancelFunc) {
	t.Helper()
	b := NewSystemBridge(5*time.Millisecond, logging.Discard(), WithBackend(os.read, os.write))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	b.Start(ctx)
	return b, cancel
}

func expectChange(t *testing.T, b *SystemBridge, want string) {
	t.Helper()
	select {
	case got := <-b.Changes():
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("expected change %q", want)
	}
}

func expectNoChange(t *testing.T, b *SystemBridge) {
	t.Helper()
	select {
	case got := <-b.Changes():
		t.Fatalf("unexpected change %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSystemBridge_ReportsEachChangeOnce(t *testing.T) {
	os := &fakeOS{text: "already there"}
	b, _ := newBridge(t, os)

	expectNoChange(t, b)

	os.set("one")
	expectChange(t, b, "one")
	expectNoChange(t, b)

	os.set("two")
	expectChange(t, b, "two")
}

func TestSystemBridge_IgnoresEmptyAndReadErrors(t *testing.T) {
	os := &fakeOS{}
	b, _ := newBridge(t, os)

	os.set("")
	expectNoChange(t, b)

	os.setReadErr(errors.New("image on clipboard"))
	expectNoChange(t, b)

	os.setReadErr(nil)
	os.set("back to text")
	expectChange(t, b, "back to text")
}

func TestSystemBridge_OwnWriteIsNotAChange(t *testing.T) {
	os := &fakeOS{}
	b, _ := newBridge(t, os)

	require.NoError(t, b.Write(context.Background(), "from remote"))
	expectNoChange(t, b)

	got, err := b.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from remote", got)
}

func TestSystemBridge_WriteFailureIsPlatformError(t *testing.T) {
	os := &fakeOS{failW: errors.New("denied")}
	b := NewSystemBridge(time.Second, logging.Discard(), WithBackend(os.read, os.write))

	err := b.Write(context.Background(), "x")
	assert.ErrorIs(t, err, common.ErrPlatform)
}

func TestSystemBridge_ReadFailureIsPlatformError(t *testing.T) {
	os := &fakeOS{readErr: errors.New("denied")}
	b := NewSystemBridge(time.Second, logging.Discard(), WithBackend(os.read, os.write))

	_, err := b.Read(context.Background())
	assert.ErrorIs(t, err, common.ErrPlatform)
}

func TestSystemBridge_ClosesChangesOnCancel(t *testing.T) {
	b, cancel := newBridge(t, &fakeOS{})
	cancel()

	select {
	case _, ok := <-b.Changes():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("changes channel not closed")
	}
}

package relay

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_NewestFirstAndCapped(t *testing.T) {
	h := NewHistory(50)
	for i := 0; i < 60; i++ {
		h.Add("acc", Frame{Data: fmt.Sprintf("msg_%d", i)})
	}

	got := h.Get("acc")
	require.Len(t, got, 50)
	assert.Equal(t, "msg_59", got[0].Data)
	assert.Equal(t, "msg_10", got[49].Data)
}

func TestHistory_SeparateAccounts(t *testing.T) {
	h := NewHistory(5)
	h.Add("a", Frame{Data: "A"})
	h.Add("b", Frame{Data: "B"})

	assert.Equal(t, []Frame{{Data: "A"}}, h.Get("a"))
	assert.Equal(t, []Frame{{Data: "B"}}, h.Get("b"))
	assert.Empty(t, h.Get("unknown"))
}

func TestHistory_Disabled(t *testing.T) {
	h := NewHistory(0)
	h.Add("a", Frame{Data: "A"})
	assert.Empty(t, h.Get("a"))
}

func TestHistory_GetReturnsCopy(t *testing.T) {
	h := NewHistory(5)
	h.Add("a", Frame{Data: "A"})

	got := h.Get("a")
	got[0].Data = "changed"
	assert.Equal(t, "A", h.Get("a")[0].Data)
}

package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/model"
)

const sample = `{"id":"sms-1","sender":"VM-SBIINB","body":"Rs.500 debited","received_at":"2024-01-01T09:00:00Z"}
# comments and blank lines are ignored

not json
{"id":"sms-2","sender":"MPESA","body":"   "}
{"sender":"MPESA","body":"Ksh100 sent to JOHN"}
`

func TestReadAll(t *testing.T) {
	msgs, err := ReadAll(context.Background(), strings.NewReader(sample))

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "sms-1", msgs[0].ID)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), msgs[0].ReceivedAt)
	assert.NotEmpty(t, msgs[1].ID, "missing ids are derived")
	assert.False(t, msgs[1].HasReceiptTime())
}

func TestDeriveIDIsStable(t *testing.T) {
	a := model.IncomingMessage{Sender: "MPESA", Body: "Ksh100 sent"}
	b := a
	c := model.IncomingMessage{Sender: "MPESA", Body: "Ksh200 sent"}

	assert.Equal(t, DeriveID(a), DeriveID(b))
	assert.NotEqual(t, DeriveID(a), DeriveID(c))

	b.ReceivedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.NotEqual(t, DeriveID(a), DeriveID(b))
}

func TestJSONLFileMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	ch, err := NewJSONLFile(path).Messages(context.Background())
	require.NoError(t, err)

	var ids []string
	for msg := range ch {
		ids = append(ids, msg.ID)
	}
	require.Len(t, ids, 2)
	assert.Equal(t, "sms-1", ids[0])
}

func TestJSONLFileMissing(t *testing.T) {
	_, err := NewJSONLFile(filepath.Join(t.TempDir(), "nope.jsonl")).Messages(context.Background())
	assert.Error(t, err)
}

func TestJSONLStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := NewJSONLReader("test", strings.NewReader(sample)).Messages(ctx)
	require.NoError(t, err)

	<-ch
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestChannel(t *testing.T) {
	c := NewChannel(1)
	ctx := context.Background()

	ch, err := c.Messages(ctx)
	require.NoError(t, err)

	assert.True(t, c.Deliver(ctx, model.IncomingMessage{ID: "a"}))
	assert.Equal(t, "a", (<-ch).ID)

	c.Close()
	c.Close()
	assert.False(t, c.Deliver(ctx, model.IncomingMessage{ID: "b"}))
	_, ok := <-ch
	assert.False(t, ok)
}

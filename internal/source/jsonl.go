package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/smsledger/internal/model"
)

// maxLineBytes bounds a single JSON line.
const maxLineBytes = 1 << 20

// JSONL reads one JSON-encoded message per line.
type JSONL struct {
	open func() (io.ReadCloser, error)
	name string
}

// NewJSONLFile reads messages from path. "-" means standard input.
func NewJSONLFile(path string) *JSONL {
	if path == "-" {
		return NewJSONLReader("stdin", os.Stdin)
	}
	return &JSONL{
		name: path,
		open: func() (io.ReadCloser, error) { return os.Open(path) }, //nolint:gosec // user-supplied input file
	}
}

// NewJSONLReader reads messages from r, which is not closed.
func NewJSONLReader(name string, r io.Reader) *JSONL {
	return &JSONL{
		name: name,
		open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

// Messages streams decoded lines. Malformed lines are logged and skipped.
func (j *JSONL) Messages(ctx context.Context) (<-chan model.IncomingMessage, error) {
	rc, err := j.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", j.name, err)
	}

	out := make(chan model.IncomingMessage)
	go func() {
		defer close(out)
		defer func() { _ = rc.Close() }()

		err := scan(rc, func(msg model.IncomingMessage) bool {
			select {
			case out <- msg:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil {
			slog.Error("Message stream failed", "source", j.name, "error", err)
		}
	}()
	return out, nil
}

// ReadAll decodes every message in r.
func ReadAll(ctx context.Context, r io.Reader) ([]model.IncomingMessage, error) {
	var msgs []model.IncomingMessage
	err := scan(r, func(msg model.IncomingMessage) bool {
		msgs = append(msgs, msg)
		return ctx.Err() == nil
	})
	if err != nil {
		return msgs, err
	}
	return msgs, ctx.Err()
}

func scan(r io.Reader, emit func(model.IncomingMessage) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		msg, err := Decode([]byte(text))
		if err != nil {
			slog.Warn("Skipping malformed message", "line", line, "error", err)
			continue
		}
		if !emit(msg) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read messages: %w", err)
	}
	return nil
}

// Decode parses one message. A missing ID is derived from the sender, body
// and receipt time so redelivered copies share it.
func Decode(data []byte) (model.IncomingMessage, error) {
	var msg model.IncomingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return model.IncomingMessage{}, fmt.Errorf("invalid message json: %w", err)
	}
	if strings.TrimSpace(msg.Body) == "" {
		return model.IncomingMessage{}, fmt.Errorf("message has no body")
	}
	if msg.ID == "" {
		msg.ID = DeriveID(msg)
	}
	return msg, nil
}

// DeriveID returns a stable name-based UUID for msg.
func DeriveID(msg model.IncomingMessage) string {
	key := msg.Sender + "\x00" + msg.Body
	if msg.HasReceiptTime() {
		key += "\x00" + msg.ReceivedAt.UTC().Format(time.RFC3339Nano)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

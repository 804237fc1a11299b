package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"bartuchat.app/server/common/logger"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// DeltaSource is a lazy sequence of content deltas. Next returns io.EOF when
// the sequence is exhausted; any other error is a transport failure.
type DeltaSource interface {
	Next(ctx context.Context) (string, error)
}

// StreamHandle is a delta source bound to a releasable network resource.
// Close releases the transport; it must be safe to call more than once and
// must cause a blocked Next to return within one read cycle.
type StreamHandle interface {
	DeltaSource
	io.Closer
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder frames an SSE-style byte stream into content deltas. It is purely a
// framing adapter: no conversation state, no retry, no timeout. Frames are
// newline-delimited `data: ` lines carrying either a delta JSON object or the
// [DONE] sentinel; everything else is ignored. A frame split across transport
// reads is reassembled by the buffered reader before parsing. A frame that
// fails to parse is dropped and logged; the protocol is best-effort per frame.
type Decoder struct {
	r    *bufio.Reader
	done bool
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next content delta. io.EOF signals a clean end of the
// sequence, either the [DONE] sentinel or transport EOF.
func (d *Decoder) Next(ctx context.Context) (string, error) {
	if d.done {
		return "", io.EOF
	}

	for {
		line, err := d.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		atEOF := err == io.EOF

		delta, ok := d.decodeLine(ctx, line)
		if d.done {
			return "", io.EOF
		}
		if ok {
			if atEOF {
				d.done = true
			}
			return delta, nil
		}
		if atEOF {
			d.done = true
			return "", io.EOF
		}
	}
}

// decodeLine extracts a content delta from one line, reporting whether the
// line produced one. Sets d.done on the end-of-stream sentinel.
func (d *Decoder) decodeLine(ctx context.Context, line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if payload == doneSentinel {
		d.done = true
		return "", false
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "chat.decoder"})
		slog.DebugContext(ctx, "dropping malformed stream frame",
			"error", err,
			"payload", logger.Truncate(payload, 200))
		return "", false
	}

	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, true
}

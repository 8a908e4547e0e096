// Package relay re-emits a provider's chunk stream as Server-Sent Events.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"ai-service/internal/providers"
)

// DoneFrame is the terminal sentinel emitted after the source stream ends
// naturally. It is never emitted when the source fails mid-stream; the
// response aborts instead so the client sees the break at transport level.
const DoneFrame = "data: [DONE]\n\n"

type writeFlusher interface {
	io.Writer
	Flush()
}

// Stream pulls chunks one at a time and writes one `data: <json>` frame per
// chunk, flushing after each so frames leave in source order with no
// buffering. When ctx is done (client disconnected) it stops pulling
// immediately; the deferred Close releases the upstream vendor connection on
// every exit path.
func Stream(ctx context.Context, w writeFlusher, src providers.Stream) error {
	defer src.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := src.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		data, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		w.Flush()
	}

	if _, err := io.WriteString(w, DoneFrame); err != nil {
		return err
	}
	w.Flush()
	return nil
}

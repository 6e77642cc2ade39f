package tickcoord

import (
	"bufio"
	"context"
	"io"
)

// startOperator reads newline-delimited commands from r on a background
// goroutine and forwards them to a single-slot mailbox channel: a command
// the tick loop hasn't yet consumed is replaced by the next one rather than
// queued, since only the most recent operator intent matters. This is the
// Go-idiomatic equivalent of the original's non-blocking select(2) poll of
// stdin.
func (c *Coordinator) startOperator(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := scanner.Text()
			select {
			case <-ctx.Done():
				return
			case out <- line:
			default:
				select {
				case <-out:
				default:
				}
				out <- line
			}
		}
	}()
	return out
}

package build

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const maxLineSize = 1 << 20

// lineBuffer collects output lines from several readers. Lines from one
// reader keep their order; interleaving between readers is whatever the
// scheduler produced.
type lineBuffer struct {
	mu    sync.Mutex
	lines []string
	log   *zap.SugaredLogger
}

func (b *lineBuffer) add(line string) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.mu.Unlock()
}

// drain reads r line by line until EOF, dropping blank lines.
func (b *lineBuffer) drain(r io.Reader, stream string) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.log.Debugw(line, "stream", stream)
		b.add(line)
	}
	if err := sc.Err(); err != nil {
		// Keep the pipe flowing so the child never blocks on a full buffer.
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}

func (b *lineBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) == 0 {
		return ""
	}
	return strings.Join(b.lines, "\n") + "\n"
}

func (b *lineBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

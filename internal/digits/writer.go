package digits

import (
	"fmt"
	"io"
	"time"

	apperrors "github.com/agbru/picalc/internal/errors"
)

const (
	// MinBufferSize is the smallest accepted output buffer.
	MinBufferSize = 1024
	// DefaultBufferSize is the output buffer used when none is configured.
	DefaultBufferSize = 65536

	// BlockSize is the number of digits per space-separated group.
	BlockSize = 10
	// LineSize is the number of digits per line in formatted output.
	LineSize = 100
)

// Stats describes one write.
type Stats struct {
	// Bytes is the number of bytes handed to the sink.
	Bytes int64
	// Flushes is the number of sink writes.
	Flushes int
}

// Writer streams digits to a sink through a buffer of fixed capacity. The
// bytes written never depend on the buffer size; only the number and
// boundaries of sink writes do. A Writer holds no state between calls and
// may be shared.
type Writer struct {
	bufferSize int
	format     bool
}

// NewWriter returns a Writer.
//
// Parameters:
//   - bufferSize: The buffer capacity in bytes, at least MinBufferSize.
//   - format: Group digits in blocks of 10 and lines of 100.
//
// Returns:
//   - *Writer: The writer.
//   - error: A ConfigError when bufferSize is below MinBufferSize.
func NewWriter(bufferSize int, format bool) (*Writer, error) {
	if bufferSize < MinBufferSize {
		return nil, apperrors.NewConfigError("buffer size must be at least %d bytes, got %d", MinBufferSize, bufferSize)
	}
	return &Writer{bufferSize: bufferSize, format: format}, nil
}

// Formatted reports whether the writer groups digits.
func (w *Writer) Formatted() bool {
	return w.format
}

// WriteDigits writes the fractional digits of d.
//
// Unformatted output is the Count digits with no separator. Formatted
// output appends a newline after every 100th digit and after the last
// digit, and a space after every other 10th digit.
func (w *Writer) WriteDigits(sink io.Writer, d Digits) (Stats, error) {
	b := w.newBuffer(sink)
	if err := w.appendDigits(b, d); err != nil {
		return b.stats, err
	}
	err := b.flush()
	return b.stats, err
}

// WriteReport writes the full report for d through the bounded buffer:
// header, "3." line and digits. Callers expand the value first, so a
// NumericError surfaces before a sink exists.
//
// Parameters:
//   - sink: The destination.
//   - d: The expanded digits.
//   - elapsed: The computation time shown in the header.
//
// Returns:
//   - Stats: Bytes (header included) and flushes of the write.
//   - error: A ResourceError if the sink fails.
func (w *Writer) WriteReport(sink io.Writer, d Digits, elapsed time.Duration) (Stats, error) {
	b := w.newBuffer(sink)
	if err := b.write([]byte(Header(d.Count, elapsed))); err != nil {
		return b.stats, err
	}
	if err := w.appendDigits(b, d); err != nil {
		return b.stats, err
	}
	err := b.flush()
	return b.stats, err
}

// Header returns the report preamble for count digits, ending with the
// "3." line that precedes the fractional digits.
func Header(count uint64, elapsed time.Duration) string {
	return fmt.Sprintf("Pi calculated to %d digits. Computation time: %.2f seconds.\n\n3.\n", count, elapsed.Seconds())
}

// EncodedLen returns the number of bytes WriteDigits produces for count
// digits.
func EncodedLen(count uint64, format bool) int64 {
	if !format {
		return int64(count)
	}
	return int64(count + (count+BlockSize-1)/BlockSize)
}

func (w *Writer) appendDigits(b *buffer, d Digits) error {
	frac := []byte(d.Fractional())
	if !w.format {
		return b.write(frac)
	}

	n := uint64(len(frac))
	for start := uint64(0); start < n; start += BlockSize {
		end := min(start+BlockSize, n)
		if err := b.write(frac[start:end]); err != nil {
			return err
		}
		sep := byte(' ')
		if end%LineSize == 0 || end == n {
			sep = '\n'
		}
		if err := b.writeByte(sep); err != nil {
			return err
		}
	}
	return nil
}

// buffer is the bounded staging area between the formatter and the sink.
type buffer struct {
	sink  io.Writer
	buf   []byte
	stats Stats
}

func (w *Writer) newBuffer(sink io.Writer) *buffer {
	return &buffer{sink: sink, buf: make([]byte, 0, w.bufferSize)}
}

// write appends p, flushing first when p would not fit. Input larger than
// the whole buffer is split into buffer-sized chunks.
func (b *buffer) write(p []byte) error {
	for len(p) > 0 {
		if len(p) > cap(b.buf)-len(b.buf) && len(b.buf) > 0 {
			if err := b.flush(); err != nil {
				return err
			}
		}
		n := min(cap(b.buf)-len(b.buf), len(p))
		b.buf = append(b.buf, p[:n]...)
		p = p[n:]
	}
	return nil
}

func (b *buffer) writeByte(c byte) error {
	if len(b.buf) == cap(b.buf) {
		if err := b.flush(); err != nil {
			return err
		}
	}
	b.buf = append(b.buf, c)
	return nil
}

func (b *buffer) flush() error {
	if len(b.buf) == 0 {
		return nil
	}
	n, err := b.sink.Write(b.buf)
	b.stats.Bytes += int64(n)
	b.stats.Flushes++
	if err == nil && n < len(b.buf) {
		err = io.ErrShortWrite
	}
	b.buf = b.buf[:0]
	return apperrors.NewResourceError("write", "", err)
}

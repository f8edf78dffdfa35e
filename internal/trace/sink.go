package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/nvandessel/mina/internal/constants"
)

// Output formats.
const (
	FormatText  = constants.FormatText
	FormatArrow = constants.FormatArrow
)

// Sink receives generated timestamps in order. Close flushes buffered
// output; it does not close the underlying writer.
type Sink interface {
	Write(v float64) error
	Close() error
}

// NewSink returns a sink for the named format.
func NewSink(format string, w io.Writer) (Sink, error) {
	switch format {
	case "", FormatText:
		return NewTextWriter(w), nil
	case FormatArrow:
		return NewArrowWriter(w)
	default:
		return nil, fmt.Errorf("unknown output format %q (valid: text, arrow)", format)
	}
}

// TextWriter writes one decimal timestamp per line.
type TextWriter struct {
	w *bufio.Writer
}

// NewTextWriter returns a buffered text sink over w.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// FormatValue renders v in the shortest decimal form that round-trips,
// without an exponent.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Write implements Sink.
func (t *TextWriter) Write(v float64) error {
	if _, err := t.w.WriteString(FormatValue(v)); err != nil {
		return err
	}
	return t.w.WriteByte('\n')
}

// Close implements Sink.
func (t *TextWriter) Close() error {
	return t.w.Flush()
}

// ArrowChunk is the number of rows per Arrow record batch.
const ArrowChunk = 64 * 1024

// ArrivalSchema is the schema of Arrow output: a single non-null float64
// column.
var ArrivalSchema = arrow.NewSchema([]arrow.Field{
	{Name: "arrival", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// recordWriter is satisfied by both ipc.FileWriter and ipc.Writer.
type recordWriter interface {
	Write(rec arrow.Record) error
	Close() error
}

// ArrowWriter writes timestamps in Arrow IPC form: the random-access file
// format when the destination can seek, the streaming format otherwise.
type ArrowWriter struct {
	mem     memory.Allocator
	builder *array.Float64Builder
	writer  recordWriter
	stream  bool
}

// NewArrowWriter starts Arrow IPC output on w. A pipe or buffer gets the
// streaming format, since the file format needs to seek back to its footer.
func NewArrowWriter(w io.Writer) (*ArrowWriter, error) {
	mem := memory.NewGoAllocator()
	aw := &ArrowWriter{mem: mem}

	if ws, ok := w.(io.WriteSeeker); ok && seekable(ws) {
		fw, err := ipc.NewFileWriter(ws, ipc.WithSchema(ArrivalSchema), ipc.WithAllocator(mem))
		if err != nil {
			return nil, fmt.Errorf("creating arrow writer: %w", err)
		}
		aw.writer = fw
	} else {
		aw.writer = ipc.NewWriter(w, ipc.WithSchema(ArrivalSchema), ipc.WithAllocator(mem))
		aw.stream = true
	}

	aw.builder = array.NewFloat64Builder(mem)
	return aw, nil
}

// seekable reports whether ws really seeks. *os.File implements Seek for
// stdout even when it is a pipe.
func seekable(ws io.WriteSeeker) bool {
	_, err := ws.Seek(0, io.SeekCurrent)
	return err == nil
}

// Stream reports whether output uses the Arrow streaming format.
func (a *ArrowWriter) Stream() bool {
	return a.stream
}

// Write implements Sink.
func (a *ArrowWriter) Write(v float64) error {
	a.builder.Append(v)
	if a.builder.Len() >= ArrowChunk {
		return a.flush()
	}
	return nil
}

func (a *ArrowWriter) flush() error {
	if a.builder.Len() == 0 {
		return nil
	}
	col := a.builder.NewFloat64Array()
	defer col.Release()

	rec := array.NewRecord(ArrivalSchema, []arrow.Array{col}, int64(col.Len()))
	defer rec.Release()

	if err := a.writer.Write(rec); err != nil {
		return fmt.Errorf("writing arrow record: %w", err)
	}
	return nil
}

// Close implements Sink. It writes any buffered rows and the file footer
// or end-of-stream marker.
func (a *ArrowWriter) Close() error {
	defer a.builder.Release()
	if err := a.flush(); err != nil {
		return err
	}
	if err := a.writer.Close(); err != nil {
		return fmt.Errorf("closing arrow writer: %w", err)
	}
	return nil
}

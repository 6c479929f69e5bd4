// Package report renders submission outcomes for the terminal. Output is
// always valid JSON after the marked status line, on success and on error.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fatih/color"
	"github.com/iterate-binary-hack/submitdiff/internal/api"
	"github.com/iterate-binary-hack/submitdiff/internal/errs"
	"github.com/m-mizutani/goerr/v2"
)

var (
	successMark = color.New(color.FgGreen, color.Bold)
	errorMark   = color.New(color.FgRed, color.Bold)
	warnMark    = color.New(color.FgYellow)
)

// Writer prints reports. Stdout receives success output, Stderr everything
// on the error path.
type Writer struct {
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a Writer over the given streams.
func New(stdout, stderr io.Writer) *Writer {
	return &Writer{Stdout: stdout, Stderr: stderr}
}

// Result prints res and returns nil for 201 Created. Any other status is
// printed on the error path and returned as an ApiError.
func (w *Writer) Result(res api.SubmissionResult) error {
	if res.Truncated {
		w.Warn("response body truncated to %d bytes", len(res.Body))
	}
	if res.Accepted() {
		ew := &errWriter{w: w.Stdout}
		ew.print(successMark.Sprintf("✓ Diff submitted successfully (HTTP %d)", res.StatusCode))
		ew.print("\n")
		ew.write(SuccessBody(res.Body))
		return ew.err
	}

	ew := &errWriter{w: w.Stderr}
	ew.print(errorMark.Sprintf("✗ Diff submission failed (HTTP %d)", res.StatusCode))
	ew.print("\n")
	ew.write(ErrorBody(res.StatusCode, res.Body))

	return goerr.New("review API rejected the diff",
		goerr.T(errs.TagAPI),
		goerr.V("status", res.StatusCode),
		goerr.V("request_id", res.RequestID))
}

// Failure prints a marked error line for err.
func (w *Writer) Failure(err error) {
	label := errs.Kind(err)
	if label == "" {
		label = "Error"
	}
	errorMark.Fprintf(w.Stderr, "✗ %s: %v\n", label, err)
}

// Warn prints a marked warning line.
func (w *Writer) Warn(format string, args ...any) {
	warnMark.Fprintf(w.Stderr, "! "+format+"\n", args...)
}

// DryRun prints what would be submitted without sending it.
func (w *Writer) DryRun(endpoint string, p api.DiffPayload, files []string) error {
	summary := struct {
		Endpoint  string               `json:"endpoint"`
		EventID   string               `json:"event_id"`
		DiffBytes int                  `json:"diff_bytes"`
		Files     []string             `json:"files"`
		Metadata  *api.PayloadMetadata `json:"metadata,omitempty"`
	}{
		Endpoint:  endpoint,
		EventID:   p.EventID,
		DiffBytes: len(p.DiffContent),
		Files:     files,
		Metadata:  p.Metadata,
	}
	if summary.Files == nil {
		summary.Files = []string{}
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to render dry run")
	}

	ew := &errWriter{w: w.Stdout}
	ew.print(successMark.Sprint("✓ Dry run: diff staged, nothing sent"))
	ew.print("\n")
	ew.write(data)
	ew.print("\n")
	return ew.err
}

// SuccessBody indents a JSON body. A body that is not JSON is returned
// unchanged.
func SuccessBody(body []byte) []byte {
	if pretty, ok := indent(body); ok {
		return pretty
	}
	out := append([]byte{}, body...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out
}

// ErrorBody indents a JSON body, or wraps anything else as
// {"error": "<text>"}. An empty body is described by its status text.
func ErrorBody(status int, body []byte) []byte {
	if pretty, ok := indent(body); ok {
		return pretty
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		text = strings.TrimSpace(fmt.Sprintf("HTTP %d %s", status, http.StatusText(status)))
	}
	data, _ := json.MarshalIndent(map[string]string{"error": text}, "", "  ")
	return append(data, '\n')
}

func indent(body []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, false
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return nil, false
	}
	buf.WriteByte('\n')
	return buf.Bytes(), true
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (ew *errWriter) write(b []byte) {
	if ew.err != nil {
		return
	}
	_, ew.err = ew.w.Write(b)
}

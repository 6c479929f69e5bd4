package report_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/iterate-binary-hack/submitdiff/internal/api"
	"github.com/iterate-binary-hack/submitdiff/internal/errs"
	"github.com/iterate-binary-hack/submitdiff/internal/report"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestResult_Created(t *testing.T) {
	var stdout, stderr bytes.Buffer
	w := report.New(&stdout, &stderr)

	err := w.Result(api.SubmissionResult{StatusCode: 201, Body: []byte(`{"ok":true}`)})
	gt.NoError(t, err)
	gt.Equal(t, errs.ExitCode(err), 0)
	gt.Equal(t, stdout.String(), "✓ Diff submitted successfully (HTTP 201)\n{\n  \"ok\": true\n}\n")
	gt.Equal(t, stderr.Len(), 0)
}

func TestResult_CreatedNonJSONBody(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := report.New(&stdout, &stderr).Result(api.SubmissionResult{StatusCode: 201, Body: []byte("created")})
	gt.NoError(t, err)
	gt.String(t, stdout.String()).Contains("created\n")
}

func TestResult_RejectedNonJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	w := report.New(&stdout, &stderr)

	err := w.Result(api.SubmissionResult{StatusCode: 422, Body: []byte("bad event id")})
	gt.Error(t, err)
	gt.Equal(t, errs.Kind(err), "ApiError")
	gt.Equal(t, errs.ExitCode(err), 1)
	gt.Equal(t, stdout.Len(), 0)

	out := stderr.String()
	gt.String(t, out).Contains("✗ Diff submission failed (HTTP 422)")

	body := out[strings.Index(out, "\n")+1:]
	var parsed map[string]string
	gt.NoError(t, json.Unmarshal([]byte(body), &parsed))
	gt.Equal(t, parsed, map[string]string{"error": "bad event id"})
}

func TestResult_RejectedJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := report.New(&stdout, &stderr).Result(api.SubmissionResult{
		StatusCode: 400,
		Body:       []byte(`{"error":"missing event_id","code":400}`),
	})
	gt.Error(t, err)
	gt.String(t, stderr.String()).Contains("{\n  \"error\": \"missing event_id\",\n  \"code\": 400\n}\n")
}

func TestErrorBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   map[string]any
	}{
		{"plain text", 422, "bad event id", map[string]any{"error": "bad event id"}},
		{"html", 502, "<html>Bad Gateway</html>", map[string]any{"error": "<html>Bad Gateway</html>"}},
		{"quotes", 500, `say "no"`, map[string]any{"error": `say "no"`}},
		{"empty", 503, "", map[string]any{"error": "HTTP 503 Service Unavailable"}},
		{"json", 409, `{"detail":"duplicate"}`, map[string]any{"detail": "duplicate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := report.ErrorBody(tt.status, []byte(tt.body))
			gt.True(t, json.Valid(out))

			var got map[string]any
			gt.NoError(t, json.Unmarshal(out, &got))
			gt.Equal(t, got, tt.want)
		})
	}
}

func TestFailure(t *testing.T) {
	var stderr bytes.Buffer
	w := report.New(&bytes.Buffer{}, &stderr)

	w.Failure(goerr.New("not a git repository", goerr.T(errs.TagEnvironment)))
	gt.String(t, stderr.String()).Contains("✗ EnvironmentError: not a git repository")

	stderr.Reset()
	w.Failure(errors.New("boom"))
	gt.String(t, stderr.String()).Contains("✗ Error: boom")
}

func TestDryRun(t *testing.T) {
	var stdout bytes.Buffer
	w := report.New(&stdout, &bytes.Buffer{})

	p := api.BuildPayload("evt-9", "diff --git a/a.go b/a.go\n")
	gt.NoError(t, w.DryRun("http://localhost:3001/api/workbench/problems/diff", p, []string{"a.go"}))

	out := stdout.String()
	gt.String(t, out).Contains("Dry run")
	gt.String(t, out).Contains(`"event_id": "evt-9"`)
	gt.String(t, out).Contains(`"a.go"`)
	gt.String(t, out).Contains(`"diff_bytes": 25`)
}

func TestResult_TruncatedBodyWarns(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := report.New(&stdout, &stderr).Result(api.SubmissionResult{
		StatusCode: 201,
		Body:       []byte(`{"ok":tr`),
		Truncated:  true,
	})
	gt.NoError(t, err)
	gt.String(t, stderr.String()).Contains("response body truncated to 8 bytes")

	stdout.Reset()
	stderr.Reset()
	_ = report.New(&stdout, &stderr).Result(api.SubmissionResult{StatusCode: 201, Body: []byte(`{}`)})
	gt.Bool(t, strings.Contains(stderr.String(), "truncated")).False()
}

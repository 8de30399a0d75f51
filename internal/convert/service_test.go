package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"docconvert/internal/domain"
	"docconvert/internal/quota"
	"docconvert/internal/storage"
)

func testRegistry(r Routine) *Registry {
	return &Registry{modes: map[string]Mode{
		"pdf-to-word": {
			ID:        "pdf-to-word",
			Routine:   r,
			OutputExt: ".docx",
			InputExts: map[string]bool{".pdf": true},
		},
	}}
}

func newTestService(t *testing.T, r Routine, ledger quota.Ledger, timeout time.Duration) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	work, err := storage.NewWorkDir(dir)
	if err != nil {
		t.Fatalf("NewWorkDir() error: %v", err)
	}
	return NewService(testRegistry(r), work, ledger, timeout, 1<<20, zerolog.Nop()), dir
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func pdfUpload(name string) Upload {
	return Upload{
		Filename:    name,
		ContentType: "application/pdf",
		File:        strings.NewReader("%PDF-1.4 content"),
	}
}

func TestConvertHappyPath(t *testing.T) {
	ledger := quota.NewMemoryLedger(3)
	routine := routineFunc(func(ctx context.Context, in, out string) error {
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		return os.WriteFile(out, append([]byte("converted:"), data...), 0o644)
	})
	svc, dir := newTestService(t, routine, ledger, time.Second)

	res, err := svc.Convert(context.Background(), "s1", "pdf-to-word", pdfUpload("Quarterly Report.pdf"))
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if res.DownloadName != "Quarterly Report_converted.docx" {
		t.Fatalf("DownloadName = %q", res.DownloadName)
	}
	if filepath.Ext(res.Path) != ".docx" {
		t.Fatalf("output path = %q, want .docx", res.Path)
	}
	info, err := os.Stat(res.Path)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("output is empty")
	}

	// Only the output remains; the input was deleted on completion.
	if names := dirEntries(t, dir); len(names) != 1 {
		t.Fatalf("work dir = %v, want only the output file", names)
	}

	st, _ := ledger.Check(context.Background(), "s1")
	if st.Used != 1 {
		t.Fatalf("Used = %d, want 1", st.Used)
	}

	svc.DiscardOutput(res.Path)
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Fatalf("work dir = %v, want empty after discard", names)
	}
}

func TestConvertQuotaBlockedDoesNoFileIO(t *testing.T) {
	ledger := quota.NewMemoryLedger(0)
	svc, dir := newTestService(t, routineFunc(func(ctx context.Context, in, out string) error {
		t.Errorf("routine must not run when quota is exhausted")
		return nil
	}), ledger, time.Second)

	_, err := svc.Convert(context.Background(), "s1", "pdf-to-word", pdfUpload("doc.pdf"))
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("Convert() error = %v, want ErrQuotaExceeded", err)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Fatalf("work dir = %v, want empty", names)
	}
	st, _ := ledger.Check(context.Background(), "s1")
	if st.Used != 0 {
		t.Fatalf("Used = %d, want 0", st.Used)
	}
}

func TestConvertUnknownMode(t *testing.T) {
	ledger := quota.NewMemoryLedger(3)
	svc, _ := newTestService(t, nil, ledger, time.Second)

	_, err := svc.Convert(context.Background(), "s1", "pdf-to-csv", pdfUpload("doc.pdf"))
	if !errors.Is(err, domain.ErrInvalidMode) {
		t.Fatalf("Convert() error = %v, want ErrInvalidMode", err)
	}
	st, _ := ledger.Check(context.Background(), "s1")
	if st.Used != 0 {
		t.Fatalf("Used = %d, want 0 after rejected mode", st.Used)
	}
}

func TestConvertValidationRejection(t *testing.T) {
	ledger := quota.NewMemoryLedger(3)
	svc, dir := newTestService(t, nil, ledger, time.Second)

	up := Upload{Filename: "notes.txt", File: strings.NewReader("plain text")}
	_, err := svc.Convert(context.Background(), "s1", "pdf-to-word", up)
	if !errors.Is(err, domain.ErrInvalidFileType) {
		t.Fatalf("Convert() error = %v, want ErrInvalidFileType", err)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Fatalf("work dir = %v, want empty", names)
	}
}

func TestConvertFailureCleansUpInput(t *testing.T) {
	ledger := quota.NewMemoryLedger(3)
	svc, dir := newTestService(t, routineFunc(func(ctx context.Context, in, out string) error {
		return errors.New("library exploded: internal parser state at 0xdeadbeef")
	}), ledger, time.Second)

	_, err := svc.Convert(context.Background(), "s1", "pdf-to-word", pdfUpload("doc.pdf"))
	if !errors.Is(err, domain.ErrConversionFailed) {
		t.Fatalf("Convert() error = %v, want ErrConversionFailed", err)
	}
	// Internal detail must not leak into the surfaced error.
	if strings.Contains(err.Error(), "0xdeadbeef") {
		t.Fatalf("error leaks internal detail: %v", err)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Fatalf("work dir = %v, want empty after failure", names)
	}
	st, _ := ledger.Check(context.Background(), "s1")
	if st.Used != 0 {
		t.Fatalf("Used = %d, want 0 after failure", st.Used)
	}
}

func TestConvertTimeoutCleansUpInput(t *testing.T) {
	ledger := quota.NewMemoryLedger(3)
	svc, dir := newTestService(t, routineFunc(func(ctx context.Context, in, out string) error {
		<-ctx.Done()
		return ctx.Err()
	}), ledger, 30*time.Millisecond)

	_, err := svc.Convert(context.Background(), "s1", "pdf-to-word", pdfUpload("doc.pdf"))
	if !errors.Is(err, domain.ErrConversionTimeout) {
		t.Fatalf("Convert() error = %v, want ErrConversionTimeout", err)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Fatalf("work dir = %v, want empty after timeout", names)
	}
}

func TestConvertOutputMissing(t *testing.T) {
	ledger := quota.NewMemoryLedger(3)
	svc, dir := newTestService(t, routineFunc(func(ctx context.Context, in, out string) error {
		return nil // reports success, writes nothing
	}), ledger, time.Second)

	_, err := svc.Convert(context.Background(), "s1", "pdf-to-word", pdfUpload("doc.pdf"))
	if !errors.Is(err, domain.ErrOutputMissing) {
		t.Fatalf("Convert() error = %v, want ErrOutputMissing", err)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Fatalf("work dir = %v, want empty", names)
	}
	st, _ := ledger.Check(context.Background(), "s1")
	if st.Used != 0 {
		t.Fatalf("Used = %d, want 0", st.Used)
	}
}

func TestConvertLogsTerminalState(t *testing.T) {
	tests := []struct {
		name      string
		freeLimit int
		mode      string
		upload    Upload
		routine   Routine
		wantState string
		wantErr   bool
	}{
		{
			name:      "quota blocked",
			freeLimit: 0,
			mode:      "pdf-to-word",
			upload:    pdfUpload("doc.pdf"),
			wantState: "quota_blocked",
			wantErr:   true,
		},
		{
			name:      "unknown mode",
			freeLimit: 3,
			mode:      "pdf-to-csv",
			upload:    pdfUpload("doc.pdf"),
			wantState: "rejected",
			wantErr:   true,
		},
		{
			name:      "validation failure",
			freeLimit: 3,
			mode:      "pdf-to-word",
			upload:    Upload{Filename: "notes.txt", File: strings.NewReader("plain text")},
			wantState: "rejected",
			wantErr:   true,
		},
		{
			name:      "completed",
			freeLimit: 3,
			mode:      "pdf-to-word",
			upload:    pdfUpload("doc.pdf"),
			routine: routineFunc(func(ctx context.Context, in, out string) error {
				return os.WriteFile(out, []byte("converted"), 0o644)
			}),
			wantState: "completed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			work, err := storage.NewWorkDir(t.TempDir())
			if err != nil {
				t.Fatalf("NewWorkDir() error: %v", err)
			}
			svc := NewService(testRegistry(tc.routine), work, quota.NewMemoryLedger(tc.freeLimit),
				time.Second, 1<<20, zerolog.New(&buf))

			res, err := svc.Convert(context.Background(), "s1", tc.mode, tc.upload)
			if tc.wantErr != (err != nil) {
				t.Fatalf("Convert() error = %v, wantErr = %v", err, tc.wantErr)
			}
			if res != nil {
				svc.DiscardOutput(res.Path)
			}
			if !strings.Contains(buf.String(), `"state":"`+tc.wantState+`"`) {
				t.Fatalf("log = %s, want terminal state %q", buf.String(), tc.wantState)
			}
		})
	}
}

func TestDownloadName(t *testing.T) {
	tests := []struct {
		name     string
		original string
		ext      string
		want     string
	}{
		{name: "simple", original: "report.pdf", ext: ".docx", want: "report_converted.docx"},
		{name: "no extension", original: "report", ext: ".pdf", want: "report_converted.pdf"},
		{name: "traversal stripped", original: "../../etc/passwd.pdf", ext: ".docx", want: "passwd_converted.docx"},
		{name: "empty", original: "", ext: ".pdf", want: "upload_converted.pdf"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DownloadName(tc.original, tc.ext); got != tc.want {
				t.Fatalf("DownloadName(%q, %q) = %q, want %q", tc.original, tc.ext, got, tc.want)
			}
		})
	}
}

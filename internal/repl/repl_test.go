package repl

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/manash/lumina/internal/display"
	"github.com/manash/lumina/internal/history"
	"github.com/manash/lumina/internal/image"
	"github.com/manash/lumina/internal/session"
	"github.com/manash/lumina/pkg/models"
)

type memStorage struct {
	data []byte
}

func (m *memStorage) Load() ([]byte, error) { return m.data, nil }
func (m *memStorage) Save(data []byte) error {
	m.data = append([]byte(nil), data...)
	return nil
}

type mockClient struct {
	generateFunc func(ctx context.Context, prompt string, ratio models.AspectRatio) (string, error)
	editFunc     func(ctx context.Context, source, prompt string, ratio models.AspectRatio) (string, error)
}

func (m *mockClient) GenerateFromText(ctx context.Context, prompt string, ratio models.AspectRatio) (string, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, prompt, ratio)
	}
	return "data:image/png;base64,Zm9vYmFy", nil
}

func (m *mockClient) EditImage(ctx context.Context, source, prompt string, ratio models.AspectRatio) (string, error) {
	if m.editFunc != nil {
		return m.editFunc(ctx, source, prompt, ratio)
	}
	return "data:image/png;base64,ZWRpdGVk", nil
}

func testREPL(t *testing.T, input string, client session.Client) (*REPL, *bytes.Buffer, *bytes.Buffer, *session.Controller) {
	t.Helper()

	store := history.NewStore(&memStorage{})
	store.Load()
	ctrl := session.NewController(client, store)

	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	r := New(&Config{
		In:         strings.NewReader(input),
		Out:        out,
		Err:        errBuf,
		Controller: ctrl,
		Displayer:  display.New(out),
		Saver:      image.NewSaver(),
	})
	return r, out, errBuf, ctrl
}

func TestREPL_Quit(t *testing.T) {
	r, out, _, _ := testREPL(t, "quit\n", &mockClient{})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("output = %q, missing goodbye", out.String())
	}
}

func TestREPL_UnknownCommand(t *testing.T) {
	r, _, errBuf, _ := testREPL(t, "frobnicate\nquit\n", &mockClient{})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(errBuf.String(), "unknown command: frobnicate") {
		t.Errorf("err output = %q", errBuf.String())
	}
}

func TestREPL_CreateAndHistory(t *testing.T) {
	input := "create \"a red bicycle\"\nhistory\nquit\n"
	r, out, errBuf, ctrl := testREPL(t, input, &mockClient{})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if errBuf.Len() != 0 {
		t.Errorf("err output = %q, want empty", errBuf.String())
	}

	if ctrl.History().Len() != 1 {
		t.Fatalf("history Len() = %d, want 1", ctrl.History().Len())
	}
	entry := ctrl.History().Entries()[0]
	if entry.Prompt != "a red bicycle" {
		t.Errorf("prompt = %q, want quoted args joined", entry.Prompt)
	}
	if entry.Kind != models.KindCreation {
		t.Errorf("kind = %v, want creation", entry.Kind)
	}
	if !strings.Contains(out.String(), `"a red bicycle"`) {
		t.Errorf("history listing missing prompt: %q", out.String())
	}
}

func TestREPL_EditRequiresSource(t *testing.T) {
	r, _, errBuf, _ := testREPL(t, "edit \"add a hat\"\nquit\n", &mockClient{})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(errBuf.String(), models.ErrNoSourceImage.Error()) {
		t.Errorf("err output = %q, want source-image validation", errBuf.String())
	}
}

func TestREPL_UploadThenEdit(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.png")
	if err := os.WriteFile(srcPath, []byte("sourcebytes"), 0644); err != nil {
		t.Fatal(err)
	}

	var gotSource string
	client := &mockClient{
		editFunc: func(_ context.Context, source, prompt string, _ models.AspectRatio) (string, error) {
			gotSource = source
			return "data:image/png;base64,ZWRpdGVk", nil
		},
	}

	input := "upload " + srcPath + "\nedit \"add a hat\"\nquit\n"
	r, out, errBuf, ctrl := testREPL(t, input, client)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if errBuf.Len() != 0 {
		t.Errorf("err output = %q", errBuf.String())
	}
	if !strings.Contains(out.String(), "Source image loaded") {
		t.Errorf("output = %q, missing upload confirmation", out.String())
	}
	if !strings.HasPrefix(gotSource, "data:image/png;base64,") {
		t.Errorf("edit source = %q, want data URI", gotSource)
	}

	entry := ctrl.History().Entries()[0]
	if entry.Kind != models.KindEdit {
		t.Errorf("kind = %v, want edit", entry.Kind)
	}
	if entry.OriginalImage != gotSource {
		t.Error("history entry does not carry the source image")
	}
}

func TestREPL_RatioAndMode(t *testing.T) {
	input := "ratio 16:9\nmode edit\nmode\nquit\n"
	r, out, _, ctrl := testREPL(t, input, &mockClient{})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ctrl.AspectRatio() != models.RatioWideLandscape {
		t.Errorf("AspectRatio() = %v, want 16:9", ctrl.AspectRatio())
	}
	if ctrl.Mode() != models.ModeEdit {
		t.Errorf("Mode() = %v, want edit", ctrl.Mode())
	}
	if !strings.Contains(out.String(), "Mode: edit") {
		t.Errorf("output = %q", out.String())
	}
}

func TestREPL_RatioInvalid(t *testing.T) {
	r, _, errBuf, ctrl := testREPL(t, "ratio 2:1\nquit\n", &mockClient{})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(errBuf.String(), "invalid aspect ratio") {
		t.Errorf("err output = %q", errBuf.String())
	}
	if ctrl.AspectRatio() != models.RatioSquare {
		t.Errorf("AspectRatio() = %v, want default unchanged", ctrl.AspectRatio())
	}
}

func TestREPL_DeleteByPrefix(t *testing.T) {
	input := "create \"first\"\nquit\n"
	r, _, _, ctrl := testREPL(t, input, &mockClient{})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	id := ctrl.History().Entries()[0].ID
	if err := r.execute(context.Background(), "delete "+id[:8]); err != nil {
		t.Fatalf("delete error = %v", err)
	}
	if ctrl.History().Len() != 0 {
		t.Errorf("history Len() = %d, want 0", ctrl.History().Len())
	}
	if _, ok := ctrl.Selected(); ok {
		t.Error("selection survived deleting the selected entry")
	}
}

func TestREPL_SaveSelected(t *testing.T) {
	dir := t.TempDir()
	origWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(origWd) })

	input := "create \"p\"\nsave out.png\nquit\n"
	r, out, errBuf, _ := testREPL(t, input, &mockClient{})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if errBuf.Len() != 0 {
		t.Errorf("err output = %q", errBuf.String())
	}
	if !strings.Contains(out.String(), "Saved: out.png") {
		t.Errorf("output = %q", out.String())
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.png"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "foobar" {
		t.Errorf("saved file = %q, want decoded payload", data)
	}
}

func TestREPL_SaveRejectsUnsafePath(t *testing.T) {
	input := "create \"p\"\nsave ../escape.png\nquit\n"
	r, _, errBuf, _ := testREPL(t, input, &mockClient{})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(errBuf.String(), "path traversal") {
		t.Errorf("err output = %q, want traversal rejection", errBuf.String())
	}
}

func TestREPL_GenerateFailureKeepsHistory(t *testing.T) {
	client := &mockClient{
		generateFunc: func(context.Context, string, models.AspectRatio) (string, error) {
			return "", errors.New("service unavailable")
		},
	}
	r, _, errBuf, ctrl := testREPL(t, "create \"p\"\nquit\n", client)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(errBuf.String(), "service unavailable") {
		t.Errorf("err output = %q", errBuf.String())
	}
	if ctrl.History().Len() != 0 {
		t.Errorf("history Len() = %d, want 0", ctrl.History().Len())
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"create a red bicycle", []string{"create", "a", "red", "bicycle"}},
		{`create "a red bicycle"`, []string{"create", "a red bicycle"}},
		{`upload 'my file.png'`, []string{"upload", "my file.png"}},
		{"", nil},
		{"   ", nil},
	}

	for _, tt := range tests {
		if got := parseCommand(tt.line); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseCommand(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

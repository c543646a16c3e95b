package source

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func setupTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.py"), "print('hi')\n")
	writeFile(t, filepath.Join(dir, "pkg", "util.py"), "def f():\n    return 1\n")
	writeFile(t, filepath.Join(dir, "pkg", "README.md"), "# docs\n")
	writeFile(t, filepath.Join(dir, "pkg", "__pycache__", "util.cpython-312.py"), "")
	writeFile(t, filepath.Join(dir, ".venv", "lib", "site.py"), "")
	writeFile(t, filepath.Join(dir, "node_modules", "x", "y.py"), "")
	return dir
}

func TestListPythonFiles_Directory(t *testing.T) {
	dir := setupTree(t)

	files, err := ListPythonFiles(dir, Options{})
	if err != nil {
		t.Fatalf("ListPythonFiles error: %v", err)
	}

	want := []string{
		filepath.Join(dir, "main.py"),
		filepath.Join(dir, "pkg", "util.py"),
	}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestListPythonFiles_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "x")

	files, err := ListPythonFiles(path, Options{})
	if err != nil {
		t.Fatalf("ListPythonFiles error: %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Errorf("got %v, want [%s]", files, path)
	}
}

func TestListPythonFiles_Missing(t *testing.T) {
	files, err := ListPythonFiles(filepath.Join(t.TempDir(), "nope"), Options{})
	if err != nil {
		t.Fatalf("ListPythonFiles error: %v", err)
	}
	if files == nil || len(files) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", files)
	}
}

func TestListPythonFiles_EmptyDirectory(t *testing.T) {
	files, err := ListPythonFiles(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("ListPythonFiles error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("got %v, want empty", files)
	}
}

func TestListPythonFiles_CustomOptions(t *testing.T) {
	dir := setupTree(t)
	writeFile(t, filepath.Join(dir, "stubs", "types.pyi"), "")

	files, err := ListPythonFiles(dir, Options{
		Suffixes: []string{".py", ".pyi"},
		Exclude:  []string{"pkg", "**/.venv", "node_modules"},
	})
	if err != nil {
		t.Fatalf("ListPythonFiles error: %v", err)
	}

	want := map[string]bool{
		filepath.Join(dir, "main.py"):            true,
		filepath.Join(dir, "stubs", "types.pyi"): true,
	}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for _, f := range files {
		if !want[f] {
			t.Errorf("unexpected file %q", f)
		}
	}
}

func TestListPythonFiles_GitTracked(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := setupTree(t)
	writeFile(t, filepath.Join(dir, "scratch.py"), "x = 1\n")

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("command %v failed: %v\n%s", args, err, out)
		}
	}
	run("git", "init")
	run("git", "add", "main.py", "pkg/util.py")
	run("git", "commit", "-m", "init")

	files, err := ListPythonFiles(dir, Options{GitTracked: true})
	if err != nil {
		t.Fatalf("ListPythonFiles error: %v", err)
	}
	want := []string{
		filepath.Join(dir, "main.py"),
		filepath.Join(dir, "pkg", "util.py"),
	}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"build/lib.py", []string{"build/*"}, true},
		{"main.py", []string{"build/*"}, false},
		{"foo_pb2.py", []string{"**/*_pb2.py"}, true},
		{"pkg/foo_pb2.py", []string{"**/*_pb2.py"}, true},
		{"__pycache__", []string{"__pycache__"}, true},
		{"main.py", []string{"*.py"}, true},
		{"main.py", nil, false},
	}
	for _, tt := range tests {
		got := MatchesAny(tt.path, tt.patterns)
		if got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	writeFile(t, path, "import os\n\nprint(os.getcwd())")

	f, status, err := Read(path, 0)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if status != StatusRegular {
		t.Errorf("status = %v, want regular", status)
	}
	if f.Text != "import os\n\nprint(os.getcwd())" {
		t.Errorf("Text = %q", f.Text)
	}
	if f.Path != path {
		t.Errorf("Path = %q, want %q", f.Path, path)
	}
}

func TestRead_Classification(t *testing.T) {
	dir := t.TempDir()

	_, status, err := Read(filepath.Join(dir, "missing.py"), 0)
	if err != nil || status != StatusMissing {
		t.Errorf("missing: status=%v err=%v", status, err)
	}

	_, status, err = Read(dir, 0)
	if err != nil || status != StatusDirectory {
		t.Errorf("directory: status=%v err=%v", status, err)
	}
}

func TestRead_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.py")
	writeFile(t, path, "0123456789")

	_, status, err := Read(path, 5)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
	if status != StatusRegular {
		t.Errorf("status = %v, want regular", status)
	}
}

func TestRead_Binary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.py")
	writeFile(t, path, "abc\x00def")

	_, _, err := Read(path, 0)
	if !errors.Is(err, ErrBinaryFile) {
		t.Errorf("err = %v, want ErrBinaryFile", err)
	}
}

func TestStatusString(t *testing.T) {
	if StatusDirectory.String() != "directory" {
		t.Errorf("String() = %q", StatusDirectory.String())
	}
	if Status(9).String() != "Status(9)" {
		t.Errorf("String() = %q", Status(9).String())
	}
}

package walker_test

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/niamster/tgrep/internal/format"
	"github.com/niamster/tgrep/internal/iowriter"
	"github.com/niamster/tgrep/internal/matcher"
	"github.com/niamster/tgrep/internal/patternset"
	"github.com/niamster/tgrep/internal/scan"
	"github.com/niamster/tgrep/internal/testsupport"
	"github.com/niamster/tgrep/internal/walker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newWalker(buf *bytes.Buffer) *walker.Walker {
	m := matcher.New(regexp.MustCompile("needle"), false)
	return walker.New(walker.Options{
		Matcher:       m,
		Strategy:      scan.Strategy{Kind: scan.Plain},
		Filters:       patternset.NewFilters(""),
		MaxGoroutines: 2,
		Logger:        discardLogger(),
		Stdout:        iowriter.NewStdoutWriter(buf),
		FormatOpts:    format.Options{Width: 80},
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkRespectsGitignore(t *testing.T) {
	a := testsupport.NewAssert(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "ignored.txt\n")
	writeFile(t, filepath.Join(root, "ignored.txt"), "needle\n")
	writeFile(t, filepath.Join(root, "kept.txt"), "needle\n")

	var out bytes.Buffer
	w := newWalker(&out)
	a.NoError(w.Run([]string{root}))

	s := out.String()
	a.True(strings.Contains(s, "kept.txt"))
	a.False(strings.Contains(s, "ignored.txt"))
}

func TestWalkAlwaysExcludesDotGit(t *testing.T) {
	a := testsupport.NewAssert(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "needle\n")
	writeFile(t, filepath.Join(root, "kept.txt"), "needle\n")

	var out bytes.Buffer
	w := newWalker(&out)
	a.NoError(w.Run([]string{root}))

	s := out.String()
	a.True(strings.Contains(s, "kept.txt"))
	a.False(strings.Contains(s, "HEAD"))
}

func TestWalkOutputOrderedAcrossFiles(t *testing.T) {
	a := testsupport.NewAssert(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"), "needle\n")
	writeFile(t, filepath.Join(root, "a.txt"), "needle\n")
	writeFile(t, filepath.Join(root, "c.txt"), "needle\n")

	var out bytes.Buffer
	w := newWalker(&out)
	a.NoError(w.Run([]string{root}))

	s := out.String()
	idxA := strings.Index(s, "a.txt")
	idxB := strings.Index(s, "b.txt")
	idxC := strings.Index(s, "c.txt")
	a.True(idxA >= 0 && idxB >= 0 && idxC >= 0)
	a.True(idxA < idxB)
	a.True(idxB < idxC)
}

// a symlink cycle must not hang the walk or crash it.
func TestWalkDetectsSymlinkCycle(t *testing.T) {
	a := testsupport.NewAssert(t)
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	a.NoError(os.MkdirAll(sub, 0o755))
	writeFile(t, filepath.Join(sub, "real.txt"), "needle\n")
	a.NoError(os.Symlink(root, filepath.Join(sub, "loop")))

	var out bytes.Buffer
	w := newWalker(&out)
	done := make(chan error, 1)
	go func() { done <- w.Run([]string{root}) }()

	select {
	case err := <-done:
		a.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("walk did not terminate: likely symlink cycle not detected")
	}
	a.True(strings.Contains(out.String(), "real.txt"))
}

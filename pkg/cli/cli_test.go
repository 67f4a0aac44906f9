package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/profmemo/pkg/adapter"
	"github.com/m-mizutani/profmemo/pkg/repository"
	"github.com/m-mizutani/profmemo/pkg/usecase/memo"
)

type result struct {
	stdout string
	stderr string
	err    *Error
}

func (r result) ok(t *testing.T) {
	t.Helper()
	if r.err != nil {
		t.Fatalf("unexpected error: %s", r.err.Message)
	}
}

func (r result) failed(t *testing.T) *Error {
	t.Helper()
	if r.err == nil {
		t.Fatalf("expected an error, got output %q", r.stdout)
	}
	return r.err
}

// runCLI runs one command against a file store in dir
func runCLI(t *testing.T, dir, stdin string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	argv := append([]string{"profmemo", args[0], "--data-dir", dir}, args[1:]...)
	err := run(context.Background(), argv, strings.NewReader(stdin), &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestSaveShowDelete(t *testing.T) {
	dir := t.TempDir()

	res := runCLI(t, dir, "", "save", "https://x.com/Alice", "likes", "cats")
	res.ok(t)
	gt.Equal(t, res.stdout, "saved memo for alice\n")

	res = runCLI(t, dir, "", "show", "https://twitter.com/alice")
	res.ok(t)
	gt.S(t, res.stdout).Contains("ID:       alice\n")
	gt.S(t, res.stdout).Contains("Name:     Alice\n")
	gt.S(t, res.stdout).Contains("URL:      https://x.com/Alice\n")
	gt.S(t, res.stdout).Contains("\nlikes cats\n")

	res = runCLI(t, dir, "", "has", "alice")
	res.ok(t)
	gt.Equal(t, res.stdout, "true\n")

	res = runCLI(t, dir, "", "delete", "alice")
	res.ok(t)
	gt.Equal(t, res.stdout, "deleted memo for alice\n")

	res = runCLI(t, dir, "", "delete", "alice")
	res.ok(t)
	gt.Equal(t, res.stdout, "no memo for alice\n")

	res = runCLI(t, dir, "", "has", "alice")
	gt.Equal(t, res.stdout, "false\n")

	res = runCLI(t, dir, "", "show", "alice")
	res.ok(t)
	gt.Equal(t, res.stdout, "no memo for alice\n")
}

func TestSaveTextSources(t *testing.T) {
	dir := t.TempDir()

	t.Run("flag", func(t *testing.T) {
		res := runCLI(t, dir, "", "save", "--text", "from flag", "bob")
		res.ok(t)
		res = runCLI(t, dir, "", "show", "bob")
		gt.S(t, res.stdout).Contains("\nfrom flag\n")
	})

	t.Run("stdin", func(t *testing.T) {
		res := runCLI(t, dir, "  from stdin\n", "save", "carol")
		res.ok(t)
		res = runCLI(t, dir, "", "show", "carol")
		gt.S(t, res.stdout).Contains("\nfrom stdin\n")
	})
}

func TestSaveRejectsInvalidReference(t *testing.T) {
	dir := t.TempDir()

	res := runCLI(t, dir, "", "save", "https://example.com/alice", "text")
	gt.Equal(t, res.failed(t).Code, 1)
	gt.S(t, res.err.Message).Contains("not a profile URL or handle")

	res = runCLI(t, dir, "", "save")
	res.failed(t)
}

func TestSaveQuotaExceeded(t *testing.T) {
	dir := t.TempDir()

	res := runCLI(t, dir, "", "save", "--quota", "50", "alice", strings.Repeat("x", 100))
	gt.S(t, res.failed(t).Message).Contains("changes could not be saved")

	res = runCLI(t, dir, "", "has", "alice")
	gt.Equal(t, res.stdout, "false\n")
}

func TestListAndSearch(t *testing.T) {
	dir := t.TempDir()

	runCLI(t, dir, "", "save", "https://x.com/alice", "likes cats").ok(t)
	runCLI(t, dir, "", "save", "https://x.com/bob", "runs marathons").ok(t)

	t.Run("list text", func(t *testing.T) {
		res := runCLI(t, dir, "", "list")
		res.ok(t)
		lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
		gt.A(t, lines).Length(2)
		gt.S(t, res.stdout).Contains("alice\talice\t")
		gt.S(t, res.stdout).Contains("\tlikes cats\n")
	})

	t.Run("list limit", func(t *testing.T) {
		res := runCLI(t, dir, "", "list", "--limit", "1")
		res.ok(t)
		gt.A(t, strings.Split(strings.TrimSpace(res.stdout), "\n")).Length(1)
	})

	t.Run("list json", func(t *testing.T) {
		res := runCLI(t, dir, "", "list", "--format", "json")
		res.ok(t)

		var memos []map[string]string
		gt.NoError(t, json.Unmarshal([]byte(res.stdout), &memos))
		gt.A(t, memos).Length(2)
	})

	t.Run("list yaml", func(t *testing.T) {
		res := runCLI(t, dir, "", "list", "--format", "yaml")
		res.ok(t)
		gt.S(t, res.stdout).Contains("sourceUrl: https://x.com/alice")
	})

	t.Run("unknown format", func(t *testing.T) {
		res := runCLI(t, dir, "", "list", "--format", "xml")
		res.failed(t)
	})

	t.Run("search", func(t *testing.T) {
		res := runCLI(t, dir, "", "search", "MARATHON")
		res.ok(t)
		gt.S(t, res.stdout).Contains("bob\tbob\t")
		gt.S(t, res.stdout).NotContains("alice")
	})

	t.Run("search without match", func(t *testing.T) {
		res := runCLI(t, dir, "", "search", "zebra")
		res.ok(t)
		gt.Equal(t, res.stdout, "no memos match \"zebra\"\n")
	})
}

func TestExportImport(t *testing.T) {
	src := t.TempDir()
	runCLI(t, src, "", "save", "https://x.com/alice", "likes cats").ok(t)
	runCLI(t, src, "", "save", "https://x.com/bob", "likes dogs").ok(t)

	exportFile := filepath.Join(t.TempDir(), "memos.json")
	res := runCLI(t, src, "", "export", "--output", exportFile)
	res.ok(t)
	gt.Equal(t, res.stdout, "exported 2 memos to "+exportFile+"\n")

	stdoutExport := runCLI(t, src, "", "export")
	stdoutExport.ok(t)
	data, err := os.ReadFile(exportFile)
	gt.NoError(t, err)
	gt.Equal(t, string(data), stdoutExport.stdout)

	dst := t.TempDir()
	runCLI(t, dst, "", "save", "carol", "will be replaced").ok(t)

	res = runCLI(t, dst, "", "import", "--input", exportFile)
	res.ok(t)
	gt.Equal(t, res.stdout, "imported 2 memos\n")

	gt.Equal(t, runCLI(t, dst, "", "export").stdout, stdoutExport.stdout)
	gt.Equal(t, runCLI(t, dst, "", "has", "carol").stdout, "false\n")
}

func TestImportFromStdin(t *testing.T) {
	dir := t.TempDir()

	res := runCLI(t, dir, `{"bob": {"id": "bob", "text": "x", "timestamp": "24/06/28"}}`, "import")
	res.ok(t)
	gt.Equal(t, res.stdout, "imported 1 memos\n")

	res = runCLI(t, dir, "", "show", "bob")
	gt.S(t, res.stdout).Contains("Created:  2024-06-28T00:00:00.000Z\n")
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	runCLI(t, dir, "", "save", "alice", "kept").ok(t)

	res := runCLI(t, dir, `{"bad json`, "import")
	gt.S(t, res.failed(t).Message).Contains("not a memo export")

	gt.Equal(t, runCLI(t, dir, "", "has", "alice").stdout, "true\n")
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	runCLI(t, dir, "", "save", "alice", "a").ok(t)
	runCLI(t, dir, "", "save", "bob", "b").ok(t)

	res := runCLI(t, dir, "", "clear")
	gt.S(t, res.failed(t).Message).Contains("--force")

	res = runCLI(t, dir, "", "clear", "--force")
	res.ok(t)
	gt.Equal(t, res.stdout, "deleted 2 memos\n")

	gt.Equal(t, runCLI(t, dir, "", "export").stdout, "{}\n")
}

func TestCorruptStoreLoadsEmpty(t *testing.T) {
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, repository.DefaultKey+".json"), []byte(`{"bad json`), 0o600))

	res := runCLI(t, dir, "", "list", "--log-level", "warn")
	res.ok(t)
	gt.Equal(t, res.stdout, "")
	gt.S(t, res.stderr).Contains("discarding unreadable memo store")
}

func TestUnreadableStoreAbortsCommand(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, repository.DefaultKey+".json")
	// a directory where the store file belongs makes every read fail
	gt.NoError(t, os.Mkdir(storePath, 0o700))

	res := runCLI(t, dir, "", "save", "alice", "text")
	gt.S(t, res.failed(t).Message).Contains("memo storage is unavailable")

	res = runCLI(t, dir, "", "list")
	res.failed(t)

	info, err := os.Stat(storePath)
	gt.NoError(t, err)
	gt.True(t, info.IsDir())
}

func TestUnknownStorage(t *testing.T) {
	res := runCLI(t, t.TempDir(), "", "list", "--storage", "floppy")
	gt.S(t, res.failed(t).Message).Contains("unknown storage backend")
}

func TestBackupRequiresBucket(t *testing.T) {
	t.Setenv("PROFMEMO_BACKUP_BUCKET", "")

	res := runCLI(t, t.TempDir(), "", "backup")
	res.failed(t)
}

func TestSummarize(t *testing.T) {
	gt.Equal(t, summarize("first line\nsecond line"), "first line")
	gt.Equal(t, summarize(""), "")

	long := strings.Repeat("あ", 70)
	got := summarize(long)
	gt.Equal(t, got, strings.Repeat("あ", 57)+"...")
	gt.Equal(t, summarize(strings.Repeat("a", 60)), strings.Repeat("a", 60))
}

func newTestShell(kv adapter.KVStore) (*shell, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	uc := memo.New(context.Background(), repository.New(kv))
	return &shell{uc: uc, w: buf}, buf
}

func TestShellExec(t *testing.T) {
	ctx := context.Background()
	sh, buf := newTestShell(adapter.NewMemoryKV())

	exec := func(line string) string {
		buf.Reset()
		gt.True(t, sh.exec(ctx, line))
		return buf.String()
	}

	gt.Equal(t, exec("save https://x.com/alice likes cats"), "saved\n")
	gt.Equal(t, exec("save https://example.com/alice x"), "not a profile URL or handle: https://example.com/alice\n")
	gt.Equal(t, exec("save"), "usage: save <profile-url> <text...>\n")
	gt.Equal(t, exec("count"), "1\n")
	gt.S(t, exec("show alice")).Contains("\nlikes cats\n")
	gt.Equal(t, exec("show bob"), "no memo for bob\n")
	gt.S(t, exec("list")).Contains("alice\talice\t")
	gt.S(t, exec("search CATS")).Contains("alice\talice\t")
	gt.Equal(t, exec("search zebra"), "no matches\n")
	gt.S(t, exec("help")).Contains("save <profile-url>")
	gt.Equal(t, exec("   "), "")
	gt.Equal(t, exec("bogus"), "unknown command: bogus (try 'help')\n")
	gt.Equal(t, exec("delete alice"), "deleted\n")
	gt.Equal(t, exec("delete alice"), "no memo for alice\n")
	gt.Equal(t, exec("count"), "0\n")

	gt.False(t, sh.exec(ctx, "exit"))
	gt.False(t, sh.exec(ctx, "quit"))
}

func TestShellReportsPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	sh, buf := newTestShell(adapter.NewMemoryKV(adapter.WithQuota(10)))

	gt.True(t, sh.exec(ctx, "save alice "+strings.Repeat("x", 50)))
	gt.S(t, buf.String()).Contains("saved, but changes could not be saved")

	// the memo is still visible in this session
	buf.Reset()
	gt.True(t, sh.exec(ctx, "count"))
	gt.Equal(t, buf.String(), "1\n")
}

func TestShellKeepsTextSpacing(t *testing.T) {
	ctx := context.Background()
	sh, buf := newTestShell(adapter.NewMemoryKV())

	gt.True(t, sh.exec(ctx, "  save   alice a  b\tc  "))
	gt.Equal(t, buf.String(), "saved\n")
	gt.Equal(t, sh.uc.GetMemo(ctx, "alice").Text, "a  b\tc")

	buf.Reset()
	gt.True(t, sh.exec(ctx, "search a  b"))
	gt.S(t, buf.String()).Contains("alice\talice\t")
}

func TestNextField(t *testing.T) {
	field, rest := nextField("  save  alice   two  words ")
	gt.Equal(t, field, "save")
	gt.Equal(t, rest, "alice   two  words ")

	field, rest = nextField("count")
	gt.Equal(t, field, "count")
	gt.Equal(t, rest, "")

	field, rest = nextField("   ")
	gt.Equal(t, field, "")
	gt.Equal(t, rest, "")
}

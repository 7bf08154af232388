// Package integration provides integration tests for bibhtml commands.
package integration

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

var (
	binary     string
	binaryOnce sync.Once
	binaryErr  error
)

// getBinary builds the bibhtml binary once and returns its path.
func getBinary(t *testing.T) string {
	t.Helper()
	binaryOnce.Do(func() {
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			binaryErr = os.ErrInvalid
			return
		}
		moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))

		tmpDir, err := os.MkdirTemp("", "bibhtml-test-*")
		if err != nil {
			binaryErr = err
			return
		}
		binary = filepath.Join(tmpDir, "bibhtml")

		cmd := exec.Command("go", "build", "-o", binary, "./cmd/bibhtml")
		cmd.Dir = moduleRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			binaryErr = &buildError{output: string(output), err: err}
			return
		}
	})
	if binaryErr != nil {
		t.Fatalf("failed to build bibhtml: %v", binaryErr)
	}
	return binary
}

type buildError struct {
	output string
	err    error
}

func (e *buildError) Error() string {
	return e.err.Error() + ": " + e.output
}

const testBib = `@article{Czech2017,
author = {Czech, Jacob and Faeder, James R.},
doi = {10.1093/bioinformatics/btx001},
journal = {Bioinformatics},
mendeley-tags = {MMBIOS1-TRD2},
number = {2},
pages = {100--110},
pmid = {28011111},
title = {{Spatial modeling of cell signaling}},
volume = {33},
year = {2017}
}

@inproceedings{Faeder2016,
author = {Faeder, James R.},
title = {{Rule-based modeling}},
year = {2016}
}

@article{NoYear2015,
author = {Bahar, Ivet},
title = {{Missing a year}}
}

@comment{jabref-meta: databaseType:bibtex;}
`

// setupWorkspace writes testBib into a temp directory with isolated config
// and data locations. Returns the directory and the bib path.
func setupWorkspace(t *testing.T, bib string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{"config", "data"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatal(err)
		}
	}
	bibPath := filepath.Join(dir, "library.bib")
	if err := os.WriteFile(bibPath, []byte(bib), 0644); err != nil {
		t.Fatal(err)
	}
	return dir, bibPath
}

// run executes bibhtml in dir and returns stdout, stderr and the exit code.
func run(t *testing.T, dir string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(getBinary(t), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(dir, "config"),
		"XDG_DATA_HOME="+filepath.Join(dir, "data"),
		"BIBHTML_LINK_BASE=",
		"BIBHTML_DATA_DIR=",
	)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("running bibhtml %v: %v", args, err)
	}
	return stdout.String(), stderr.String(), code
}

func TestConvert(t *testing.T) {
	dir, bibPath := setupWorkspace(t, testBib)

	stdout, stderr, code := run(t, dir, "convert", bibPath)
	if code != 0 {
		t.Fatalf("convert exit code = %d, want 0\nstderr: %s", code, stderr)
	}

	var result struct {
		Status     string `json:"status"`
		Output     string `json:"output"`
		References int    `json:"references"`
		Years      int    `json:"years"`
		Rejected   int    `json:"rejected"`
		Skipped    int    `json:"skipped"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, stdout)
	}
	if result.References != 2 || result.Years != 2 || result.Rejected != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 2 references, 2 years, 1 rejected, 1 skipped", result)
	}
	if !strings.Contains(stderr, "NoYear2015") {
		t.Errorf("stderr should warn about NoYear2015, got: %s", stderr)
	}

	data, err := os.ReadFile(filepath.Join(dir, "library.html"))
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, want := range []string{
		`<meta charset="UTF-8">`,
		`<h1 id="2017">`,
		`<h1 id="2016">`,
		`<span class="title" style="color: #2ebbbd;">Spatial modeling of cell signaling</span>`,
		`href="http://mmbios.org/research/technology-research-and-development/cell-modeling"`,
		`<span class="pmid">PMID:28011111</span>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Index(html, `id="2017"`) > strings.Index(html, `id="2016"`) {
		t.Error("years should be newest first")
	}
	if strings.Contains(html, "Missing a year") {
		t.Error("entry without a year should be left out")
	}
}

func TestConvert_OutputFlagAndLinkBase(t *testing.T) {
	dir, bibPath := setupWorkspace(t, testBib)
	out := filepath.Join(dir, "pubs.html")
	cfg := "link_base: https://example.org/\n"
	if err := os.WriteFile(filepath.Join(dir, "custom.yml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := run(t, dir, "convert", bibPath, "-o", out, "--config", filepath.Join(dir, "custom.yml"))
	if code != 0 {
		t.Fatalf("convert exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `href="https://example.org/research/`) {
		t.Errorf("output should use the configured link base:\n%s", data)
	}
}

func TestConvert_MissingConfig(t *testing.T) {
	dir, bibPath := setupWorkspace(t, testBib)
	_, _, code := run(t, dir, "convert", bibPath, "--config", filepath.Join(dir, "nope.yml"))
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestConvert_Malformed(t *testing.T) {
	bib := "@article{Broken,\nauthor = {A, B},\nyear = {2017},\n\n@article{Next,\nauthor = {C, D},\nyear = {2016}\n}\n"
	dir, bibPath := setupWorkspace(t, bib)

	stdout, _, code := run(t, dir, "convert", bibPath)
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if !strings.Contains(stdout, "line 1") {
		t.Errorf("error should name the line: %s", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "library.html")); !os.IsNotExist(err) {
		t.Error("no output should be written for a malformed bibliography")
	}
}

func TestParse(t *testing.T) {
	dir, bibPath := setupWorkspace(t, testBib)
	stdout, stderr, code := run(t, dir, "parse", bibPath)
	if code != 0 {
		t.Fatalf("parse exit code = %d\nstderr: %s", code, stderr)
	}
	var result struct {
		Records []struct {
			Key string `json:"key"`
		} `json:"records"`
		Rejected []json.RawMessage `json:"rejected"`
		Skipped  int               `json:"skipped"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, stdout)
	}
	if len(result.Records) != 2 || result.Records[0].Key != "Czech2017" {
		t.Errorf("records = %+v, want Czech2017 then Faeder2016", result.Records)
	}
	if len(result.Rejected) != 1 {
		t.Errorf("rejected = %d, want 1", len(result.Rejected))
	}
}

func TestCheck(t *testing.T) {
	dir, bibPath := setupWorkspace(t, testBib)
	stdout, _, code := run(t, dir, "check", bibPath)
	if code != 3 {
		t.Errorf("check exit code = %d, want 3", code)
	}
	var result struct {
		Status string `json:"status"`
		Issues []struct {
			Type string `json:"type"`
			Key  string `json:"key"`
		} `json:"issues"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, stdout)
	}
	if result.Status != "issues" || len(result.Issues) != 1 {
		t.Fatalf("result = %+v, want one issue", result)
	}
	if result.Issues[0].Type != "missing_field" || result.Issues[0].Key != "NoYear2015" {
		t.Errorf("issue = %+v, want missing_field for NoYear2015", result.Issues[0])
	}
}

func TestCheck_Clean(t *testing.T) {
	bib := "@article{Only2017,\nauthor = {Czech, Jacob},\ntitle = {{Clean}},\nyear = {2017}\n}\n"
	dir, bibPath := setupWorkspace(t, bib)
	_, stderr, code := run(t, dir, "check", bibPath)
	if code != 0 {
		t.Errorf("check exit code = %d, want 0\nstderr: %s", code, stderr)
	}
}

func TestExport(t *testing.T) {
	dir, bibPath := setupWorkspace(t, testBib)
	stdout, stderr, code := run(t, dir, "export", bibPath, "--keys", "Faeder2016")
	if code != 0 {
		t.Fatalf("export exit code = %d\nstderr: %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "@inproceedings{Faeder2016,\n") {
		t.Errorf("export = %q, want the Faeder2016 entry", stdout)
	}
	if strings.Contains(stdout, "Czech2017") {
		t.Error("export should only include the selected key")
	}

	_, _, code = run(t, dir, "export", bibPath, "--keys", "Unknown")
	if code != 1 {
		t.Errorf("unknown key exit code = %d, want 1", code)
	}
}

func TestIndexAndSearch(t *testing.T) {
	dir, bibPath := setupWorkspace(t, testBib)

	_, _, code := run(t, dir, "search", "modeling")
	if code != 2 {
		t.Errorf("search before index exit code = %d, want 2", code)
	}

	_, stderr, code := run(t, dir, "index", bibPath)
	if code != 0 {
		t.Fatalf("index exit code = %d\nstderr: %s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "bibhtml", "refs.jsonl")); err != nil {
		t.Errorf("refs.jsonl not written: %v", err)
	}

	stdout, stderr, code := run(t, dir, "search", "modeling", "--year", "2017")
	if code != 0 {
		t.Fatalf("search exit code = %d\nstderr: %s", code, stderr)
	}
	var refs []struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal([]byte(stdout), &refs); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, stdout)
	}
	if len(refs) != 1 || refs[0].Key != "Czech2017" {
		t.Errorf("search = %+v, want [Czech2017]", refs)
	}

	stdout, _, code = run(t, dir, "get", "10.1093/BIOINFORMATICS/btx001")
	if code != 0 {
		t.Fatalf("get by DOI exit code = %d", code)
	}
	var ref struct {
		Key  string `json:"key"`
		Year int    `json:"year"`
	}
	if err := json.Unmarshal([]byte(stdout), &ref); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, stdout)
	}
	if ref.Key != "Czech2017" || ref.Year != 2017 {
		t.Errorf("get = %+v, want Czech2017 (2017)", ref)
	}
}

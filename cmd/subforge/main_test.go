package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"subforge/internal/config"
	"subforge/internal/media/decoder"
	"subforge/internal/testsupport"
	"subforge/internal/workbench"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,000\none\n\n" +
	"2\n00:00:02,000 --> 00:00:03,000\ntwo\n\n" +
	"3\n00:00:03,000 --> 00:00:04,000\nthree\n\n"

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Translation.StandardPrompts = map[string]string{"default": "{text}"}
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("SUBFORGE_API_KEY", cfg.Translation.APIKey)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (env *cliTestEnv) writeSRT(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(env.baseDir, name)
	testsupport.WriteFile(t, path, sampleSRT)
	return path
}

func TestParseIndices(t *testing.T) {
	cases := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "1", want: []int{0}},
		{in: "3, 1", want: []int{2, 0}},
		{in: "2-4", want: []int{1, 2, 3}},
		{in: "1,3-4", want: []int{0, 2, 3}},
		{in: "0", wantErr: true},
		{in: "4-2", wantErr: true},
		{in: "x", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseIndices(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseIndices(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseIndices(%q): %v", tc.in, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("parseIndices(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSeconds(t *testing.T) {
	if got, err := parseSeconds("12.5"); err != nil || got != 12.5 {
		t.Fatalf("parseSeconds(12.5) = %v, %v", got, err)
	}
	if got, err := parseSeconds("00:01:02,500"); err != nil || got != 62.5 {
		t.Fatalf("parseSeconds(timestamp) = %v, %v", got, err)
	}
	if _, err := parseSeconds("soon"); err == nil {
		t.Fatal("expected error for non-time value")
	}
}

func TestDerivedOutput(t *testing.T) {
	if got := derivedOutput("/tmp/ep.srt", "bilingual"); got != "/tmp/ep.bilingual.srt" {
		t.Fatalf("derivedOutput = %q", got)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowMasksAPIKey(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithAPIKey("sk-secret"))
	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "sk-secret") {
		t.Fatalf("api key leaked: %q", out)
	}
	if !strings.Contains(out, env.cfg.Paths.CacheDir) {
		t.Fatalf("cache dir missing from output: %q", out)
	}
}

func TestSegmentsCommandsEditFileInPlace(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.writeSRT(t, "rows.srt")

	out, _, err := runCLI(t, []string{"segments", "show", path}, env.configPath)
	if err != nil {
		t.Fatalf("segments show: %v", err)
	}
	for _, want := range []string{"one", "two", "three", "00:00:01,000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q: %q", want, out)
		}
	}

	if _, _, err := runCLI(t, []string{"segments", "merge", path, "1-2"}, env.configPath); err != nil {
		t.Fatalf("segments merge: %v", err)
	}
	if _, _, err := runCLI(t, []string{"segments", "retime", path, "2", "3.5", "00:00:05,000"}, env.configPath); err != nil {
		t.Fatalf("segments retime: %v", err)
	}
	if _, _, err := runCLI(t, []string{"segments", "split", path, "1"}, env.configPath); err != nil {
		t.Fatalf("segments split: %v", err)
	}
	if _, _, err := runCLI(t, []string{"segments", "delete", path, "3"}, env.configPath); err != nil {
		t.Fatalf("segments delete: %v", err)
	}

	out, _, err = runCLI(t, []string{"--json", "segments", "show", path}, env.configPath)
	if err != nil {
		t.Fatalf("segments show --json: %v", err)
	}
	var views []struct {
		Index     int     `json:"index"`
		StartSec  float64 `json:"start_sec"`
		EndSec    float64 `json:"end_sec"`
		Text      string  `json:"text"`
		StartTime string  `json:"start_time"`
	}
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode json: %v (%q)", err, out)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 rows after edits, got %d", len(views))
	}
	if views[0].StartSec != 1 || views[0].EndSec != 2 {
		t.Fatalf("split first half bounds = %v-%v, want 1-2", views[0].StartSec, views[0].EndSec)
	}
	if views[1].Index != 2 || views[1].StartTime != "00:00:02,000" {
		t.Fatalf("unexpected second row: %+v", views[1])
	}

	if _, _, err := runCLI(t, []string{"segments", "delete", path, "9"}, env.configPath); err == nil {
		t.Fatal("expected error deleting a missing row")
	}
}

func TestSegmentsConvertWritesMode(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "dual.srt")
	testsupport.WriteFile(t, path, "1\n00:00:01,000 --> 00:00:02,000\nuno\none\n\n")
	target := filepath.Join(env.baseDir, "translated.srt")

	if _, _, err := runCLI(t, []string{"segments", "convert", path, target, "--mode", "translation"}, env.configPath); err != nil {
		t.Fatalf("segments convert: %v", err)
	}
	got := testsupport.ReadFile(t, target)
	if !strings.Contains(got, "uno") || strings.Contains(got, "one") {
		t.Fatalf("unexpected translation-mode output: %q", got)
	}

	if _, _, err := runCLI(t, []string{"segments", "convert", path, target, "--mode", "klingon"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestJobsListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	if !strings.Contains(out, "No jobs recorded") {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, _, err := runCLI(t, []string{"jobs", "list", "--kind", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, _, err := runCLI(t, []string{"jobs", "show", "missing"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

type stubDecoder struct{}

func (stubDecoder) DecodeEnvelope(context.Context, string) (decoder.Envelope, error) {
	return decoder.Envelope{Duration: 6, SampleRate: decoder.SampleRate, ChunkSize: decoder.ChunkSize}, nil
}

func (stubDecoder) ExtractRange(_ context.Context, _ string, _, _ float64, dest string) error {
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

type echoTranslator struct{}

func (echoTranslator) Complete(_ context.Context, prompt string) (string, error) {
	return "«" + prompt + "»", nil
}

func (echoTranslator) ListModels(context.Context) ([]string, error) {
	return []string{"gpt-echo"}, nil
}

func TestTranslateCommandWritesBilingualFileAndRecordsJob(t *testing.T) {
	env := setupCLITestEnv(t)
	restore := SetDepsForTests(func(_ *config.Config, deps *workbench.Deps) {
		deps.Decoder = stubDecoder{}
		deps.Translator = echoTranslator{}
	})
	defer restore()

	path := env.writeSRT(t, "episode.srt")
	out, stderr, err := runCLI(t, []string{"translate", path, "--rows", "1,3"}, env.configPath)
	if err != nil {
		t.Fatalf("translate: %v (stderr %q)", err, stderr)
	}
	target := filepath.Join(env.baseDir, "episode.bilingual.srt")
	if !strings.Contains(out, target) {
		t.Fatalf("output should name %s: %q", target, out)
	}
	if !strings.Contains(stderr, "translation completed (2 rows)") {
		t.Fatalf("unexpected progress output: %q", stderr)
	}
	got := testsupport.ReadFile(t, target)
	if !strings.Contains(got, "«one»\none") || !strings.Contains(got, "«three»\nthree") {
		t.Fatalf("unexpected bilingual output: %q", got)
	}
	if strings.Contains(got, "«two»") {
		t.Fatalf("row 2 should not be translated: %q", got)
	}

	out, _, err = runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	if !strings.Contains(out, "translation") || !strings.Contains(out, "completed") {
		t.Fatalf("job history missing translation run: %q", out)
	}

	out, _, err = runCLI(t, []string{"models", "--remote"}, env.configPath)
	if err != nil {
		t.Fatalf("models --remote: %v", err)
	}
	if !strings.Contains(out, "gpt-echo") {
		t.Fatalf("unexpected remote models: %q", out)
	}
}

func TestModelsListsLocalDirectories(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithModel("tiny"), testsupport.WithModel("base"))
	out, _, err := runCLI(t, []string{"--json", "models"}, env.configPath)
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	var payload struct {
		Models []string `json:"models"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v (%q)", err, out)
	}
	if !reflect.DeepEqual(payload.Models, []string{"base", "tiny"}) {
		t.Fatalf("models = %v", payload.Models)
	}
}

func TestCheckPassesWithStubbedTools(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries(), testsupport.WithAPIKey(""))
	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v (%q)", err, out)
	}
	for _, want := range []string{"Cache directory", "FFmpeg", "[OK]", "translation disabled"} {
		if !strings.Contains(out, want) {
			t.Fatalf("check output missing %q: %q", want, out)
		}
	}
}

func TestCheckFailsWhenToolMissing(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithAPIKey(""))
	env.cfg.Media.FFmpegBinary = filepath.Join(env.baseDir, "missing-ffmpeg")
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatalf("expected check failure: %q", out)
	}
	if !strings.Contains(out, "[ERROR]") {
		t.Fatalf("missing error line: %q", out)
	}
}

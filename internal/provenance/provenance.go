// Package provenance records the run metadata needed to audit and
// reproduce a pipeline run.
package provenance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// FileName is the metadata artifact inside a run directory.
const FileName = "run_metadata.json"

// Metadata is the content of run_metadata.json.
type Metadata struct {
	RunID           string    `json:"run_id"`
	Job             string    `json:"job"`
	Timestamp       time.Time `json:"timestamp"`
	User            string    `json:"user,omitempty"`
	GoVersion       string    `json:"go_version"`
	Platform        string    `json:"platform"`
	GitCommit       string    `json:"git_commit,omitempty"`
	ConfigPath      string    `json:"config_path"`
	DatasetLocation string    `json:"dataset_location"`
	DatasetChecksum string    `json:"dataset_checksum,omitempty"`
	LLMModel        string    `json:"llm_model,omitempty"`
	Dependencies    []string  `json:"dependencies"`
}

// Input carries the run facts Collect cannot discover itself.
type Input struct {
	RunID      string
	Job        string
	ConfigPath string
	// DatasetPath is checksummed when it names a readable local file.
	DatasetPath     string
	DatasetLocation string
	LLMModel        string
}

// Seams replaced in tests.
var (
	now         = func() time.Time { return time.Now().UTC() }
	readBuild   = debug.ReadBuildInfo
	gitCommitFn = gitCommit
	lookupEnvFn = os.Getenv
)

// Collect gathers metadata for in. Missing facts are left empty.
func Collect(ctx context.Context, in Input) Metadata {
	m := Metadata{
		RunID:           in.RunID,
		Job:             in.Job,
		Timestamp:       now(),
		User:            firstNonEmpty(lookupEnvFn("USER"), lookupEnvFn("USERNAME")),
		GoVersion:       runtime.Version(),
		Platform:        runtime.GOOS + "/" + runtime.GOARCH,
		ConfigPath:      in.ConfigPath,
		DatasetLocation: in.DatasetLocation,
		LLMModel:        in.LLMModel,
		Dependencies:    []string{},
	}
	if in.DatasetPath != "" {
		if sum, err := FileChecksum(in.DatasetPath); err == nil {
			m.DatasetChecksum = sum
		}
	}
	if bi, ok := readBuild(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				m.GitCommit = shortRev(s.Value)
			}
		}
		for _, d := range bi.Deps {
			m.Dependencies = append(m.Dependencies, d.Path+"@"+d.Version)
		}
	}
	if m.GitCommit == "" {
		m.GitCommit = gitCommitFn(ctx)
	}
	return m
}

// Write stores m as dir/run_metadata.json.
func Write(dir string, m Metadata) (string, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("provenance: encode: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("provenance: write: %w", err)
	}
	return path, nil
}

// FileChecksum returns the hex SHA-256 of the file at path.
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// gitCommit asks git for the short HEAD when the working directory is a
// checkout.
func gitCommit(ctx context.Context) string {
	if _, err := os.Stat(".git"); err != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func shortRev(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

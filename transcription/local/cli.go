package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/process"
	"github.com/kbukum/hybridstt/provider"
)

// CLIEngine runs the openai-whisper command line tool once per job. It
// writes <stem>.json next to the input file and the engine reads it back.
type CLIEngine struct {
	cfg    Config
	runner *process.Runner
	log    *logger.Logger
}

// NewCLIEngine creates a CLI engine.
func NewCLIEngine(cfg Config, log *logger.Logger) *CLIEngine {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &CLIEngine{
		cfg:    cfg,
		runner: process.NewRunner("whisper-cli", 0, provider.ResilienceConfig{}),
		log:    log.WithComponent("whisper-cli"),
	}
}

func (e *CLIEngine) Name() string    { return EngineCLI }
func (e *CLIEngine) NeedsFile() bool { return true }
func (e *CLIEngine) Close() error    { return nil }

// Ping checks that the binary resolves.
func (e *CLIEngine) Ping(context.Context) error {
	if _, err := exec.LookPath(e.cfg.Binary); err != nil {
		return fmt.Errorf("%w: %s", process.ErrNotFound, e.cfg.Binary)
	}
	return nil
}

// Load only resolves the binary; the tool loads weights on every run.
func (e *CLIEngine) Load(ctx context.Context) error {
	if err := e.Ping(ctx); err != nil {
		return err
	}
	e.log.Info("whisper cli ready", logger.Fields("binary", e.cfg.Binary, "model", e.cfg.Model))
	return nil
}

func (e *CLIEngine) args(job *Job, outDir string) []string {
	args := []string{
		job.Path,
		"--model", e.cfg.Model,
		"--task", string(job.Task),
		"--output_format", "json",
		"--output_dir", outDir,
		"--verbose", "False",
	}
	if job.Language != "" {
		args = append(args, "--language", job.Language)
	}
	if job.Prompt != "" {
		args = append(args, "--initial_prompt", job.Prompt)
	}
	if e.cfg.Threads > 0 {
		args = append(args, "--threads", strconv.Itoa(e.cfg.Threads))
	}
	return args
}

// Run invokes the binary on job.Path.
func (e *CLIEngine) Run(ctx context.Context, job *Job) (*Output, error) {
	if job.Path == "" {
		return nil, fmt.Errorf("whisper cli needs a file path")
	}
	outDir := filepath.Dir(job.Path)
	stem := strings.TrimSuffix(filepath.Base(job.Path), filepath.Ext(job.Path))
	outFile := filepath.Join(outDir, stem+".json")
	defer func() { _ = os.Remove(outFile) }()

	res, err := e.runner.Execute(ctx, process.Command{Binary: e.cfg.Binary, Args: e.args(job, outDir)})
	if err != nil {
		if res != nil && len(res.Stderr) > 0 {
			e.log.WithContext(ctx).Debug("whisper cli stderr", logger.Fields("stderr", tail(res.Stderr, 512)))
		}
		return nil, err
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		return nil, fmt.Errorf("whisper cli produced no output: %w", err)
	}
	var out Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode whisper cli output: %w", err)
	}
	out.Raw = data
	return &out, nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}

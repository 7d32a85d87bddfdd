package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sony/gobreaker"

	"github.com/yeisme/soundvault/pkg/configs"
	nlog "github.com/yeisme/soundvault/pkg/log"
)

// Prober 读取音频文件的容器信息.
type Prober interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}

// ProbeResult ffprobe 的原始 JSON 输出.
type ProbeResult struct {
	Raw map[string]any
}

// Duration 返回 format.duration，兼容数字与数字字符串.
func (r *ProbeResult) Duration() (float64, bool) {
	if r == nil {
		return 0, false
	}

	format, ok := r.Raw["format"].(map[string]any)
	if !ok {
		return 0, false
	}

	switch v := format["duration"].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)

		return f, err == nil
	default:
		return 0, false
	}
}

// ParseProbeOutput 解析 ffprobe 的 JSON 输出.
func ParseProbeOutput(out []byte) (*ProbeResult, error) {
	raw := map[string]any{}
	if len(bytes.TrimSpace(out)) > 0 {
		if err := sonic.Unmarshal(out, &raw); err != nil {
			return nil, fmt.Errorf("decode ffprobe output: %w", err)
		}
	}

	return &ProbeResult{Raw: raw}, nil
}

// FFProbe 调用 ffprobe 可执行文件，连续失败后熔断.
type FFProbe struct {
	Bin     string
	Timeout time.Duration

	breaker *gobreaker.CircuitBreaker
}

// NewFFProbe 按配置创建 FFProbe.
func NewFFProbe(cfg configs.ProbeConfig) *FFProbe {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	l := nlog.Component("ffprobe")

	return &FFProbe{
		Bin:     cfg.Bin,
		Timeout: cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "ffprobe",
			Timeout: cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		}),
	}
}

// Probe 执行 `ffprobe -v quiet -print_format json -show_format <path>`.
func (p *FFProbe) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	run := func() (any, error) {
		runCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc

			runCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}

		var stdout, stderr bytes.Buffer

		cmd := exec.CommandContext(runCtx, p.bin(), "-v", "quiet", "-print_format", "json", "-show_format", path)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("run %s: %w: %s", p.bin(), err, bytes.TrimSpace(stderr.Bytes()))
		}

		return ParseProbeOutput(stdout.Bytes())
	}

	if p.breaker == nil {
		res, err := run()
		if err != nil {
			return nil, err
		}

		return res.(*ProbeResult), nil
	}

	res, err := p.breaker.Execute(run)
	if err != nil {
		return nil, err
	}

	return res.(*ProbeResult), nil
}

func (p *FFProbe) bin() string {
	if p.Bin == "" {
		return "ffprobe"
	}

	return p.Bin
}

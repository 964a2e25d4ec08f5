package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Config captures render settings shared by every invocation.
type Config struct {
	FFmpegBinary   string
	FFprobeBinary  string
	Width          int
	Height         int
	FPS            int
	TimeoutSeconds int
}

// Scene is one timed caption segment rendered onto the background video.
type Scene struct {
	Text     string
	Start    float64
	Duration float64
}

// Captions controls drawtext styling for burned-in captions.
type Captions struct {
	Placement string // top, center, bottom
	Hue       string // hex color without leading #
	Font      string
	Size      int
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps FFmpeg CLI interactions.
type Client struct {
	cfg     Config
	timeout time.Duration
	exec    Executor
}

// New constructs an FFmpeg client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.FFmpegBinary = strings.TrimSpace(cfg.FFmpegBinary)
	cfg.FFprobeBinary = strings.TrimSpace(cfg.FFprobeBinary)
	if cfg.FFmpegBinary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	if cfg.FFprobeBinary == "" {
		cfg.FFprobeBinary = "ffprobe"
	}
	if cfg.Width <= 0 {
		cfg.Width = 1080
	}
	if cfg.Height <= 0 {
		cfg.Height = 1920
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	client := &Client{
		cfg:     cfg,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// RenderScenes synthesizes a portrait background video with one drawtext
// caption per scene, writing the result to outPath.
func (c *Client) RenderScenes(ctx context.Context, scenes []Scene, outPath string) error {
	if len(scenes) == 0 {
		return errors.New("ffmpeg render: at least one scene required")
	}
	if outPath == "" {
		return errors.New("ffmpeg render: output path required")
	}

	var total float64
	for _, scene := range scenes {
		if scene.Duration <= 0 {
			return fmt.Errorf("ffmpeg render: scene %q has no duration", scene.Text)
		}
		total += scene.Duration
	}

	filters := make([]string, 0, len(scenes))
	for _, scene := range scenes {
		filters = append(filters, fmt.Sprintf(
			"drawtext=text='%s':fontcolor=white:fontsize=56:x=(w-text_w)/2:y=(h-text_h)/2:enable='between(t,%s,%s)'",
			escapeDrawText(scene.Text),
			formatSeconds(scene.Start),
			formatSeconds(scene.Start+scene.Duration),
		))
	}

	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=0x101018:s=%dx%d:d=%s", c.cfg.Width, c.cfg.Height, formatSeconds(total)),
		"-vf", strings.Join(filters, ","),
		"-r", strconv.Itoa(c.cfg.FPS),
		"-pix_fmt", "yuv420p",
		outPath,
	}
	return c.runFFmpeg(ctx, args)
}

// Mix multiplexes the video and narration audio into outPath, trimming to the
// shorter stream and normalizing to the configured frame geometry.
func (c *Client) Mix(ctx context.Context, videoPath, audioPath, outPath string, captions *Captions) error {
	if videoPath == "" || audioPath == "" || outPath == "" {
		return errors.New("ffmpeg mix: video, audio, and output paths required")
	}

	scale := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		c.cfg.Width, c.cfg.Height, c.cfg.Width, c.cfg.Height)
	filter := scale
	if captions != nil {
		filter += "," + captionFilter(*captions, c.cfg.Height)
	}

	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-vf", filter,
		"-r", strconv.Itoa(c.cfg.FPS),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-shortest",
		outPath,
	}
	return c.runFFmpeg(ctx, args)
}

// Cut extracts a segment from the input video.
func (c *Client) Cut(ctx context.Context, inPath string, start, duration float64, outPath string) error {
	if inPath == "" || outPath == "" {
		return errors.New("ffmpeg cut: input and output paths required")
	}
	if duration <= 0 {
		return errors.New("ffmpeg cut: duration must be positive")
	}
	args := []string{
		"-y",
		"-ss", formatSeconds(start),
		"-i", inPath,
		"-t", formatSeconds(duration),
		"-c", "copy",
		outPath,
	}
	return c.runFFmpeg(ctx, args)
}

// Duration probes the container duration of the supplied media file.
func (c *Client) Duration(ctx context.Context, path string) (float64, error) {
	if path == "" {
		return 0, errors.New("ffprobe duration: path required")
	}
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	var lines []string
	if err := c.run(ctx, c.cfg.FFprobeBinary, args, func(line string) {
		lines = append(lines, strings.TrimSpace(line))
	}); err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	for _, line := range lines {
		if line == "" {
			continue
		}
		value, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, fmt.Errorf("ffprobe duration: parse %q: %w", line, err)
		}
		return value, nil
	}
	return 0, errors.New("ffprobe duration: no output")
}

// HealthCheck verifies the ffmpeg binary is runnable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.run(ctx, c.cfg.FFmpegBinary, []string{"-version"}, nil); err != nil {
		return fmt.Errorf("ffmpeg health: %w", err)
	}
	return nil
}

func (c *Client) runFFmpeg(ctx context.Context, args []string) error {
	return c.run(ctx, c.cfg.FFmpegBinary, args, nil)
}

func (c *Client) run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.exec.Run(ctx, binary, args, onStdout)
}

func captionFilter(captions Captions, frameHeight int) string {
	size := captions.Size
	if size <= 0 {
		size = 48
	}
	color := strings.TrimPrefix(strings.TrimSpace(captions.Hue), "#")
	if color == "" {
		color = "ffffff"
	}
	var y string
	switch captions.Placement {
	case "top":
		y = strconv.Itoa(frameHeight / 10)
	case "center":
		y = "(h-text_h)/2"
	default:
		y = fmt.Sprintf("h-text_h-%d", frameHeight/10)
	}
	filter := fmt.Sprintf("drawtext=textfile=captions.txt:fontcolor=0x%s:fontsize=%d:x=(w-text_w)/2:y=%s", color, size, y)
	if font := strings.TrimSpace(captions.Font); font != "" {
		filter += ":font='" + escapeDrawText(font) + "'"
	}
	return filter
}

func escapeDrawText(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return replacer.Replace(text)
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", binary, err)
	}

	var wg sync.WaitGroup
	var stderrTail strings.Builder
	consume := func(reader io.Reader, emit func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if emit != nil {
				emit(scanner.Text())
			}
		}
	}
	wg.Add(2)
	go consume(stdout, onStdout)
	go consume(stderr, func(line string) {
		// Keep the last stderr lines for error reporting.
		if stderrTail.Len() > 4096 {
			stderrTail.Reset()
		}
		stderrTail.WriteString(line)
		stderrTail.WriteString("\n")
	})
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		tail := strings.TrimSpace(stderrTail.String())
		if tail != "" {
			return fmt.Errorf("%s: %w: %s", binary, err, tail)
		}
		return fmt.Errorf("%s: %w", binary, err)
	}
	return nil
}

package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/reelify/clip-engine/config"
	clipErrors "github.com/reelify/clip-engine/errors"
	"github.com/reelify/clip-engine/progress"
	"github.com/reelify/clip-engine/subprocess"
	"github.com/reelify/clip-engine/video"
)

// OnProgress is called with a fractional completion estimate as a conversion
// runs; see progress.OnUpdate. May be nil.
type OnProgress = progress.OnUpdate

// FilterOptions carries the optional per-job knobs the filter graph in
// convert_vertical_optimized and convert_split accept, in the fixed
// application order required by the filter-graph invariants: denoise, then
// sharpen, then eq, then (separately) subtitles and audio-fx.
type FilterOptions struct {
	Denoise           bool
	SharpenStrength   float64 // clamped to [0.1, 1.0]; 0 means "use default 0.5"
	Brightness        float64 // clamped to [-1.0, 1.0]
	Contrast          float64 // clamped to [0.0, 2.0]
	Saturation        float64 // clamped to [0.0, 3.0]
	Gamma             float64 // clamped to [0.1, 10.0]
	SubtitlePath      string  // SRT path; burned in if non-empty and normalizable
	AudioEnhancement  bool    // applies acompressor+alimiter when true
	TargetFPS         int64   // overrides profile default 30 fps when > 0
	CustomBitrate     int64   // overrides the profile's encode bitrate when > 0
}

// Runner executes an assembled ffmpeg/ffprobe command line and reports
// whether it exited cleanly; split out from the convert_* functions so tests
// can substitute a fake runner without invoking a real binary.
type Runner interface {
	Run(ctx context.Context, args []string, onProgress OnProgress) error
}

// execRunner shells out to the system ffmpeg binary, streaming stderr
// through the progress parser and enforcing config.FfmpegTimeout as a hard
// wall-clock limit (§4.2 "Timeouts").
type execRunner struct{}

var DefaultRunner Runner = execRunner{}

func (execRunner) Run(ctx context.Context, args []string, onProgress OnProgress) error {
	ctx, cancel := context.WithTimeout(ctx, config.FfmpegTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return clipErrors.New(clipErrors.ConversionError, "failed to open ffmpeg stderr pipe", err)
	}
	var stderrBuf bytes.Buffer
	tee := &teeReader{r: stderrPipe, w: &stderrBuf}

	if err := subprocess.LogStdout(cmd); err != nil {
		return clipErrors.New(clipErrors.ConversionError, "failed to attach ffmpeg stdout logger", err)
	}

	if err := cmd.Start(); err != nil {
		return clipErrors.New(clipErrors.ConversionError, "failed to start ffmpeg", err)
	}

	done := make(chan struct{})
	go func() {
		progress.NewFFmpegProgressParser().Consume(tee, onProgress)
		close(done)
	}()

	err = cmd.Wait()
	<-done

	if ctx.Err() == context.DeadlineExceeded {
		return clipErrors.New(clipErrors.TimeoutError, "ffmpeg exceeded its wall-clock timeout", ctx.Err())
	}
	if err != nil {
		return clipErrors.Newf(clipErrors.ConversionError, err, "ffmpeg failed: %s", lastStderrLine(stderrBuf.String()))
	}
	return nil
}

func lastStderrLine(s string) string {
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "(no stderr)"
}

// CheckSuccess implements the shared success criterion for every conversion
// path: exit code zero (the caller already returned an error otherwise) and
// the output file exists and is non-empty.
func CheckSuccess(outPath string) error {
	fi, err := os.Stat(outPath)
	if err != nil {
		return clipErrors.New(clipErrors.ConversionError, "output file was not created", err)
	}
	if fi.Size() == 0 {
		return clipErrors.New(clipErrors.ConversionError, "output file is empty", nil)
	}
	return nil
}

func clampFilterOptions(o FilterOptions) FilterOptions {
	if o.SharpenStrength == 0 {
		o.SharpenStrength = 0.5
	}
	o.SharpenStrength = clampUnit(o.SharpenStrength, 0.1, 1.0)
	o.Brightness = clampUnit(o.Brightness, -1.0, 1.0)
	if o.Contrast == 0 {
		o.Contrast = 1.0
	}
	o.Contrast = clampUnit(o.Contrast, 0.0, 2.0)
	if o.Saturation == 0 {
		o.Saturation = 1.0
	}
	o.Saturation = clampUnit(o.Saturation, 0.0, 3.0)
	if o.Gamma == 0 {
		o.Gamma = 1.0
	}
	o.Gamma = clampUnit(o.Gamma, 0.1, 10.0)
	return o
}

// targetFPS resolves the fps to encode at: an explicit override, else the
// configured default.
func targetFPS(o FilterOptions) int64 {
	if o.TargetFPS > 0 {
		return o.TargetFPS
	}
	return int64(config.DefaultFPS)
}

// appendOptionalFilters appends hqdn3d/unsharp/eq to chain in the fixed
// order the filter-graph invariants require, reading from chain's last pad.
func appendOptionalFilters(g *Graph, chain string, o FilterOptions) string {
	if o.Denoise {
		next := chain + "_dn"
		g.Add("hqdn3d", "", []string{chain}, []string{next})
		chain = next
	}
	if o.SharpenStrength > 0 {
		next := chain + "_sharp"
		g.Add("unsharp", fmt.Sprintf("5:5:%s", fmtFloat(o.SharpenStrength)), []string{chain}, []string{next})
		chain = next
	}
	// A zero Contrast/Saturation/Gamma is "unset" (clampFilterOptions turns it
	// into the neutral 1.0), so only a non-zero, non-neutral value adds eq.
	if o.Brightness != 0 || (o.Contrast != 0 && o.Contrast != 1.0) ||
		(o.Saturation != 0 && o.Saturation != 1.0) || (o.Gamma != 0 && o.Gamma != 1.0) {
		next := chain + "_eq"
		args := fmt.Sprintf("brightness=%s:contrast=%s:saturation=%s:gamma=%s",
			fmtFloat(o.Brightness), fmtFloat(o.Contrast), fmtFloat(o.Saturation), fmtFloat(o.Gamma))
		g.Add("eq", args, []string{chain}, []string{next})
		chain = next
	}
	return chain
}

// buildVideoEncodeArgs returns the shared x264/yuv420p/faststart output
// arguments required by §4.2's success criterion and output container spec.
func buildVideoEncodeArgs(p video.QualityProfile, fps int64) []string {
	gop := 2 * fps
	return []string{
		"-c:v", "libx264",
		"-profile:v", "high",
		"-level", "4.2",
		"-preset", p.Preset,
		"-crf", fmt.Sprintf("%d", p.CRF),
		"-maxrate", fmt.Sprintf("%d", p.MaxBitrate),
		"-bufsize", fmt.Sprintf("%d", p.BufSize),
		"-g", fmt.Sprintf("%d", gop),
		"-keyint_min", fmt.Sprintf("%d", fps),
		"-pix_fmt", "yuv420p",
		"-color_primaries", "bt709",
		"-color_trc", "bt709",
		"-colorspace", "bt709",
		"-r", fmt.Sprintf("%d", fps),
		"-movflags", "+faststart",
	}
}

func audioEncodeArgs(bitrate int64) []string {
	return []string{
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%d", bitrate),
		"-ar", "48000",
		"-ac", "2",
	}
}

// ConvertVerticalSimple implements §4.2 convert_vertical_simple: scale-to-fit
// then pad to the profile's WxH with black borders, no filter graph. This is
// also the last rung of the fallback ladder (§4.2 "Fallback ladder").
func ConvertVerticalSimple(ctx context.Context, in, out, quality string, onProgress OnProgress) error {
	profile, err := video.GetProfile(quality)
	if err != nil {
		return clipErrors.New(clipErrors.InvalidInput, "unknown quality profile", err)
	}
	w, h := evenDimension(profile.Width), evenDimension(profile.Height)
	fps := int64(config.DefaultFPS)

	scalePad := fmt.Sprintf(
		"scale=%s:force_original_aspect_ratio=decrease:flags=lanczos,pad=%s:(ow-iw)/2:(oh-ih)/2:black",
		fmtDims(w, h), fmtDims(w, h),
	)

	args := []string{"-y", "-i", in, "-vf", scalePad}
	args = append(args, buildVideoEncodeArgs(profile, fps)...)
	args = append(args, audioEncodeArgs(profile.AudioBitrate)...)
	args = append(args, out)

	if err := DefaultRunner.Run(ctx, args, onProgress); err != nil {
		return err
	}
	return CheckSuccess(out)
}

// ConvertVerticalOptimized implements §4.2 convert_vertical_optimized's full
// blurred-background-plus-foreground filter graph.
func ConvertVerticalOptimized(ctx context.Context, in, out, quality string, opts FilterOptions, onProgress OnProgress) error {
	profile, err := video.GetProfile(quality)
	if err != nil {
		return clipErrors.New(clipErrors.InvalidInput, "unknown quality profile", err)
	}
	opts = clampFilterOptions(opts)
	profile = profile.WithCustomBitrate(opts.CustomBitrate)
	w, h := evenDimension(profile.Width), evenDimension(profile.Height)
	fps := targetFPS(opts)

	g := &Graph{}
	g.Add("split", "2", []string{"0:v"}, []string{"bg_src", "fg_src"})

	// Background: upscale 1.5x, crop to target, blur.
	g.Add("scale", "iw*1.5:ih*1.5:flags=lanczos", []string{"bg_src"}, []string{"bg_scaled"})
	g.Add("crop", fmt.Sprintf("%d:%d", w, h), []string{"bg_scaled"}, []string{"bg_cropped"})
	g.Add("gblur", "sigma=15", []string{"bg_cropped"}, []string{"bg"})

	// Foreground: scale to fit, pad, then optional denoise/sharpen/eq in order.
	g.Add("scale", fmt.Sprintf("%s:force_original_aspect_ratio=decrease:flags=lanczos", fmtDims(w, h)), []string{"fg_src"}, []string{"fg_scaled"})
	g.Add("pad", fmt.Sprintf("%s:(ow-iw)/2:(oh-ih)/2:black@0.0", fmtDims(w, h)), []string{"fg_scaled"}, []string{"fg_padded"})
	fgOut := appendOptionalFilters(g, "fg_padded", opts)

	videoOut := "video_out"
	g.Add("overlay", "0:0", []string{"bg", fgOut}, []string{videoOut})

	if sub, ok := subtitlesFilterArg(opts.SubtitlePath); ok {
		subOut := videoOut + "_sub"
		g.Add(sub, "", []string{videoOut}, []string{subOut})
		videoOut = subOut
	}

	args := []string{"-y", "-i", in, "-filter_complex", g.Serialize(), "-map", "[" + videoOut + "]"}

	if opts.AudioEnhancement {
		audioArgs := []string{"-filter:a", "acompressor,alimiter"}
		args = append(args, audioArgs...)
	}
	args = append(args, "-map", "0:a?")
	args = append(args, buildVideoEncodeArgs(profile, fps)...)
	args = append(args, audioEncodeArgs(profile.AudioBitrate)...)
	args = append(args, out)

	if err := DefaultRunner.Run(ctx, args, onProgress); err != nil {
		return err
	}
	return CheckSuccess(out)
}

// ConvertSplit implements §4.2 convert_split: crops left/right halves, scales
// each to WxH/2, vertically stacks. Optional filters apply before the crop.
func ConvertSplit(ctx context.Context, in, out, quality string, opts FilterOptions, onProgress OnProgress) error {
	profile, err := video.GetProfile(quality)
	if err != nil {
		return clipErrors.New(clipErrors.InvalidInput, "unknown quality profile", err)
	}
	opts = clampFilterOptions(opts)
	profile = profile.WithCustomBitrate(opts.CustomBitrate)
	w, h := evenDimension(profile.Width), evenDimension(profile.Height)
	halfH := evenDimension(h / 2)
	fps := targetFPS(opts)

	g := &Graph{}
	pre := appendOptionalFilters(g, "0:v", opts)
	g.Add("split", "2", []string{pre}, []string{"left_src", "right_src"})

	g.Add("crop", "iw/2:ih:0:0", []string{"left_src"}, []string{"left_cropped"})
	g.Add("scale", fmt.Sprintf("%s:flags=lanczos", fmtDims(w, halfH)), []string{"left_cropped"}, []string{"left"})

	g.Add("crop", "iw/2:ih:iw/2:0", []string{"right_src"}, []string{"right_cropped"})
	g.Add("scale", fmt.Sprintf("%s:flags=lanczos", fmtDims(w, halfH)), []string{"right_cropped"}, []string{"right"})

	videoOut := "video_out"
	g.Add("vstack", "2", []string{"left", "right"}, []string{videoOut})

	args := []string{"-y", "-i", in, "-filter_complex", g.Serialize(), "-map", "[" + videoOut + "]", "-map", "0:a?"}
	args = append(args, buildVideoEncodeArgs(profile, fps)...)
	args = append(args, audioEncodeArgs(profile.AudioBitrate)...)
	args = append(args, out)

	if err := DefaultRunner.Run(ctx, args, onProgress); err != nil {
		return err
	}
	return CheckSuccess(out)
}

// FallbackLadder implements §4.2's shared fallback sequence: optimized with
// opts, then optimized with subtitles stripped, then the simple path.
func FallbackLadder(ctx context.Context, in, out, quality string, opts FilterOptions, onProgress OnProgress) error {
	err := ConvertVerticalOptimized(ctx, in, out, quality, opts, onProgress)
	if err == nil {
		return nil
	}

	strippedOpts := opts
	strippedOpts.SubtitlePath = ""
	if strippedOpts != opts {
		err2 := ConvertVerticalOptimized(ctx, in, out, quality, strippedOpts, onProgress)
		if err2 == nil {
			return nil
		}
	}

	return ConvertVerticalSimple(ctx, in, out, quality, onProgress)
}

// teeReader is a minimal io.Reader that additionally copies every byte read
// to w, used so the progress parser and the stderr-for-error-messages buffer
// can both consume the same pipe without racing each other for bytes.
type teeReader struct {
	r interface {
		Read(p []byte) (int, error)
	}
	w interface {
		Write(p []byte) (int, error)
	}
}

func (t *teeReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n > 0 {
		t.w.Write(p[:n])
	}
	return n, err
}

package assembler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const softwareEncoder = "libx264"

// Assemble writes the concat list and runs ffmpeg inside the run directory.
// Filter arguments use relative paths there, which avoids ffmpeg's filter
// quoting rules for absolute paths. A failing hardware encoder is retried
// with libx264.
func (a *implAssembler) Assemble(ctx context.Context, job Job) (string, error) {
	if len(job.Images) == 0 {
		return "", fmt.Errorf("no images to assemble")
	}
	listRel := filepath.Join(filepath.Dir(job.Images[0]), "images.txt")
	if err := writeConcatList(filepath.Join(job.RunDir, listRel), job); err != nil {
		return "", err
	}

	absAudio, err := filepath.Abs(job.AudioPath)
	if err != nil {
		return "", fmt.Errorf("resolve audio path: %w", err)
	}

	tmpOutput := job.OutputFile + ".part.mp4"
	defer os.Remove(filepath.Join(job.RunDir, tmpOutput))

	a.logger.Info(ctx, "Assembling video with %s: %d stills", a.ffmpeg.Encoder, len(job.Images))

	args := a.args(listRel, absAudio, job.CaptionsFile, tmpOutput, false)
	if _, err := a.executor.ExecuteInDir(ctx, job.RunDir, a.ffmpeg.Binary, args...); err != nil {
		if a.ffmpeg.Encoder == softwareEncoder || ctx.Err() != nil {
			return "", fmt.Errorf("ffmpeg assemble: %w", err)
		}
		a.logger.Warn(ctx, "Encoder %s failed, trying software encoder...", a.ffmpeg.Encoder)
		args = a.args(listRel, absAudio, job.CaptionsFile, tmpOutput, true)
		if _, err := a.executor.ExecuteInDir(ctx, job.RunDir, a.ffmpeg.Binary, args...); err != nil {
			return "", fmt.Errorf("both hardware and software encoders failed: %w", err)
		}
	}

	outputPath := filepath.Join(job.RunDir, job.OutputFile)
	if err := os.Rename(filepath.Join(job.RunDir, tmpOutput), outputPath); err != nil {
		return "", fmt.Errorf("move output to final location: %w", err)
	}

	a.logger.Info(ctx, "Video assembled: %s", outputPath)
	return outputPath, nil
}

// args builds the ffmpeg command line. The primary pass targets the configured
// bitrate; the software fallback uses constant quality.
func (a *implAssembler) args(list, audio, captions, output string, fallback bool) []string {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,subtitles=%s",
		a.width, a.height, a.width, a.height, captions,
	)

	args := []string{
		"-y",
		"-f", "concat", "-safe", "0", "-i", list,
		"-i", audio,
		"-vf", vf,
		"-r", strconv.Itoa(a.ffmpeg.FPS),
	}
	switch {
	case fallback:
		args = append(args, "-c:v", softwareEncoder, "-preset", a.ffmpeg.Preset, "-crf", "23")
	case a.ffmpeg.Encoder == softwareEncoder:
		args = append(args, "-c:v", softwareEncoder, "-preset", a.ffmpeg.Preset, "-b:v", a.ffmpeg.VideoBitrate)
	default:
		args = append(args, "-c:v", a.ffmpeg.Encoder, "-b:v", a.ffmpeg.VideoBitrate)
	}
	return append(args,
		"-pix_fmt", "yuv420p",
		"-c:a", a.ffmpeg.AudioCodec, "-b:a", a.ffmpeg.AudioBitrate,
		"-shortest",
		output,
	)
}

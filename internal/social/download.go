package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Video is a downloaded clip and its metadata.
type Video struct {
	Title       string
	Description string
	Uploader    string
	// Path is the local file; the caller removes it when done.
	Path string
}

// Downloader fetches the video behind a link.
type Downloader interface {
	Download(ctx context.Context, url string) (*Video, error)
}

// RunFunc runs a command and returns its stdout.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// YTDLP downloads with the yt-dlp command line tool.
type YTDLP struct {
	Bin     string
	WorkDir string
	Run     RunFunc
}

// ytdlpInfo is the subset of yt-dlp's --dump-single-json output we read.
type ytdlpInfo struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	Uploader           string `json:"uploader"`
	Filename           string `json:"_filename"`
	RequestedDownloads []struct {
		Filepath string `json:"filepath"`
	} `json:"requested_downloads"`
}

// Download implements Downloader.
func (y *YTDLP) Download(ctx context.Context, url string) (*Video, error) {
	if err := os.MkdirAll(y.WorkDir, 0700); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	bin := y.Bin
	if bin == "" {
		bin = "yt-dlp"
	}
	run := y.Run
	if run == nil {
		run = execRun
	}

	out, err := run(ctx, bin,
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		"--no-simulate",
		"--dump-single-json",
		"-f", "best",
		"-o", filepath.Join(y.WorkDir, "%(id)s.%(ext)s"),
		url,
	)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	var info ytdlpInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}

	path := info.Filename
	if len(info.RequestedDownloads) > 0 && info.RequestedDownloads[0].Filepath != "" {
		path = info.RequestedDownloads[0].Filepath
	}
	if path == "" {
		return nil, fmt.Errorf("yt-dlp reported no downloaded file")
	}

	return &Video{
		Title:       info.Title,
		Description: info.Description,
		Uploader:    info.Uploader,
		Path:        path,
	}, nil
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

package social

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/llm"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://www.tiktok.com/@user/video/123", TikTok},
		{"https://www.instagram.com/reel/abc/", Instagram},
		{"https://www.youtube.com/watch?v=xyz", YouTube},
		{"https://youtu.be/xyz", YouTube},
		{"https://www.bbc.co.uk/sport/1", Article},
		{"https://example.com/blog/launch", Article},
		{"https://example.com/2025/02/story.html", Article},
	}

	for _, tt := range tests {
		got, err := Detect(tt.url)
		if err != nil {
			t.Errorf("Detect(%q) error = %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDetect_Errors(t *testing.T) {
	if _, err := Detect("https://example.com/pricing"); !errors.Is(err, errors.ErrUnsupportedPlatform) {
		t.Errorf("Detect(pricing) error = %v, want UNSUPPORTED_PLATFORM", err)
	}
	for _, bad := range []string{"", "not a url", "ftp://example.com/a.html", "/relative/post/"} {
		if _, err := Detect(bad); !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("Detect(%q) error = %v, want INVALID_REQUEST", bad, err)
		}
	}
}

func TestTranscriptName(t *testing.T) {
	got := TranscriptName("https://www.tiktok.com/@user/video/1234567890123456789", TikTok)
	if !strings.HasPrefix(got, "tiktok_https___www_tiktok_com__user") || !strings.HasSuffix(got, ".txt") {
		t.Errorf("TranscriptName() = %q", got)
	}
	if len(got) != len("tiktok_")+50+len(".txt") {
		t.Errorf("TranscriptName() length = %d", len(got))
	}
}

func TestYTDLP_Download(t *testing.T) {
	workDir := t.TempDir()
	var gotArgs []string
	y := &YTDLP{
		Bin:     "yt-dlp-test",
		WorkDir: workDir,
		Run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			gotArgs = append([]string{name}, args...)
			return []byte(`{"title":"Clip","description":"desc","uploader":"me",
				"_filename":"/tmp/old.mp4","requested_downloads":[{"filepath":"/tmp/abc.mp4"}]}`), nil
		},
	}

	v, err := y.Download(context.Background(), "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if v.Title != "Clip" || v.Uploader != "me" || v.Path != "/tmp/abc.mp4" {
		t.Errorf("Download() = %+v", v)
	}
	if gotArgs[0] != "yt-dlp-test" || gotArgs[len(gotArgs)-1] != "https://youtu.be/abc" {
		t.Errorf("args = %v", gotArgs)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "--dump-single-json") || !strings.Contains(joined, filepath.Join(workDir, "%(id)s.%(ext)s")) {
		t.Errorf("args = %v", gotArgs)
	}
}

func TestYTDLP_Errors(t *testing.T) {
	y := &YTDLP{WorkDir: t.TempDir(), Run: func(context.Context, string, ...string) ([]byte, error) {
		return nil, fmt.Errorf("exit status 1")
	}}
	if _, err := y.Download(context.Background(), "https://youtu.be/x"); err == nil {
		t.Error("Download() expected error on command failure")
	}

	y.Run = func(context.Context, string, ...string) ([]byte, error) { return []byte(`{"title":"x"}`), nil }
	if _, err := y.Download(context.Background(), "https://youtu.be/x"); err == nil {
		t.Error("Download() expected error without a file path")
	}
}

type stubDownloader struct {
	video *Video
	err   error
}

func (s stubDownloader) Download(context.Context, string) (*Video, error) { return s.video, s.err }

type stubTranscriber struct {
	text string
	err  error
}

func (s stubTranscriber) Transcribe(context.Context, string) (string, error) { return s.text, s.err }

type stubModel struct {
	reply  string
	err    error
	prompt *llm.Prompt
}

func (s stubModel) Complete(_ context.Context, p llm.Prompt) (string, error) {
	if s.prompt != nil {
		*s.prompt = p
	}
	return s.reply, s.err
}

type stubArticles struct{ post string }

func (s stubArticles) Tweet(context.Context, string) (string, error) { return s.post, nil }

func newVideoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("video"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestProcessor_Video(t *testing.T) {
	videoPath := newVideoFile(t)
	transcripts := t.TempDir()
	var prompt llm.Prompt

	p := NewProcessor(Options{
		Downloader:     stubDownloader{video: &Video{Title: "Go tips", Uploader: "gopher", Description: "tips", Path: videoPath}},
		Transcriber:    stubTranscriber{text: "use small interfaces"},
		Model:          stubModel{reply: "Small interfaces really do make Go code nicer’", prompt: &prompt},
		TranscriptsDir: transcripts,
		Log:            zerolog.Nop(),
	})

	url := "https://www.youtube.com/watch?v=abc"
	res, err := p.Process(context.Background(), url)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if res.Platform != YouTube {
		t.Errorf("Platform = %q, want youtube", res.Platform)
	}
	if res.Post != "Small interfaces really do make Go code nicer'" {
		t.Errorf("Post = %q", res.Post)
	}
	if _, err := os.Stat(videoPath); !os.IsNotExist(err) {
		t.Error("downloaded video should be removed")
	}
	if prompt.MaxTokens != 100 || prompt.Temperature != 0.7 {
		t.Errorf("prompt = %+v, want 100 tokens at 0.7", prompt)
	}
	if !strings.Contains(prompt.User, "Title: Go tips") || !strings.Contains(prompt.User, "use small interfaces") {
		t.Errorf("user prompt = %q", prompt.User)
	}

	data, err := os.ReadFile(res.TranscriptPath)
	if err != nil {
		t.Fatalf("ReadFile(transcript) error = %v", err)
	}
	if !strings.HasPrefix(string(data), "URL: "+url+"\n") || !strings.Contains(string(data), "use small interfaces") {
		t.Errorf("transcript = %q", data)
	}
	if filepath.Dir(res.TranscriptPath) != transcripts {
		t.Errorf("TranscriptPath = %q, want under %q", res.TranscriptPath, transcripts)
	}
}

func TestProcessor_TranscriptionFailureContinues(t *testing.T) {
	var prompt llm.Prompt
	p := NewProcessor(Options{
		Downloader:     stubDownloader{video: &Video{Description: "caption here", Path: newVideoFile(t)}},
		Transcriber:    stubTranscriber{err: fmt.Errorf("bad audio")},
		Model:          stubModel{reply: "Nice reel.", prompt: &prompt},
		TranscriptsDir: t.TempDir(),
		Log:            zerolog.Nop(),
	})

	res, err := p.Process(context.Background(), "https://www.instagram.com/reel/abc/")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Post != "Nice reel." {
		t.Errorf("Post = %q", res.Post)
	}
	if !strings.Contains(prompt.User, "Caption: caption here") || !strings.Contains(prompt.User, TranscriptionFailed) {
		t.Errorf("user prompt = %q", prompt.User)
	}
}

func TestProcessor_Article(t *testing.T) {
	p := NewProcessor(Options{Articles: stubArticles{post: "summary... https://blog.test/a"}, Log: zerolog.Nop()})

	res, err := p.Process(context.Background(), "https://blog.test/a")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Platform != Article || res.Post != "summary... https://blog.test/a" {
		t.Errorf("Process() = %+v", res)
	}
}

func TestProcessor_DownloadFailure(t *testing.T) {
	p := NewProcessor(Options{Downloader: stubDownloader{err: fmt.Errorf("geo blocked")}, Log: zerolog.Nop()})

	_, err := p.Process(context.Background(), "https://www.tiktok.com/@u/video/1")
	if !errors.Is(err, errors.ErrUpstreamFailed) {
		t.Errorf("Process() error = %v, want UPSTREAM_FAILED", err)
	}
}

func TestProcessor_LongPostTruncated(t *testing.T) {
	reply := strings.Repeat("a", 150) + ". " + strings.Repeat("b", 150) + "."
	p := NewProcessor(Options{
		Downloader:     stubDownloader{video: &Video{Path: newVideoFile(t)}},
		Transcriber:    stubTranscriber{text: "t"},
		Model:          stubModel{reply: reply},
		TranscriptsDir: t.TempDir(),
		Log:            zerolog.Nop(),
	})

	res, err := p.Process(context.Background(), "https://youtu.be/x")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Post != strings.Repeat("a", 150)+"." {
		t.Errorf("Post = %q", res.Post)
	}
}

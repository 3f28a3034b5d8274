package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"voxshell/internal/logging"

	"github.com/moby/sys/atomicwriter"
	"golang.org/x/mod/semver"
)

var errPanic = errors.New("update check aborted")

// Release is the feed's latest.json document
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	Notes   string `json:"notes,omitempty"`
}

// Downloader fetches a release artifact. Applying it is left to the
// platform installer on next launch.
type Downloader interface {
	Download(ctx context.Context, rel Release) error
}

// FeedChecker polls a static JSON feed for newer releases
type FeedChecker struct {
	feedURL    string
	current    string
	client     *http.Client
	downloader Downloader

	mu          sync.Mutex
	subscribers []func(Event)
	downloading string
	downloaded  string
}

// NewFeedChecker creates a checker for feedURL. current is the running
// version, e.g. "1.4.2".
func NewFeedChecker(feedURL, current string, downloader Downloader) *FeedChecker {
	return &FeedChecker{
		feedURL:    strings.TrimSuffix(feedURL, "/"),
		current:    canonicalVersion(current),
		client:     &http.Client{Timeout: 30 * time.Second},
		downloader: downloader,
	}
}

// Subscribe implements Checker
func (f *FeedChecker) Subscribe(fn func(Event)) {
	f.mu.Lock()
	f.subscribers = append(f.subscribers, fn)
	f.mu.Unlock()
}

func (f *FeedChecker) emit(ev Event) {
	f.mu.Lock()
	subs := append([]func(Event){}, f.subscribers...)
	f.mu.Unlock()

	for _, fn := range subs {
		func() {
			defer logging.Recover("update event listener")
			fn(ev)
		}()
	}
}

// Check implements Checker. A newer release starts downloading in the
// background and Check returns OutcomeDownloading.
func (f *FeedChecker) Check(ctx context.Context) (Result, error) {
	f.emit(Event{Kind: EventChecking})

	rel, err := f.fetch(ctx)
	if err != nil {
		f.emit(Event{Kind: EventError, Err: err})
		return Result{}, err
	}

	latest := canonicalVersion(rel.Version)
	if !semver.IsValid(latest) {
		err := fmt.Errorf("feed returned invalid version %q", rel.Version)
		f.emit(Event{Kind: EventError, Err: err})
		return Result{}, err
	}

	if semver.Compare(latest, f.current) <= 0 {
		f.emit(Event{Kind: EventNone, Version: rel.Version})
		return Result{Outcome: OutcomeNone}, nil
	}

	f.mu.Lock()
	if f.downloaded == latest {
		f.mu.Unlock()
		return Result{Outcome: OutcomeDownloaded, Version: rel.Version}, nil
	}
	already := f.downloading == latest
	f.downloading = latest
	f.mu.Unlock()

	if !already {
		f.emit(Event{Kind: EventAvailable, Version: rel.Version})
		go f.download(rel, latest)
	}
	return Result{Outcome: OutcomeDownloading, Version: rel.Version}, nil
}

func (f *FeedChecker) download(rel Release, version string) {
	defer logging.Recover("update download")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := f.downloader.Download(ctx, rel); err != nil {
		f.mu.Lock()
		if f.downloading == version {
			f.downloading = ""
		}
		f.mu.Unlock()
		f.emit(Event{Kind: EventError, Version: rel.Version, Err: err})
		return
	}
	f.mu.Lock()
	f.downloaded = version
	if f.downloading == version {
		f.downloading = ""
	}
	f.mu.Unlock()
	f.emit(Event{Kind: EventDownloaded, Version: rel.Version})
}

func (f *FeedChecker) fetch(ctx context.Context) (Release, error) {
	var rel Release

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL+"/latest.json", nil)
	if err != nil {
		return rel, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return rel, fmt.Errorf("fetch update feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return rel, fmt.Errorf("update feed returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rel); err != nil {
		return rel, fmt.Errorf("decode update feed: %w", err)
	}
	return rel, nil
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// HTTPDownloader saves release artifacts under dir/<version>/. A version
// directory only appears once its artifact is complete.
type HTTPDownloader struct {
	dir    string
	client *http.Client
}

// NewHTTPDownloader creates a downloader writing into dir
func NewHTTPDownloader(dir string) *HTTPDownloader {
	return &HTTPDownloader{dir: dir, client: &http.Client{}}
}

// Download implements Downloader
func (d *HTTPDownloader) Download(ctx context.Context, rel Release) error {
	u, err := url.Parse(rel.URL)
	if err != nil {
		return fmt.Errorf("parse release url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" || name == ".." {
		return fmt.Errorf("release url %q has no file name", rel.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rel.URL, nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", rel.Version, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: status %d", rel.Version, resp.StatusCode)
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return err
	}
	// staged next to the target so the commit is a rename
	ws, err := atomicwriter.NewWriteSet(d.dir)
	if err != nil {
		return err
	}
	if err := stream(ws, name, resp.Body); err != nil {
		ws.Cancel()
		return fmt.Errorf("download %s: %w", rel.Version, err)
	}

	target := filepath.Join(d.dir, rel.Version)
	if err := os.RemoveAll(target); err != nil {
		ws.Cancel()
		return err
	}
	if err := ws.Commit(target); err != nil {
		ws.Cancel()
		return err
	}
	return nil
}

func stream(ws *atomicwriter.WriteSet, name string, body io.Reader) error {
	f, err := ws.FileWriter(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Package update implements the background release check and self-install.
// Every failure mode here is non-fatal: errors land in the state snapshot
// and the rest of the program keeps running.
package update

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/Faultbox/nexus-export/internal/logger"
)

// Check/install failure sentinels.
var (
	ErrMalformedRelease = errors.New("update: malformed release metadata")
	ErrNoAsset          = errors.New("update: no matching release asset")
	ErrBadDownload      = errors.New("update: downloaded content failed sanity check")
)

const (
	checkTimeout   = 10 * time.Second
	installTimeout = 30 * time.Second
)

// State is one immutable result of a release check. Consumers poll the
// checker and only ever see a complete snapshot, never a partial update.
type State struct {
	Checked   time.Time
	Current   string
	Latest    string
	Available bool
	AssetURL  string
	Err       error
}

// Status renders the state for the CLI.
func (s *State) Status() string {
	switch {
	case s.Err != nil:
		return fmt.Sprintf("update check failed: %v", s.Err)
	case s.Available:
		return fmt.Sprintf("update available: %s (running %s)", s.Latest, s.Current)
	default:
		return fmt.Sprintf("up to date (%s)", s.Current)
	}
}

type release struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name string `json:"name"`
		URL  string `json:"browser_download_url"`
	} `json:"assets"`
}

// Checker polls a release-metadata endpoint and compares the published tag
// against the running version.
type Checker struct {
	endpoint string
	version  string
	client   *http.Client

	state    atomic.Pointer[State]
	inFlight atomic.Bool
}

// NewChecker builds a checker for the given repo's latest-release endpoint.
func NewChecker(owner, repo, version string) *Checker {
	return &Checker{
		endpoint: fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", owner, repo),
		version:  version,
		client:   &http.Client{Timeout: checkTimeout},
	}
}

// NewCheckerURL builds a checker against an explicit endpoint.
func NewCheckerURL(endpoint, version string) *Checker {
	return &Checker{
		endpoint: endpoint,
		version:  version,
		client:   &http.Client{Timeout: checkTimeout},
	}
}

// State returns the latest completed check, or nil if none has finished.
func (c *Checker) State() *State {
	return c.state.Load()
}

// Check starts a background check. If one is already in flight the call is
// a no-op and returns false.
func (c *Checker) Check() bool {
	if !c.inFlight.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer c.inFlight.Store(false)
		st := c.check()
		c.state.Store(st)
		if st.Err != nil {
			logger.Debug("release check failed", zap.Error(st.Err))
		}
	}()
	return true
}

// CheckNow runs a check synchronously and returns the resulting state.
func (c *Checker) CheckNow() *State {
	st := c.check()
	c.state.Store(st)
	return st
}

func (c *Checker) check() *State {
	st := &State{Checked: time.Now(), Current: c.version}

	resp, err := c.client.Get(c.endpoint)
	if err != nil {
		st.Err = err
		return st
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		st.Err = fmt.Errorf("%w: status %d", ErrMalformedRelease, resp.StatusCode)
		return st
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		st.Err = fmt.Errorf("%w: %v", ErrMalformedRelease, err)
		return st
	}
	if rel.TagName == "" {
		st.Err = ErrMalformedRelease
		return st
	}

	latest, err := semver.NewVersion(strings.TrimPrefix(rel.TagName, "v"))
	if err != nil {
		st.Err = fmt.Errorf("%w: tag %q", ErrMalformedRelease, rel.TagName)
		return st
	}
	current, err := semver.NewVersion(strings.TrimPrefix(c.version, "v"))
	if err != nil {
		st.Err = fmt.Errorf("running version %q: %w", c.version, err)
		return st
	}

	st.Latest = latest.String()
	st.Available = latest.GreaterThan(current)
	if st.Available {
		st.AssetURL = pickAsset(rel)
	}
	return st
}

// pickAsset returns the download URL of the asset matching the current
// platform, or the first asset as a fallback.
func pickAsset(rel release) string {
	needle := runtime.GOOS + "-" + runtime.GOARCH
	for _, a := range rel.Assets {
		if strings.Contains(a.Name, needle) {
			return a.URL
		}
	}
	if len(rel.Assets) > 0 {
		return rel.Assets[0].URL
	}
	return ""
}

// Install downloads the asset and overwrites target. The downloaded content
// is sanity-checked before anything is written over the existing file.
func Install(assetURL, target string) error {
	if assetURL == "" {
		return ErrNoAsset
	}
	client := &http.Client{Timeout: installTimeout}
	resp, err := client.Get(assetURL)
	if err != nil {
		return fmt.Errorf("downloading update: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading update: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("downloading update: %w", err)
	}
	if len(data) < 1024 {
		return fmt.Errorf("%w: %d bytes", ErrBadDownload, len(data))
	}

	// Write beside the target first so a failed write cannot leave a
	// truncated binary behind.
	tmp := target + ".new"
	if err := os.WriteFile(tmp, data, 0o755); err != nil {
		return fmt.Errorf("writing update: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("installing update: %w", err)
	}
	logger.Info("update installed", zap.String("target", target), zap.Int("bytes", len(data)))
	return nil
}

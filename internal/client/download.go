package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/edgefleet/agent/internal/logging"
)

const downloadChunkSize = 1 << 20 // 1 MiB

// ErrDownloadExhausted is raised when the backoff schedule saturates
// twice in a row (spec §4.5) and the download gives up for good.
var ErrDownloadExhausted = errors.New("download retry schedule exhausted")

var contentRangePattern = regexp.MustCompile(`^bytes ([0-9]+)-([0-9]+)/([0-9]+|\*)?$`)

// Download fetches artifactURI into artifactPath with resumable,
// byte-identical transfer (spec §4.5's algorithm). minInterval and
// maxInterval parameterize the retry backoff; both are in seconds.
func Download(c *ApiClient, artifactURI, artifactPath string, minInterval, maxInterval int) error {
	file, err := os.Create(artifactPath)
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}
	defer file.Close()

	var offset int64
	var contentLength int64 = -1
	tried := 0
	downloadID := uuid.New().String()[:8]

	for {
		rangeRequested := contentLength >= 0
		req, err := http.NewRequest(http.MethodGet, artifactURI, nil)
		if err != nil {
			return fmt.Errorf("build download request: %w", err)
		}
		if rangeRequested {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		}

		resp, err := c.DownloadHTTP.Do(req)
		if err != nil {
			logging.Op().Warn("download: transport error, backing off", "download_id", downloadID, "error", err)
			if ok := waitBackoff(&tried, minInterval, maxInterval); !ok {
				return ErrDownloadExhausted
			}
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			logging.Op().Warn("download: server error, backing off", "download_id", downloadID, "status", resp.StatusCode)
			if ok := waitBackoff(&tried, minInterval, maxInterval); !ok {
				return ErrDownloadExhausted
			}
			continue
		}

		if contentLength < 0 {
			if cl := resp.Header.Get("Content-Length"); cl != "" {
				if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
					contentLength = n
				}
			}
		}

		if rangeRequested {
			reset, fatal := reconcileRange(resp, &offset)
			if fatal != nil {
				resp.Body.Close()
				return fatal
			}
			if reset {
				offset = 0
				if _, err := file.Seek(0, io.SeekStart); err != nil {
					resp.Body.Close()
					return fmt.Errorf("rewind artifact file: %w", err)
				}
				if err := file.Truncate(0); err != nil {
					resp.Body.Close()
					return fmt.Errorf("truncate artifact file: %w", err)
				}
			}
		}

		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			resp.Body.Close()
			return fmt.Errorf("seek artifact file: %w", err)
		}

		written, err := streamChunks(file, resp.Body)
		resp.Body.Close()
		offset += written
		if err != nil {
			logging.Op().Warn("download: stream interrupted, backing off", "download_id", downloadID, "error", err)
			if ok := waitBackoff(&tried, minInterval, maxInterval); !ok {
				return ErrDownloadExhausted
			}
			continue
		}

		if contentLength >= 0 && offset >= contentLength {
			return nil
		}

		if ok := waitBackoff(&tried, minInterval, maxInterval); !ok {
			return ErrDownloadExhausted
		}
	}
}

// reconcileRange applies the Content-Range reconciliation rules from
// spec §4.5.d. It returns reset=true if the caller must discard
// everything written so far and restart from byte 0, or a non-nil
// fatal error if the server skipped bytes we never wrote.
func reconcileRange(resp *http.Response, offset *int64) (reset bool, fatal error) {
	if resp.StatusCode != http.StatusPartialContent {
		return true, nil
	}

	cr := resp.Header.Get("Content-Range")
	m := contentRangePattern.FindStringSubmatch(cr)
	if m == nil {
		return true, nil
	}

	serverOffset, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return true, nil
	}

	switch {
	case serverOffset > *offset:
		return false, fmt.Errorf("download: server resumed at byte %d, past our offset %d", serverOffset, *offset)
	case serverOffset < *offset:
		*offset = serverOffset
		return false, nil
	default:
		return false, nil
	}
}

// streamChunks copies body into file (already positioned at the
// correct offset) in downloadChunkSize pieces, flushing after each one.
func streamChunks(file *os.File, body io.Reader) (int64, error) {
	var written int64
	buf := make([]byte, downloadChunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			if err := file.Sync(); err != nil {
				return written, err
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// waitBackoff advances *tried, sleeps for the computed interval, and
// returns false once the schedule is exhausted.
func waitBackoff(tried *int, minInterval, maxInterval int) bool {
	seconds, exhausted := Backoff(*tried, minInterval, maxInterval)
	if exhausted {
		return false
	}
	*tried++
	time.Sleep(time.Duration(seconds) * time.Second)
	return true
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

var previewClient = &http.Client{Timeout: 15 * time.Second}

// ErrNoSamples is returned for previews that decode to silence of zero length.
var ErrNoSamples = errors.New("worker: preview contains no samples")

func analyzePreview(ctx context.Context, url string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("worker: build preview request: %w", err)
	}
	// #nosec G107 -- preview URLs come from the catalog API response
	resp, err := previewClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("worker: preview fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("worker: preview fetch status %d", resp.StatusCode)
	}
	return rmsEnergy(resp.Body)
}

// rmsEnergy decodes an MP3 stream and returns its RMS level scaled to [0, 1].
func rmsEnergy(r io.Reader) (float64, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return 0, fmt.Errorf("worker: preview decode failed: %w", err)
	}

	buf := make([]byte, 4096)
	var sumSquares, count float64
	for {
		n, err := decoder.Read(buf)
		for i := 0; i+1 < n; i += 2 {
			sample := float64(int16(buf[i]) | int16(buf[i+1])<<8)
			sumSquares += sample * sample
			count++
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("worker: preview read failed: %w", err)
		}
	}

	if count == 0 {
		return 0, ErrNoSamples
	}
	energy := math.Sqrt(sumSquares/count) / 32768.0
	return math.Min(math.Max(energy, 0), 1), nil
}

// AnalyzePreviewFunc allows tests to override the analyzer implementation.
var AnalyzePreviewFunc = analyzePreview

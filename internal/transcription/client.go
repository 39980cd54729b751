// Package transcription turns raw call audio into a timestamped transcript.
// Unlike the downstream analyzers there is no degraded result here: without
// a transcript nothing else is computable, so failures propagate.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lead-insights-go/internal/config"
	"lead-insights-go/internal/logger"
	"lead-insights-go/internal/types"
)

type Client struct {
	uploadURL     string
	transcribeURL string
	key           string
	http          *http.Client
	log           *logrus.Entry
}

func New(cfg config.Config, log *logger.Logger) *Client {
	return &Client{
		uploadURL:     strings.TrimRight(cfg.StorageUploadURL, "/"),
		transcribeURL: strings.TrimRight(cfg.TranscribeURL, "/"),
		key:           cfg.TranscribeKey,
		http:          &http.Client{Timeout: 60 * time.Second},
		log:           log.WithComponent("transcription"),
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

type sttRequest struct {
	AudioURL string `json:"audio_url"`
}

type sttResponse struct {
	Chunks []struct {
		SpeakerID string  `json:"speaker_id"`
		StartSec  float64 `json:"start_sec"`
		EndSec    float64 `json:"end_sec"`
		Text      string  `json:"text"`
	} `json:"chunks"`
	Error string `json:"error,omitempty"`
}

// Transcribe uploads the audio under a random filename, runs speech-to-text
// and returns both the structured transcript and its formatted text form,
// one "{start} - {end}s: {text}" line per chunk.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (types.Transcript, string, error) {
	name := strings.ReplaceAll(uuid.New().String(), "-", "") + ".wav"

	audioURL, err := c.upload(ctx, name, audio)
	if err != nil {
		return types.Transcript{}, "", fmt.Errorf("audio upload failed: %w", err)
	}
	c.log.WithField("audio_url", audioURL).Debug("audio uploaded")

	body, _ := json.Marshal(sttRequest{AudioURL: audioURL})
	var parsed sttResponse
	if err := c.doJSON(ctx, http.MethodPost, c.transcribeURL+"/transcribe", body, &parsed); err != nil {
		return types.Transcript{}, "", fmt.Errorf("transcription failed: %w", err)
	}
	if parsed.Error != "" {
		return types.Transcript{}, "", fmt.Errorf("transcription failed: %s", parsed.Error)
	}
	if len(parsed.Chunks) == 0 {
		return types.Transcript{}, "", fmt.Errorf("transcription returned no chunks")
	}

	tr := types.Transcript{Utterances: make([]types.Utterance, 0, len(parsed.Chunks))}
	lines := make([]string, 0, len(parsed.Chunks))
	for _, ch := range parsed.Chunks {
		tr.Utterances = append(tr.Utterances, types.Utterance{
			SpeakerID: ch.SpeakerID,
			StartSec:  ch.StartSec,
			EndSec:    ch.EndSec,
			Text:      ch.Text,
		})
		lines = append(lines, FormatChunk(ch.StartSec, ch.EndSec, ch.Text))
	}
	return tr, strings.Join(lines, "\n"), nil
}

// FormatChunk renders one utterance as "{start} - {end}s: {text}".
func FormatChunk(start, end float64, text string) string {
	return fmt.Sprintf("%s - %ss: %s", trimFloat(start), trimFloat(end), text)
}

func trimFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

func (c *Client) upload(ctx context.Context, name string, audio []byte) (string, error) {
	if c.uploadURL == "" {
		return "", fmt.Errorf("STORAGE_UPLOAD_URL not configured")
	}
	var out uploadResponse
	if err := c.doRaw(ctx, c.uploadURL+"/"+name, audio, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("storage returned no url")
	}
	return out.URL, nil
}

func (c *Client) doRaw(ctx context.Context, url string, payload []byte, target any) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		if c.key != "" {
			req.Header.Set("Authorization", "Bearer "+c.key)
		}
		return c.handle(req, target)
	}
	return c.retry(ctx, op)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body []byte, target any) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.key != "" {
			req.Header.Set("Authorization", "Bearer "+c.key)
		}
		return c.handle(req, target)
	}
	return c.retry(ctx, op)
}

func (c *Client) handle(req *http.Request, target any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error: status=%d body=%s", resp.StatusCode, raw)
	}
	if resp.StatusCode >= 400 {
		return backoff.Permanent(fmt.Errorf("client error: status=%d body=%s", resp.StatusCode, raw))
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return backoff.Permanent(fmt.Errorf("json decode error: %v body=%s", err, raw))
	}
	return nil
}

func (c *Client) retry(ctx context.Context, op backoff.Operation) error {
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	return backoff.Retry(op, bo)
}

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultReplicateBaseURL    = "https://api.replicate.com/v1"
	DefaultReplicateImageModel = "black-forest-labs/flux-schnell"

	replicatePollInterval = 2 * time.Second
	replicatePollMaxWait  = 5 * time.Minute
)

// ReplicateClient drives the Replicate predictions REST API; there is no Go
// SDK. Creation asks for a synchronous response via the Prefer header and
// falls back to polling when the prediction is still running.
type ReplicateClient struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

func NewReplicateClient(apiToken, baseURL string, log *zap.SugaredLogger) *ReplicateClient {
	if baseURL == "" {
		baseURL = DefaultReplicateBaseURL
	}
	if apiToken == "" {
		log.Warn("Replicate API token not provided, API calls will fail")
	}
	return &ReplicateClient{
		apiToken:   apiToken,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultCallTimeout},
		log:        log,
	}
}

func (c *ReplicateClient) Name() Name { return Replicate }

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  *string         `json:"error"`
}

func (c *ReplicateClient) GenerateImage(ctx context.Context, prompt, model string, opts GenerateOptions) ([]GeneratedImage, error) {
	if model == "" {
		model = DefaultReplicateImageModel
	}

	input := map[string]any{
		"prompt":      prompt,
		"num_outputs": max(opts.NumOutputs, 1),
	}
	if opts.Size != "" {
		if w, h, ok := parseSize(opts.Size); ok {
			input["width"] = w
			input["height"] = h
		} else {
			c.log.Warnw("Invalid size format, expected WIDTHxHEIGHT", "size", opts.Size)
		}
	}
	for k, v := range opts.Extra {
		input[k] = v
	}

	// Models may be pinned to a version ("owner/name:version"); unpinned
	// models go through the model-scoped predictions endpoint.
	payload := map[string]any{"input": input}
	endpoint := c.baseURL + "/models/" + model + "/predictions"
	if _, version, ok := strings.Cut(model, ":"); ok {
		endpoint = c.baseURL + "/predictions"
		payload["version"] = version
	}

	pred, err := c.createPrediction(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	pred, err = c.waitForPrediction(ctx, pred)
	if err != nil {
		return nil, err
	}
	return parseReplicateOutput(pred.Output)
}

func (c *ReplicateClient) createPrediction(ctx context.Context, endpoint string, payload map[string]any) (*replicatePrediction, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apiErr(Replicate, "image_generation", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apiErr(Replicate, "image_generation", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiToken)
	req.Header.Set("Prefer", "wait")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apiErr(Replicate, "image_generation", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return nil, apiErr(Replicate, "image_generation", fmt.Errorf("prediction create returned status %d", res.StatusCode))
	}
	var pred replicatePrediction
	if err := json.NewDecoder(res.Body).Decode(&pred); err != nil {
		return nil, apiErr(Replicate, "image_generation", err)
	}
	return &pred, nil
}

func (c *ReplicateClient) waitForPrediction(ctx context.Context, pred *replicatePrediction) (*replicatePrediction, error) {
	deadline := time.Now().Add(replicatePollMaxWait)
	for {
		switch pred.Status {
		case "succeeded":
			return pred, nil
		case "failed", "canceled":
			msg := pred.Status
			if pred.Error != nil {
				msg = *pred.Error
			}
			return nil, apiErr(Replicate, "image_generation", fmt.Errorf("prediction %s: %s", pred.ID, msg))
		}
		if time.Now().After(deadline) {
			return nil, apiErr(Replicate, "image_generation", fmt.Errorf("prediction %s timed out after %s", pred.ID, replicatePollMaxWait))
		}
		select {
		case <-ctx.Done():
			return nil, apiErr(Replicate, "image_generation", ctx.Err())
		case <-time.After(replicatePollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/predictions/"+pred.ID, nil)
		if err != nil {
			return nil, apiErr(Replicate, "image_generation", err)
		}
		req.Header.Set("Authorization", "Token "+c.apiToken)
		res, err := c.httpClient.Do(req)
		if err != nil {
			return nil, apiErr(Replicate, "image_generation", err)
		}
		if res.StatusCode != http.StatusOK {
			res.Body.Close()
			return nil, apiErr(Replicate, "image_generation", fmt.Errorf("prediction poll returned status %d", res.StatusCode))
		}
		var next replicatePrediction
		err = json.NewDecoder(res.Body).Decode(&next)
		res.Body.Close()
		if err != nil {
			return nil, apiErr(Replicate, "image_generation", err)
		}
		pred = &next
	}
}

func parseReplicateOutput(raw json.RawMessage) ([]GeneratedImage, error) {
	if len(raw) == 0 {
		return nil, apiErr(Replicate, "image_generation", fmt.Errorf("prediction returned no output"))
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err == nil {
		images := make([]GeneratedImage, 0, len(urls))
		for _, u := range urls {
			images = append(images, GeneratedImage{URL: u})
		}
		return images, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []GeneratedImage{{URL: single}}, nil
	}
	return nil, apiErr(Replicate, "image_generation", fmt.Errorf("unexpected output format: %s", string(raw)))
}

func parseSize(size string) (int, int, bool) {
	w, h, ok := strings.Cut(strings.ToLower(size), "x")
	if !ok {
		return 0, 0, false
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, false
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, false
	}
	return width, height, true
}

func (c *ReplicateClient) Complete(ctx context.Context, prompt, model string, opts CompletionOptions) (*Completion, error) {
	return nil, &UnsupportedError{Provider: Replicate, Operation: "completion"}
}

func (c *ReplicateClient) CompleteStream(ctx context.Context, prompt, model string, opts CompletionOptions) (Stream, error) {
	return nil, &UnsupportedError{Provider: Replicate, Operation: "completion"}
}

func (c *ReplicateClient) Embed(ctx context.Context, text, model string) ([]float32, error) {
	return nil, &UnsupportedError{Provider: Replicate, Operation: "embedding"}
}

func (c *ReplicateClient) AnalyzeImage(ctx context.Context, prompt string, src ImageSource, model string) (*ImageAnalysis, error) {
	return nil, &UnsupportedError{Provider: Replicate, Operation: "image analysis"}
}

func (c *ReplicateClient) Transcribe(ctx context.Context, audio []byte, model string, opts TranscribeOptions) (*Transcription, error) {
	return nil, &UnsupportedError{Provider: Replicate, Operation: "transcription"}
}

func (c *ReplicateClient) Synthesize(ctx context.Context, text, model string, opts SynthesizeOptions) ([]byte, error) {
	return nil, &UnsupportedError{Provider: Replicate, Operation: "speech synthesis"}
}

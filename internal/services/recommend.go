package services

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/shared"
)

//go:embed mock_recommendations.json
var mockRecommendations []byte

const (
	DefaultChatModel   = "gpt-3.5-turbo"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ChatSource generates recommendations through an OpenAI-compatible chat completions endpoint.
type ChatSource struct {
	api         *APIService
	model       string
	temperature float64
	maxTokens   int
	logger      *log.Logger
}

// NewChatSource returns a source authenticated with apiKey. Empty baseURL and model use the defaults.
func NewChatSource(apiKey, baseURL, model string, client *http.Client, logger *log.Logger) (*ChatSource, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: recommender api_key", shared.ErrMissingCredentials)
	}
	if model == "" {
		model = DefaultChatModel
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	api := NewAPIService(baseURL, client)
	api.SetHeader("Authorization", "Bearer "+apiKey)

	return &ChatSource{
		api:         api,
		model:       model,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		logger:      shared.WithLogger(logger, "source", "chat"),
	}, nil
}

// Generate asks the model for recommendations and parses its reply.
//
// Only rejected credentials and cancellation are errors. An upstream failure or a reply that is
// not a record list is logged and yields no records.
func (c *ChatSource) Generate(ctx context.Context, prefs models.Preferences) ([]models.RecommendationRecord, error) {
	prompt := BuildPrompt(prefs)
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	c.logger.Debug("requesting recommendations", "model", c.model, "bpm", prefs.TargetBPM, "mood", prefs.Mood)

	resp, err := c.api.PostJSON(ctx, "/chat/completions", req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("recommendation request failed", "error", err)
		return nil, nil
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: recommender rejected credentials", shared.ErrAuthFailed)
	case !resp.OK():
		c.logger.Error("recommender returned an error", "status", resp.StatusCode, "body", string(resp.Body))
		return nil, nil
	}

	var completion chatResponse
	if err := resp.Decode(&completion); err != nil {
		c.logger.Error("unparseable recommender response", "error", err)
		return nil, nil
	}
	if len(completion.Choices) == 0 {
		return nil, nil
	}

	records, err := ParseRecords([]byte(stripFences(completion.Choices[0].Message.Content)))
	if err != nil {
		c.logger.Error("unparseable recommendation reply", "error", err)
		return nil, nil
	}

	c.logger.Info("recommendations received", "count", len(records))
	return records, nil
}

// FileSource reads recommendations from a JSON file holding either a record array or a {"content": [...]} envelope.
//
// An empty path serves the built-in sample set.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Generate(ctx context.Context, _ models.Preferences) ([]models.RecommendationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := mockRecommendations
	if f.path != "" {
		var err error
		if data, err = os.ReadFile(f.path); err != nil {
			return nil, fmt.Errorf("failed to read recommendations file: %w", err)
		}
	}
	return ParseRecords(data)
}

// ParseRecords decodes a recommendation payload.
//
// Accepts a bare array or an envelope whose "content" is the array. A non-array content or an
// {"error": ...} envelope yields no records. Records without a title are dropped.
func ParseRecords(data []byte) ([]models.RecommendationRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err)
	}

	if data[0] == '{' {
		var envelope struct {
			Content json.RawMessage `json:"content"`
			Error   string          `json:"error"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err)
		}
		if envelope.Error != "" || len(envelope.Content) == 0 {
			return nil, nil
		}
		data = bytes.TrimSpace(envelope.Content)
	}

	if len(data) == 0 || data[0] != '[' {
		return nil, nil
	}

	var items []lenientRecord
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err)
	}

	records := make([]models.RecommendationRecord, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		records = append(records, it.record())
	}
	return records, nil
}

// lenientRecord accepts fractional numbers where the record expects integers.
type lenientRecord struct {
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	Album           string  `json:"album"`
	Notes           string  `json:"notes"`
	Tempo           float64 `json:"tempo"`
	Energy          float64 `json:"energy"`
	Genre           string  `json:"genre"`
	Mood            string  `json:"mood"`
	AllowVocals     *bool   `json:"allowVocals"`
	EnergyRange     string  `json:"energyRange"`
	GenrePreference string  `json:"genrePreference"`
	Duration        float64 `json:"duration"`
}

func (r lenientRecord) record() models.RecommendationRecord {
	return models.RecommendationRecord{
		Title:           strings.TrimSpace(r.Title),
		Artist:          strings.TrimSpace(r.Artist),
		Album:           strings.TrimSpace(r.Album),
		Notes:           r.Notes,
		Tempo:           int(r.Tempo + 0.5),
		Energy:          int(r.Energy + 0.5),
		Genre:           r.Genre,
		Mood:            r.Mood,
		AllowVocals:     r.AllowVocals,
		EnergyRange:     r.EnergyRange,
		GenrePreference: r.GenrePreference,
		Duration:        int(r.Duration + 0.5),
	}
}

// stripFences removes a surrounding markdown code fence from a model reply.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

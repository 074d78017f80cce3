/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// WordSource supplies the candidate words for a round.
//
//go:generate mockgen -package=mocks -destination=mocks/mock_words.go github.com/Seednode/partysus/games WordSource
type WordSource interface {
	Generate(ctx context.Context, count int) ([]string, error)
}

const wordPrompt = "Generate %d random single words that could be used in a word guessing game. " +
	"The words should be common nouns, not too easy and not too difficult. " +
	"Format the output as a comma-separated list."

// OllamaWords asks an Ollama server for a comma-separated list of nouns.
type OllamaWords struct {
	Host   string
	Model  string
	Client *http.Client
}

func NewOllamaWords(host, model string, timeout time.Duration) *OllamaWords {
	return &OllamaWords{
		Host:   strings.TrimSuffix(host, "/"),
		Model:  model,
		Client: &http.Client{Timeout: timeout},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func (o *OllamaWords) Generate(ctx context.Context, count int) ([]string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  o.Model,
		Prompt: fmt.Sprintf(wordPrompt, count),
		Stream: false,
	})
	if err != nil {
		return nil, upstream(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, upstream(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, upstream(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, upstream(fmt.Errorf("ollama api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, upstream(err)
	}

	words := parseWords(out.Response, count)
	if len(words) < count {
		return nil, upstream(fmt.Errorf("wanted %d words, got %d", count, len(words)))
	}

	return words, nil
}

// parseWords splits a model reply on commas, keeping at most count
// non-empty trimmed entries.
func parseWords(s string, count int) []string {
	words := make([]string, 0, count)
	for _, w := range strings.Split(s, ",") {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		words = append(words, w)
		if len(words) == count {
			break
		}
	}
	return words
}

// ListWords deals distinct words from a fixed list. It is used when no
// Ollama host is configured.
type ListWords struct {
	Words []string
	Pick  func(n int) int
}

func NewListWords() *ListWords {
	return &ListWords{Words: defaultWords, Pick: cryptoPick}
}

func (l *ListWords) Generate(ctx context.Context, count int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstream(err)
	}
	if count > len(l.Words) {
		return nil, upstream(errors.New("word list too short"))
	}

	pool := make([]string, len(l.Words))
	copy(pool, l.Words)

	// partial Fisher-Yates
	for i := 0; i < count; i++ {
		j := i + l.Pick(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:count], nil
}

func cryptoPick(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}

var defaultWords = []string{
	"anchor", "balloon", "blanket", "bridge", "candle", "canyon", "castle", "compass",
	"curtain", "desert", "diamond", "dolphin", "drum", "engine", "feather", "forest",
	"garden", "glacier", "hammer", "harbor", "helmet", "island", "jacket", "kettle",
	"ladder", "lantern", "library", "magnet", "meadow", "mirror", "museum", "needle",
	"orchard", "oyster", "paddle", "parrot", "pencil", "pillow", "planet", "pocket",
	"puzzle", "rabbit", "ribbon", "saddle", "scarf", "shovel", "siren", "spider",
	"statue", "subway", "teapot", "tunnel", "umbrella", "violin", "volcano", "wagon",
	"whistle", "window", "yacht", "zipper",
}

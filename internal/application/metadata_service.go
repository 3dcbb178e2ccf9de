package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
	"github.com/aifinder/aifinder-api/pkg/pagemeta"
)

var ErrDescriptionTooShort = errors.New("description must be at least 10 characters")

// Completer is the slice of pkg/groq the service uses.
type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// PageFetcher is the slice of pkg/pagemeta the service uses.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*pagemeta.Content, error)
}

type MetadataService struct {
	Groq   Completer
	Pages  PageFetcher
	Logger *logrus.Logger
}

func NewMetadataService(groq Completer, pages PageFetcher, logger *logrus.Logger) *MetadataService {
	return &MetadataService{Groq: groq, Pages: pages, Logger: logger}
}

const aboutSystemPrompt = `You write concise product descriptions for a directory of AI tools.
Given a tool name and a short description, expand it into 2 to 4 plain sentences.
No markdown, no bullet points, no marketing superlatives.`

const keywordsSystemPrompt = `You extract search keywords for a directory of AI tools.
Given page content, reply with a JSON array of 5 to 10 lowercase keywords.
Reply with the JSON array only, nothing else.`

// GenerateAbout expands a short description into a directory-ready blurb.
func (s *MetadataService) GenerateAbout(ctx context.Context, name, description string) (string, error) {
	description = strings.TrimSpace(description)
	if len(description) < 10 {
		return "", ErrDescriptionTooShort
	}

	user := "Tool: " + name + "\nDescription: " + description
	out, err := s.Groq.Complete(ctx, aboutSystemPrompt, user, 300)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ExtractKeywords scrapes the tool's site and asks the model for 5 to 10
// keywords. The model reply is parsed leniently: a JSON array anywhere in the
// text wins, then comma or newline separated fallback.
func (s *MetadataService) ExtractKeywords(ctx context.Context, websiteURL string) ([]string, error) {
	content, err := s.Pages.Fetch(ctx, websiteURL)
	if err != nil {
		return nil, err
	}

	out, err := s.Groq.Complete(ctx, keywordsSystemPrompt, content.Summary(), 200)
	if err != nil {
		return nil, err
	}

	keywords := parseKeywords(out)
	if len(keywords) == 0 {
		// Fall back to the page's own meta keywords.
		keywords = parseKeywords(content.MetaKeywords)
	}
	if len(keywords) > entity.MaxKeywords {
		keywords = keywords[:entity.MaxKeywords]
	}
	if len(keywords) == 0 {
		return nil, errors.New("no keywords extracted")
	}
	return keywords, nil
}

func parseKeywords(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	// JSON array anywhere in the reply.
	if start := strings.Index(raw, "["); start >= 0 {
		if end := strings.LastIndex(raw, "]"); end > start {
			var arr []string
			if err := json.Unmarshal([]byte(raw[start:end+1]), &arr); err == nil {
				return normalizeKeywords(arr)
			}
		}
	}

	// Comma or newline separated.
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	return normalizeKeywords(fields)
}

func normalizeKeywords(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.Trim(strings.TrimSpace(k), `"'`))
		k = strings.TrimPrefix(k, "- ")
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

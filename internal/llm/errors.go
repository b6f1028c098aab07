package llm

import (
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"docqa/internal/domain"
)

const quotaCode = "insufficient_quota"

// Classify maps a provider error onto the generation error taxonomy. Quota
// exhaustion is detected from the structured API error, not from matching
// message text.
func Classify(err error) error {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && isQuota(apiErr) {
		return &domain.GenerationError{Kind: domain.GenerationQuota, Err: err}
	}
	return &domain.GenerationError{Kind: domain.GenerationOther, Err: err}
}

func isQuota(apiErr *openai.APIError) bool {
	if apiErr.Type == quotaCode {
		return true
	}
	if code, ok := apiErr.Code.(string); ok && code == quotaCode {
		return true
	}
	return false
}

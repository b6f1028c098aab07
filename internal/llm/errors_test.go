package llm

import (
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func TestClassifyQuotaByType(t *testing.T) {
	apiErr := &openai.APIError{Type: "insufficient_quota", Message: "You exceeded your current quota"}
	err := Classify(apiErr)

	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.GenerationQuota, genErr.Kind)
	assert.ErrorIs(t, err, apiErr)
}

func TestClassifyQuotaByCode(t *testing.T) {
	apiErr := &openai.APIError{Type: "invalid_request_error", Code: "insufficient_quota"}
	err := Classify(apiErr)

	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.GenerationQuota, genErr.Kind)
}

func TestClassifyWrappedAPIError(t *testing.T) {
	apiErr := &openai.APIError{Type: "insufficient_quota"}
	err := Classify(fmt.Errorf("chat completion: %w", apiErr))

	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.GenerationQuota, genErr.Kind)
}

func TestClassifyOtherAPIError(t *testing.T) {
	apiErr := &openai.APIError{Type: "server_error", Code: "internal_error"}
	err := Classify(apiErr)

	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.GenerationOther, genErr.Kind)
}

func TestClassifyPlainError(t *testing.T) {
	base := errors.New("connection refused")
	err := Classify(base)

	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.GenerationOther, genErr.Kind)
	assert.ErrorIs(t, err, base)
}

func TestClassifyIdempotent(t *testing.T) {
	first := Classify(&openai.APIError{Type: "insufficient_quota"})
	second := Classify(first)
	assert.Same(t, first, second)
}

func TestClassifyIgnoresMessageText(t *testing.T) {
	err := Classify(errors.New("insufficient_quota mentioned in passing"))

	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.GenerationOther, genErr.Kind)
}

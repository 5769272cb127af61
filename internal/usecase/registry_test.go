package usecase_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/internal/domain"
	"github.com/querylens/querylens/internal/usecase"
)

func stubTool(name string) usecase.RegisteredTool {
	return usecase.RegisteredTool{
		Tool: domain.Tool{Name: name, Description: name},
		Handler: func(ctx context.Context, args json.RawMessage) (domain.CallResult, error) {
			return domain.TextResult("ok from " + name), nil
		},
	}
}

func TestRegistryListPreservesRegistrationOrder(t *testing.T) {
	r := usecase.NewRegistry(stubTool("beta"), stubTool("alpha"), stubTool("gamma"))

	names := []string{}
	for _, tool := range r.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"beta", "alpha", "gamma"}, names)
}

func TestRegistryCallUnknownToolFailsClosed(t *testing.T) {
	r := usecase.NewRegistry(stubTool("alpha"))

	_, err := r.Call(context.Background(), "made_up_tool", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, usecase.ErrToolNotFound)
	assert.Contains(t, err.Error(), "made_up_tool")
}

func TestRegistryCallDispatchesByName(t *testing.T) {
	r := usecase.NewRegistry(stubTool("alpha"), stubTool("beta"))

	result, err := r.Call(context.Background(), "beta", nil)
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "ok from beta", result.Content[0].Text)
}

func newToolUnderTest(t *testing.T, setup func(*MockQueryTranslator, *MockReportExecutor, *MockReportFormatter)) usecase.RegisteredTool {
	t.Helper()
	translator := new(MockQueryTranslator)
	executor := new(MockReportExecutor)
	formatter := new(MockReportFormatter)
	if setup != nil {
		setup(translator, executor, formatter)
	}
	uc := usecase.NewAnswerQueryUseCase(translator, executor, formatter, testLogger())
	return usecase.NewSearchConsoleQueryTool(uc)
}

func TestSearchConsoleQueryToolDescriptor(t *testing.T) {
	assert := assert.New(t)

	tool := newToolUnderTest(t, nil).Tool
	assert.Equal("search_console_query", tool.Name)
	assert.False(tool.Annotations.ReadOnly)
	assert.Equal("object", tool.InputSchema.Type)
	assert.Equal([]string{"query"}, tool.InputSchema.Required)
	assert.False(tool.InputSchema.AdditionalProperties)
	assert.Contains(tool.InputSchema.Properties, "query")
}

func TestSearchConsoleQueryToolArguments(t *testing.T) {
	tr := validTranslation()
	rep := domain.Report{Query: tr.Query}

	happyPath := func(translator *MockQueryTranslator, executor *MockReportExecutor, formatter *MockReportFormatter) {
		translator.On("Translate", mock.Anything, "top queries").Return(tr, nil).Once()
		executor.On("Execute", mock.Anything, tr.Query).Return(rep, nil).Once()
		formatter.On("Format", "top queries", tr, rep).Return("report text").Once()
	}

	tests := []struct {
		name        string
		args        string
		mockSetup   func(*MockQueryTranslator, *MockReportExecutor, *MockReportFormatter)
		wantInvalid bool
		wantText    string
	}{
		{
			name:      "object arguments",
			args:      `{"query": "top queries"}`,
			mockSetup: happyPath,
			wantText:  "report text",
		},
		{
			name:      "string-encoded arguments",
			args:      `"{\"query\": \"top queries\"}"`,
			mockSetup: happyPath,
			wantText:  "report text",
		},
		{
			name:        "missing query field",
			args:        `{}`,
			wantInvalid: true,
		},
		{
			name:        "empty arguments",
			args:        ``,
			wantInvalid: true,
		},
		{
			name:        "unknown field",
			args:        `{"query": "x", "site": "example.com"}`,
			wantInvalid: true,
		},
		{
			name:        "string that is not an object",
			args:        `"just text"`,
			wantInvalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := newToolUnderTest(t, tt.mockSetup)

			result, err := tool.Handler(context.Background(), json.RawMessage(tt.args))
			if tt.wantInvalid {
				require.Error(t, err)
				assert.ErrorIs(t, err, usecase.ErrInvalidArguments)
				return
			}
			require.NoError(t, err)
			assert.False(t, result.IsError)
			require.Len(t, result.Content, 1)
			assert.Equal(t, tt.wantText, result.Content[0].Text)
		})
	}
}

func TestSearchConsoleQueryToolReportsPipelineFailuresInResult(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{
			name:     "translation failure",
			err:      domain.Errorf(domain.KindTranslation, "no candidates"),
			wantText: "Could not translate",
		},
		{
			name:     "quota failure carries retry hint",
			err:      domain.Errorf(domain.KindUpstreamQuota, "HTTP 429"),
			wantText: "Retry after a short delay",
		},
		{
			name:     "auth failure is marked not retried",
			err:      domain.Errorf(domain.KindUpstreamAuth, "HTTP 401"),
			wantText: "Not retried",
		},
		{
			name:     "timeout",
			err:      domain.Errorf(domain.KindUpstreamTimeout, "deadline exceeded"),
			wantText: "timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := newToolUnderTest(t, func(translator *MockQueryTranslator, executor *MockReportExecutor, formatter *MockReportFormatter) {
				translator.On("Translate", mock.Anything, "q").Return(domain.Translation{}, tt.err).Once()
			})

			result, err := tool.Handler(context.Background(), json.RawMessage(`{"query": "q"}`))
			require.NoError(t, err, "pipeline failures are tool results, not protocol errors")
			assert.True(t, result.IsError)
			require.Len(t, result.Content, 1)
			assert.Contains(t, result.Content[0].Text, tt.wantText)
		})
	}
}

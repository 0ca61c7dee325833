package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"
)

// fakeGenerator replays scripted responses and records every request.
type fakeGenerator struct {
	responses []*genai.GenerateContentResponse
	err       error
	calls     [][]*genai.Content
	configs   []*genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, append([]*genai.Content(nil), contents...))
	f.configs = append(f.configs, config)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return textResponse("done"), nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewContentFromText(text, genai.RoleModel),
	}}}
}

func callResponse(name string, args map[string]any) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{
			Role:  string(genai.RoleModel),
			Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{ID: "call-1", Name: name, Args: args}}},
		},
	}}}
}

func functionResponse(t *testing.T, c *genai.Content) *genai.FunctionResponse {
	t.Helper()
	require.Len(t, c.Parts, 1)
	require.NotNil(t, c.Parts[0].FunctionResponse)
	return c.Parts[0].FunctionResponse
}

func runCodeTool() Tool {
	return NewFunctionTool("run_code", "Run code.", ObjectSchema(map[string]string{"code": "Source."}, "code"),
		func(_ context.Context, args map[string]any) (map[string]any, error) {
			code, err := StringArg(args, "code")
			if err != nil {
				return nil, err
			}
			if code != "print(2+2)" {
				return map[string]any{"result": "Output:\n"}, nil
			}
			return map[string]any{"result": "Output:\n4"}, nil
		})
}

func TestNew(t *testing.T) {
	logger := zaptest.NewLogger(t)
	gen := &fakeGenerator{}

	t.Run("RequiresName", func(t *testing.T) {
		_, err := New(Config{Model: "m"}, gen, logger)
		require.Error(t, err)
	})

	t.Run("RequiresModel", func(t *testing.T) {
		_, err := New(Config{Name: "a"}, gen, logger)
		require.Error(t, err)
	})

	t.Run("SearchExcludesFunctionTools", func(t *testing.T) {
		_, err := New(Config{Name: "a", Model: "m", GoogleSearch: true, Tools: []Tool{runCodeTool()}}, gen, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "google search")
	})

	t.Run("DuplicateTool", func(t *testing.T) {
		_, err := New(Config{Name: "a", Model: "m", Tools: []Tool{runCodeTool(), runCodeTool()}}, gen, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate tool")
	})

	t.Run("DefaultMaxSteps", func(t *testing.T) {
		a, err := New(Config{Name: "a", Model: "m"}, gen, logger)
		require.NoError(t, err)
		assert.Equal(t, DefaultMaxSteps, a.maxSteps)
	})
}

func TestRun(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	t.Run("PlainAnswer", func(t *testing.T) {
		gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{textResponse("Hello!")}}
		a, err := New(Config{Name: "a", Model: "gemini-2.5-flash", Instruction: "Be nice."}, gen, logger)
		require.NoError(t, err)

		reply, err := a.Run(ctx, nil, "hi")
		require.NoError(t, err)
		assert.Equal(t, "Hello!", reply.Text)
		require.Len(t, reply.Contents, 2)
		assert.Equal(t, "hi", Text(reply.Contents[0]))

		config := gen.configs[0]
		require.NotNil(t, config.SystemInstruction)
		assert.Equal(t, "Be nice.", Text(config.SystemInstruction))
		assert.Empty(t, config.Tools)
		assert.Nil(t, config.ToolConfig)
	})

	t.Run("ToolRoundTrip", func(t *testing.T) {
		gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{
			callResponse("run_code", map[string]any{"code": "print(2+2)"}),
			textResponse("The answer is 4."),
		}}
		a, err := New(Config{Name: "a", Model: "m", Tools: []Tool{runCodeTool()}}, gen, logger)
		require.NoError(t, err)

		reply, err := a.Run(ctx, nil, "what is 2+2?")
		require.NoError(t, err)
		assert.Equal(t, "The answer is 4.", reply.Text)
		require.Len(t, reply.Contents, 4)

		require.Len(t, gen.calls, 2)
		second := gen.calls[1]
		resp := functionResponse(t, second[len(second)-1])
		assert.Equal(t, "run_code", resp.Name)
		assert.Equal(t, "call-1", resp.ID)
		assert.Equal(t, "Output:\n4", resp.Response["result"])

		config := gen.configs[0]
		require.Len(t, config.Tools, 1)
		require.Len(t, config.Tools[0].FunctionDeclarations, 1)
		assert.Equal(t, "run_code", config.Tools[0].FunctionDeclarations[0].Name)
		assert.Equal(t, genai.FunctionCallingConfigModeAuto, config.ToolConfig.FunctionCallingConfig.Mode)
	})

	t.Run("HistoryIsReplayed", func(t *testing.T) {
		gen := &fakeGenerator{}
		a, err := New(Config{Name: "a", Model: "m"}, gen, logger)
		require.NoError(t, err)

		history := []*genai.Content{
			genai.NewContentFromText("earlier question", genai.RoleUser),
			genai.NewContentFromText("earlier answer", genai.RoleModel),
		}
		_, err = a.Run(ctx, history, "follow up")
		require.NoError(t, err)

		require.Len(t, gen.calls[0], 3)
		assert.Equal(t, "earlier question", Text(gen.calls[0][0]))
		assert.Equal(t, "follow up", Text(gen.calls[0][2]))
		assert.Len(t, history, 2)
	})

	t.Run("UnknownToolReportedToModel", func(t *testing.T) {
		gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{
			callResponse("rm_rf", nil),
			textResponse("Sorry."),
		}}
		a, err := New(Config{Name: "a", Model: "m", Tools: []Tool{runCodeTool()}}, gen, logger)
		require.NoError(t, err)

		reply, err := a.Run(ctx, nil, "delete everything")
		require.NoError(t, err)
		assert.Equal(t, "Sorry.", reply.Text)

		second := gen.calls[1]
		resp := functionResponse(t, second[len(second)-1])
		assert.Equal(t, "unknown tool: rm_rf", resp.Response["error"])
	})

	t.Run("ToolErrorReportedToModel", func(t *testing.T) {
		gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{
			callResponse("run_code", map[string]any{}),
			textResponse("I need code."),
		}}
		a, err := New(Config{Name: "a", Model: "m", Tools: []Tool{runCodeTool()}}, gen, logger)
		require.NoError(t, err)

		_, err = a.Run(ctx, nil, "run it")
		require.NoError(t, err)

		second := gen.calls[1]
		resp := functionResponse(t, second[len(second)-1])
		assert.Equal(t, `missing required argument "code"`, resp.Response["error"])
	})

	t.Run("MaxSteps", func(t *testing.T) {
		loop := callResponse("run_code", map[string]any{"code": "pass"})
		gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{loop, loop, loop}}
		a, err := New(Config{Name: "a", Model: "m", Tools: []Tool{runCodeTool()}, MaxSteps: 2}, gen, logger)
		require.NoError(t, err)

		_, err = a.Run(ctx, nil, "loop")
		require.ErrorIs(t, err, ErrMaxSteps)
		assert.Len(t, gen.calls, 2)
	})

	t.Run("GeneratorFailure", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("quota exceeded")}
		a, err := New(Config{Name: "a", Model: "m"}, gen, logger)
		require.NoError(t, err)

		_, err = a.Run(ctx, nil, "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("EmptyResponse", func(t *testing.T) {
		gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{{}}}
		a, err := New(Config{Name: "a", Model: "m"}, gen, logger)
		require.NoError(t, err)

		_, err = a.Run(ctx, nil, "hi")
		require.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("ThoughtsAreHidden", func(t *testing.T) {
		gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "Answer"},
			}},
		}}}}}
		a, err := New(Config{Name: "a", Model: "m"}, gen, logger)
		require.NoError(t, err)

		reply, err := a.Run(ctx, nil, "hi")
		require.NoError(t, err)
		assert.Equal(t, "Answer", reply.Text)
		assert.Equal(t, string(genai.RoleModel), reply.Contents[1].Role)
	})
}

func TestAsTool(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{textResponse("Go is a language.")}}
	search, err := New(Config{
		Name:         "SearchAgent",
		Description:  "Use this agent to perform simple google searches.",
		Model:        "m",
		GoogleSearch: true,
	}, gen, logger)
	require.NoError(t, err)

	tool := AsTool(search)
	decl := tool.Declaration()
	assert.Equal(t, "SearchAgent", decl.Name)
	assert.Equal(t, "Use this agent to perform simple google searches.", decl.Description)

	t.Run("ReturnsResult", func(t *testing.T) {
		result, err := tool.Call(ctx, map[string]any{"request": "what is go?"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"result": "Go is a language."}, result)

		config := gen.configs[0]
		require.Len(t, config.Tools, 1)
		assert.NotNil(t, config.Tools[0].GoogleSearch)
		assert.Nil(t, config.ToolConfig)
	})

	t.Run("MissingRequest", func(t *testing.T) {
		_, err := tool.Call(ctx, map[string]any{})
		require.Error(t, err)
	})
}

func TestArgs(t *testing.T) {
	t.Run("StringArg", func(t *testing.T) {
		v, err := StringArg(map[string]any{"code": "x"}, "code")
		require.NoError(t, err)
		assert.Equal(t, "x", v)

		_, err = StringArg(map[string]any{"code": 1}, "code")
		require.Error(t, err)
		_, err = StringArg(map[string]any{"code": ""}, "code")
		require.Error(t, err)
	})

	t.Run("RequiredStringArg", func(t *testing.T) {
		v, err := RequiredStringArg(map[string]any{"code": ""}, "code")
		require.NoError(t, err)
		assert.Empty(t, v)

		_, err = RequiredStringArg(map[string]any{}, "code")
		require.Error(t, err)
		_, err = RequiredStringArg(map[string]any{"code": nil}, "code")
		require.Error(t, err)
		_, err = RequiredStringArg(map[string]any{"code": 1}, "code")
		require.Error(t, err)
	})

	t.Run("OptionalStringArg", func(t *testing.T) {
		v, err := OptionalStringArg(map[string]any{}, "language")
		require.NoError(t, err)
		assert.Empty(t, v)

		v, err = OptionalStringArg(map[string]any{"language": "go"}, "language")
		require.NoError(t, err)
		assert.Equal(t, "go", v)

		_, err = OptionalStringArg(map[string]any{"language": true}, "language")
		require.Error(t, err)
	})
}

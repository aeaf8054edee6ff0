package smolagent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// FinalAnswerToolName is the name of the tool that terminates a run.
const FinalAnswerToolName = "final_answer"

type finalAnswerTool struct{}

// NewFinalAnswerTool returns the tool the model calls to provide its final answer. The agent registers it
// automatically unless a tool with the same name is given.
func NewFinalAnswerTool() Tool {
	return &finalAnswerTool{}
}

func (x *finalAnswerTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        FinalAnswerToolName,
		Description: "Provides a final answer to the given problem.",
		Parameters: map[string]*Parameter{
			"answer": {
				Type:        TypeAny,
				Description: "The final answer to the problem",
				Nullable:    true,
			},
		},
		OutputType: TypeAny,
	}
}

func (x *finalAnswerTool) Run(_ context.Context, args any) (any, error) {
	if obj, ok := args.(map[string]any); ok {
		return obj["answer"], nil
	}
	return args, nil
}

type userInputTool struct {
	mu     sync.Mutex
	reader *bufio.Reader
	writer io.Writer
}

// NewUserInputTool returns a tool that asks the user a question. The question is written to w and one line is
// read from r as the answer.
func NewUserInputTool(r io.Reader, w io.Writer) Tool {
	return &userInputTool{reader: bufio.NewReader(r), writer: w}
}

func (x *userInputTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        "user_input",
		Description: "Asks for user's input on a specific question",
		Parameters: map[string]*Parameter{
			"question": {
				Type:        TypeString,
				Description: "The question to ask the user",
			},
		},
		OutputType: TypeString,
	}
}

func (x *userInputTool) Run(_ context.Context, args any) (any, error) {
	question, ok := args.(string)
	if obj, isObj := args.(map[string]any); isObj {
		question, ok = obj["question"].(string)
	}
	if !ok {
		return nil, goerr.New("question must be a string", goerr.V("args", args))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, err := fmt.Fprintf(x.writer, "%s => Type your answer here: ", question); err != nil {
		return nil, goerr.Wrap(err, "failed to write question")
	}
	line, err := x.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return nil, goerr.Wrap(err, "failed to read user input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

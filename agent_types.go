package smolagent

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
)

// AgentType wraps a value returned by an agent.
type AgentType interface {
	// Raw returns the wrapped value.
	Raw() any

	// String returns the text form of the value.
	String() string
}

// AgentText is a text output.
type AgentText struct {
	value string
}

func NewAgentText(s string) *AgentText {
	return &AgentText{value: s}
}

func (x *AgentText) Raw() any       { return x.value }
func (x *AgentText) String() string { return x.value }

func (x *AgentText) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.value)
}

// AgentImage is an image output.
type AgentImage struct {
	image Image
}

func NewAgentImage(img Image) *AgentImage {
	return &AgentImage{image: img}
}

func (x *AgentImage) Raw() any       { return x.image }
func (x *AgentImage) String() string { return x.image.String() }

// Image returns the wrapped image.
func (x *AgentImage) Image() Image { return x.image }

// Save writes the image data to path.
func (x *AgentImage) Save(path string) error {
	if err := os.WriteFile(path, x.image.Data(), 0644); err != nil {
		return goerr.Wrap(err, "failed to save image", goerr.V("path", path))
	}
	return nil
}

func (x *AgentImage) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.image)
}

// AgentValue is any other output.
type AgentValue struct {
	value any
}

func NewAgentValue(v any) *AgentValue {
	return &AgentValue{value: v}
}

func (x *AgentValue) Raw() any       { return x.value }
func (x *AgentValue) String() string { return stringify(x.value) }

func (x *AgentValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.value)
}

// handleAgentOutputTypes wraps output. An explicit outputType of string or image wins; otherwise the runtime shape of
// output decides.
func handleAgentOutputTypes(output any, outputType ParameterType) AgentType {
	if v, ok := output.(AgentType); ok && outputType == "" {
		return v
	}

	switch outputType {
	case TypeString:
		if v, ok := output.(AgentType); ok {
			return NewAgentText(v.String())
		}
		return NewAgentText(stringify(output))
	case TypeImage:
		if img, ok := asImage(output); ok {
			return NewAgentImage(img)
		}
	}

	switch v := output.(type) {
	case AgentType:
		return v
	case string:
		return NewAgentText(v)
	}
	if img, ok := asImage(output); ok {
		return NewAgentImage(img)
	}
	return NewAgentValue(output)
}

func asImage(v any) (Image, bool) {
	switch x := v.(type) {
	case Image:
		return x, true
	case *Image:
		if x != nil {
			return *x, true
		}
	case *AgentImage:
		if x != nil {
			return x.image, true
		}
	}
	return Image{}, false
}

// stringify renders a value as observation text. Strings are kept as is and everything else is encoded as JSON.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

package conv

import "strings"

// Capability is a flag set describing what an AI call needs or supports.
type Capability uint32

const (
	CapTextInput Capability = 1 << iota
	CapImageInput
	CapTextOutput
	CapImageOutput
	CapJSONOutput
	CapFunctionCalling
	CapStreaming
	CapReasoning
)

// CapNone is the empty capability set.
const CapNone Capability = 0

// CapText is the common text-in/text-out pairing.
const CapText = CapTextInput | CapTextOutput

const (
	capInputMask  = CapTextInput | CapImageInput
	capOutputMask = CapTextOutput | CapImageOutput | CapJSONOutput
)

var capabilityNames = []struct {
	flag Capability
	name string
}{
	{CapTextInput, "text_input"},
	{CapImageInput, "image_input"},
	{CapTextOutput, "text_output"},
	{CapImageOutput, "image_output"},
	{CapJSONOutput, "json_output"},
	{CapFunctionCalling, "function_calling"},
	{CapStreaming, "streaming"},
	{CapReasoning, "reasoning"},
}

// Has reports whether all flags in want are present.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// HasInput reports whether at least one input flag is present.
func (c Capability) HasInput() bool {
	return c&capInputMask != 0
}

// HasOutput reports whether at least one output flag is present.
func (c Capability) HasOutput() bool {
	return c&capOutputMask != 0
}

// Union returns the combination of both sets.
func (c Capability) Union(other Capability) Capability {
	return c | other
}

// String renders the set as a stable "+"-joined flag list, or "none".
// The rendering doubles as a cache key component for model selection.
func (c Capability) String() string {
	if c == CapNone {
		return "none"
	}
	var parts []string
	for _, entry := range capabilityNames {
		if c.Has(entry.flag) {
			parts = append(parts, entry.name)
		}
	}
	return strings.Join(parts, "+")
}

// ParseCapability parses a "+"-joined flag list produced by String.
// Unknown flag names are ignored.
func ParseCapability(s string) Capability {
	if s == "" || s == "none" {
		return CapNone
	}
	var c Capability
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		for _, entry := range capabilityNames {
			if entry.name == part {
				c |= entry.flag
				break
			}
		}
	}
	return c
}

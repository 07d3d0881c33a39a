// ABOUTME: Stateless MCP tools over the field codec and completion evaluator
// ABOUTME: Implements evaluate_form and convert_items
package handlers

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/formsync/codec"
	"github.com/harperreed/formsync/models"
	"github.com/harperreed/formsync/workflow"
)

type CodecHandlers struct{}

func NewCodecHandlers() *CodecHandlers {
	return &CodecHandlers{}
}

type ItemsInput struct {
	Items []models.FormItem `json:"items" jsonschema:"Form items as edited in the forms panel"`
}

type EvaluateFormOutput struct {
	State    string `json:"state"`
	Answered int    `json:"answered"`
	Total    int    `json:"total"`
}

func (h *CodecHandlers) EvaluateForm(_ context.Context, _ *mcp.CallToolRequest, input ItemsInput) (*mcp.CallToolResult, EvaluateFormOutput, error) {
	fields, err := codec.ToFormFields(input.Items)
	if err != nil {
		return nil, EvaluateFormOutput{}, err
	}

	out := EvaluateFormOutput{
		State: string(workflow.CalculateFormState(fields)),
		Total: len(fields),
	}
	for _, f := range fields {
		if workflow.IsFilled(f) {
			out.Answered++
		}
	}
	return nil, out, nil
}

type ConvertItemsOutput struct {
	Fields []FieldOutput `json:"fields"`
}

func (h *CodecHandlers) ConvertItems(_ context.Context, _ *mcp.CallToolRequest, input ItemsInput) (*mcp.CallToolResult, ConvertItemsOutput, error) {
	fields, err := codec.ToFormFields(input.Items)
	if err != nil {
		return nil, ConvertItemsOutput{}, err
	}
	out, err := fieldsToOutput(fields)
	if err != nil {
		return nil, ConvertItemsOutput{}, err
	}
	return nil, ConvertItemsOutput{Fields: out}, nil
}

package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	adktool "google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/sakif/chatbet/internal/apperror"
)

// Output is what every tool returns to the model. Data holds the JSON
// encoded result; Error explains why the call was rejected so the model can
// correct its arguments.
type Output struct {
	Data  string `json:"data,omitempty" jsonschema:"JSON encoded fixtures or odds"`
	Error string `json:"error,omitempty" jsonschema:"Why the call was rejected"`
}

// ADKTools returns the registry's tools for an ADK agent, one per
// Definition. Every call the model makes is dispatched through Invoke.
func (r *Registry) ADKTools() ([]adktool.Tool, error) {
	defs := r.Definitions()
	out := make([]adktool.Tool, 0, len(defs))
	for _, def := range defs {
		t, err := r.byName[def.Name].adk(def)
		if err != nil {
			return nil, fmt.Errorf("creating tool %s: %w", def.Name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// newADKTool exposes def with In as its argument schema. ADK has already
// decoded the arguments into In; they are re-encoded so Invoke applies the
// same strict decoding and validation to every call.
func newADKTool[In Input](r *Registry, def Definition) (adktool.Tool, error) {
	handler := func(ctx adktool.Context, in In) (Output, error) {
		args, err := json.Marshal(in)
		if err != nil {
			return Output{}, fmt.Errorf("encoding %s arguments: %w", def.Name, err)
		}

		result, err := r.Invoke(ctx, def.Name, args)
		if err != nil {
			if errors.Is(err, apperror.ErrValidation) {
				return Output{Error: err.Error()}, nil
			}
			return Output{}, err
		}

		data, err := json.Marshal(result)
		if err != nil {
			return Output{}, fmt.Errorf("encoding %s result: %w", def.Name, err)
		}
		return Output{Data: string(data)}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        def.Name,
		Description: def.Description,
	}, handler)
}

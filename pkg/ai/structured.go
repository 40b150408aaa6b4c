package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/conformitas/veridoc/internal/util"
)

// ErrStructuredOutput is returned when both the schema-constrained call and
// the free-text fallback fail to produce a parseable result.
var ErrStructuredOutput = errors.New("structured output failed")

const maxSchemaRetries = 2

// ExtractStructured runs a structured-extraction request against the model.
// The primary attempt uses a schema-constrained completion. If that fails,
// a second attempt is made as a plain completion with explicit JSON-shape
// instructions, parsed manually with repair fallbacks. Failures of both
// strategies resolve to a single ErrStructuredOutput.
func ExtractStructured(
	ctx context.Context,
	client Client,
	name string,
	description string,
	prompt string,
	out any,
	opts ...GenerateOption,
) error {
	primaryErr := util.RetryErrWithContext(ctx, maxSchemaRetries, func(ctx context.Context) error {
		return client.GenerateCompletionWithFormat(ctx, name, description, prompt, out, opts...)
	})
	if primaryErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	schemaBytes, err := json.Marshal(GenerateSchema(out))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStructuredOutput, err)
	}

	fallbackPrompt := fmt.Sprintf(
		"%s\n\nRespond with a single JSON object and nothing else. "+
			"No markdown fences, no commentary. The object must conform to this JSON schema:\n%s",
		prompt, string(schemaBytes),
	)

	raw, fallbackErr := client.GenerateCompletion(ctx, fallbackPrompt, opts...)
	if fallbackErr != nil {
		return fmt.Errorf("%w: schema call: %v; fallback call: %v", ErrStructuredOutput, primaryErr, fallbackErr)
	}

	if err := UnmarshalFlexible(raw, out); err != nil {
		return fmt.Errorf("%w: schema call: %v; fallback parse: %v", ErrStructuredOutput, primaryErr, err)
	}

	return nil
}

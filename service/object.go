package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/hobbsb/llmkit/llm"
	"github.com/hobbsb/llmkit/retry"
	"github.com/hobbsb/llmkit/schema"
)

const objectInstruction = "Respond with a single JSON object matching this JSON Schema. " +
	"Output only the JSON, with no surrounding prose.\n\nSchema:\n"

// GenerateObject prompts the model for output matching the schema and
// unmarshals the result into T. The whole attempt (provider call plus
// parse) sits inside the retry loop, so a schema rejection regenerates
// instead of re-parsing the same text. Parse failures are retryable by
// the default classifier.
func GenerateObject[T any](ctx context.Context, c *Client, prompt string, sch *schema.Schema) (T, error) {
	req := llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: objectInstruction + sch.Definition()},
			{Role: llm.RoleUser, Content: prompt},
		},
	}
	log := c.logger.WithRequestID(uuid.NewString())
	return retry.DoValue(ctx, c.retryOptions(log), func(ctx context.Context) (T, error) {
		var out T
		resp, err := c.chatOnce(ctx, log, req)
		if err != nil {
			return out, err
		}
		if err := sch.Parse(resp.Content, &out); err != nil {
			log.Warn("object_parse_failed", map[string]interface{}{
				"schema": sch.Name(),
				"error":  err.Error(),
			})
			var zero T
			return zero, err
		}
		return out, nil
	})
}

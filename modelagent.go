package fluxmesh

import (
	"context"

	"github.com/hupe1980/fluxmesh/model"
)

// ModelAgent exposes a language model as a prompt-in/text-out Agent so it
// can be lifted into a flux. Each Invoke performs one generation, draining
// the model's chunk stream into the final completion.
func ModelAgent(name string, m model.Model, optFns ...func(o *ModelAgentOptions)) Agent[string, string] {
	opts := ModelAgentOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &modelAgent{name: name, model: m, opts: opts}
}

// ModelAgentOptions configures the model-to-agent bridge.
type ModelAgentOptions struct {
	// System is prepended to every request as system instructions.
	System string
}

type modelAgent struct {
	name  string
	model model.Model
	opts  ModelAgentOptions
}

// Name implements Agent.
func (a *modelAgent) Name() string { return a.name }

// Invoke implements Agent by collecting the model's response stream into a
// single completion.
func (a *modelAgent) Invoke(ctx context.Context, prompt string) (string, error) {
	respCh, errCh := a.model.Generate(ctx, model.Request{System: a.opts.System, Prompt: prompt})

	var final string
	for respCh != nil || errCh != nil {
		select {
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final = r.Text
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return "", err
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return final, nil
}

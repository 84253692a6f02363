// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gemini

import (
	"context"

	"github.com/pdiddy/debrief-engine/pkg/types"
)

// interactionRequest creates a new agent interaction. Background detaches
// the interaction from the request so it can be polled by ID, and Store
// keeps the result retrievable after completion; agent runs need both.
type interactionRequest struct {
	Agent       string       `json:"agent"`
	Input       string       `json:"input"`
	Background  bool         `json:"background"`
	Store       bool         `json:"store"`
	AgentConfig *agentConfig `json:"agentConfig,omitempty"`
}

type agentConfig struct {
	ThinkingSummaries string `json:"thinkingSummaries,omitempty"`
}

// interactionResponse is the wire form returned by the create, get, and
// cancel endpoints.
type interactionResponse struct {
	ID      string        `json:"id"`
	Status  string        `json:"status"`
	Outputs []outputBlock `json:"outputs"`
}

type outputBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// interaction converts the wire form to the domain type. Interactions emit
// interim thinking summaries as they run; the last text block holds the
// actual result, so later blocks replace earlier ones.
func (r *interactionResponse) interaction() types.Interaction {
	var text string
	for _, block := range r.Outputs {
		if block.Type == "text" && block.Text != "" {
			text = block.Text
		}
	}
	return types.Interaction{
		ID:     r.ID,
		Status: types.InteractionStatus(r.Status),
		Text:   text,
	}
}

// CreateInteraction submits query to the named agent as a background run
// and returns the handle the API assigned to it.
func (c *Client) CreateInteraction(ctx context.Context, agent, query string) (types.Interaction, error) {
	reqBody := interactionRequest{
		Agent:       agent,
		Input:       query,
		Background:  true,
		Store:       true,
		AgentConfig: &agentConfig{ThinkingSummaries: "auto"},
	}

	var resp interactionResponse
	if err := c.postJSON(ctx, "/interactions", reqBody, &resp); err != nil {
		return types.Interaction{}, err
	}
	return resp.interaction(), nil
}

// GetInteraction fetches the current status and output of an interaction.
func (c *Client) GetInteraction(ctx context.Context, id string) (types.Interaction, error) {
	var resp interactionResponse
	if err := c.getJSON(ctx, "/interactions/"+id, &resp); err != nil {
		return types.Interaction{}, err
	}
	return resp.interaction(), nil
}

// CancelInteraction asks the API to stop a running interaction so an
// abandoned run does not keep consuming agent time.
func (c *Client) CancelInteraction(ctx context.Context, id string) error {
	return c.postJSON(ctx, "/interactions/"+id+":cancel", struct{}{}, nil)
}

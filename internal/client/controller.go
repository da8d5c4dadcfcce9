package client

import (
	"context"
	"strings"
	"sync"

	"plant-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Controller owns the client's plant list and routes every mutation through
// the API. The server's response is always authoritative.
//
// Actions may run concurrently; each applies its transition to the state
// current at completion, so the last response wins.
type Controller struct {
	api API

	mu       sync.Mutex
	state    State
	onChange func(State)
}

func NewController(api API) *Controller {
	return &Controller{api: api, state: State{Plants: []models.Plant{}}}
}

// OnChange registers fn to receive a snapshot after every state change.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (c *Controller) apply(transition func(State) State) {
	c.mu.Lock()
	c.state = transition(c.state)
	snap, fn := c.state.Clone(), c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// Load replaces the list with the server's. On failure the list is kept.
func (c *Controller) Load(ctx context.Context) Outcome {
	c.apply(begin)

	plants, err := c.api.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetch plants")
		c.apply(func(s State) State { return withError(s, MsgLoadFailed) })
		return Failed
	}
	c.apply(func(s State) State { return loaded(s, plants) })
	return Succeeded
}

// Create adds a plant. Blank input is rejected without calling the API.
func (c *Controller) Create(ctx context.Context, name string, img Image) Outcome {
	c.apply(begin)

	if strings.TrimSpace(name) == "" || img.Blank() {
		c.apply(func(s State) State { return withError(s, MsgCreateBlank) })
		return Rejected
	}

	plant, err := c.api.Create(ctx, name, img)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("add plant")
		c.apply(func(s State) State { return withError(s, MsgCreateFailed) })
		return Failed
	}
	c.apply(func(s State) State { return succeeded(s, plant, MsgCreateSuccess) })
	return Succeeded
}

// AppendImage adds img to plant id and replaces the local copy with the
// server's record.
func (c *Controller) AppendImage(ctx context.Context, id string, img Image) Outcome {
	c.apply(begin)

	if img.Blank() {
		c.apply(func(s State) State { return withError(s, MsgAppendBlank) })
		return Rejected
	}

	plant, err := c.api.AppendImage(ctx, id, img)
	if err != nil {
		log.Error().Err(err).Str("plant_id", id).Msg("add image")
		c.apply(func(s State) State { return withError(s, MsgAppendFailed) })
		return Failed
	}
	c.apply(func(s State) State { return succeeded(s, plant, MsgAppendSuccess) })
	return Succeeded
}

// ApplyEvent merges a live feed event into the list.
func (c *Controller) ApplyEvent(evt models.PlantEvent) {
	c.apply(func(s State) State { return applyEvent(s, evt) })
}

package services

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tutor-chat/utils"
	"tutor-chat/work-flows/models"
)

// AgentLister is the part of the backend client the catalog needs.
type AgentLister interface {
	ListAgents(ctx context.Context) ([]models.Agent, error)
}

// AgentCatalog fetches the agent list once per process and serves copies of it afterwards.
// Failed fetches are not cached.
type AgentCatalog struct {
	lister    AgentLister
	preferred string
	group     singleflight.Group
	logger    *zap.Logger

	mu     sync.RWMutex
	agents []models.Agent
	loaded bool
}

// NewAgentCatalog creates a catalog. preferred selects the default agent by id or name.
func NewAgentCatalog(lister AgentLister, preferred string, logger *zap.Logger) *AgentCatalog {
	return &AgentCatalog{
		lister:    lister,
		preferred: preferred,
		logger:    utils.OrNop(logger).Named("agents"),
	}
}

func (c *AgentCatalog) Agents(ctx context.Context) []models.Agent {
	c.mu.RLock()
	if c.loaded {
		agents := slices.Clone(c.agents)
		c.mu.RUnlock()
		return agents
	}
	c.mu.RUnlock()

	// The fetch serves every caller in the flight, so it ignores this caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("agents", func() (any, error) {
		c.mu.RLock()
		if c.loaded {
			defer c.mu.RUnlock()
			return c.agents, nil
		}
		c.mu.RUnlock()

		agents, err := c.lister.ListAgents(flightCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.agents = agents
		c.loaded = true
		c.mu.Unlock()
		c.logger.Debug("agents loaded", zap.Int("count", len(agents)))
		return agents, nil
	})

	select {
	case <-ctx.Done():
		c.logger.Debug("gave up waiting for agents", zap.Error(ctx.Err()))
		return nil
	case res := <-ch:
		if res.Err != nil {
			c.logger.Warn("failed to fetch agents", zap.Error(res.Err))
			return nil
		}
		return slices.Clone(res.Val.([]models.Agent))
	}
}

// Default returns the preferred agent if present, else the first one.
func (c *AgentCatalog) Default(ctx context.Context) (models.Agent, bool) {
	agents := c.Agents(ctx)
	if len(agents) == 0 {
		return models.Agent{}, false
	}
	if c.preferred != "" {
		for _, agent := range agents {
			if agent.ID == c.preferred || strings.EqualFold(agent.Name, c.preferred) {
				return agent, true
			}
		}
		c.logger.Warn("preferred agent not found, using first", zap.String("preferred", c.preferred))
	}
	return agents[0], true
}

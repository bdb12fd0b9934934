// Package fleet is a thin hub-and-spoke sync collaborator: each rig
// publishes its strategic advisories to a shared channel and
// subscribes to fleet-wide config pushes from shore. Grounded on
// teacher redis_cache.go's minimal *redis.Client wrapper shape,
// generalized from get/set to publish/subscribe.
package fleet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

const (
	advisoryChannel = "sairen:advisories"
	configChannel   = "sairen:config"
)

// Config is the sync endpoint; Addr is the only required field.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Hub publishes this rig's advisories and listens for fleet-wide
// config pushes from shore.
type Hub struct {
	client *redis.Client
	rigID  string
}

// NewHub connects to addr without blocking; failures surface on first
// use, matching the teacher's lazy-connect redis.NewClient pattern.
func NewHub(cfg Config, rigID string) *Hub {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Hub{client: client, rigID: rigID}
}

// PublishAdvisory broadcasts adv on the fleet-wide advisory channel,
// tagged with this hub's rig ID so shore can attribute it.
func (h *Hub) PublishAdvisory(ctx context.Context, adv types.StrategicAdvisory) error {
	envelope := struct {
		RigID    string                  `json:"rig_id"`
		Advisory types.StrategicAdvisory `json:"advisory"`
	}{RigID: h.rigID, Advisory: adv}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("fleet: marshal advisory envelope: %w", err)
	}
	if err := h.client.Publish(ctx, advisoryChannel, payload).Err(); err != nil {
		return fmt.Errorf("fleet: publish advisory: %w", err)
	}
	return nil
}

// ConfigPush is a fleet-wide configuration change broadcast from
// shore (e.g. an updated baseline override or optimizer parameter).
type ConfigPush struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SubscribeConfig invokes onPush for every config change received
// until ctx is done or the subscription errors. Runs in the caller's
// goroutine; callers should run it in its own goroutine.
func (h *Hub) SubscribeConfig(ctx context.Context, onPush func(ConfigPush)) error {
	sub := h.client.Subscribe(ctx, configChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("fleet: config subscription channel closed")
			}
			var push ConfigPush
			if err := json.Unmarshal([]byte(msg.Payload), &push); err != nil {
				continue
			}
			onPush(push)
		}
	}
}

// Close releases the underlying connection.
func (h *Hub) Close() error {
	return h.client.Close()
}

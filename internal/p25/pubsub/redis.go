// SPDX-License-Identifier: AGPL-3.0-or-later
// DMRHub - Run a DMR network server in a single binary
// Copyright (C) 2023-2026 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/USA-RedDragon/DMRHub>

package pubsub

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewRedis dials addr and returns a PubSub backed by Redis, adapted from
// the teacher's internal/pubsub/redis.go redisPubSub.
func NewRedis(ctx context.Context, addr, password string) (PubSub, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("p25 pubsub: connect to redis: %w", err)
	}
	return redisPubSub{client: client}, nil
}

type redisPubSub struct {
	client *redis.Client
}

func (ps redisPubSub) Publish(topic string, message []byte) error {
	if err := ps.client.Publish(context.Background(), topic, message).Err(); err != nil {
		return fmt.Errorf("p25 pubsub: publish to %s: %w", topic, err)
	}
	return nil
}

func (ps redisPubSub) Subscribe(topic string) Subscription {
	sub := ps.client.Subscribe(context.Background(), topic)
	return redisSubscription{sub: sub, ch: sub.Channel()}
}

func (ps redisPubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("p25 pubsub: close: %w", err)
	}
	return nil
}

type redisSubscription struct {
	sub *redis.PubSub
	ch  <-chan *redis.Message
}

func (s redisSubscription) Close() error {
	if err := s.sub.Close(); err != nil {
		return fmt.Errorf("p25 pubsub: close subscription: %w", err)
	}
	return nil
}

func (s redisSubscription) Channel() <-chan []byte {
	out := make(chan []byte)
	go func() {
		defer close(out)
		for msg := range s.ch {
			out <- []byte(msg.Payload)
		}
	}()
	return out
}

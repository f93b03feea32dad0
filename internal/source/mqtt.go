// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package source

import (
	"context"
	"fmt"
	"net/url"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/log"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// MQTTConfig configures an MQTTSource, grounded on the autopaho.
// ClientConfig shape the pack's mqtt publisher builds.
type MQTTConfig struct {
	BrokerURL string
	Topic     string
	ClientID  string
	Username  string
	Password  string
	Decoder   Decoder
}

// MQTTSource subscribes to an MQTT topic via autopaho's managed
// connection and decodes every publish into a Train.
type MQTTSource struct {
	cfg MQTTConfig
}

func NewMQTTSource(cfg MQTTConfig) *MQTTSource {
	if cfg.Decoder == nil {
		cfg.Decoder = DecodeLineProtocol
	}
	return &MQTTSource{cfg: cfg}
}

func (s *MQTTSource) Type() string { return "mqtt" }

func (s *MQTTSource) Configs() map[string]plan.Config {
	return map[string]plan.Config{
		"broker": {Required: true, Kind: value.KindText},
		"topic":  {Required: true, Kind: value.KindText},
	}
}

func (s *MQTTSource) Operate(id string, fanout plan.MultiSender, pool *workerpool.Pool) (string, error) {
	brokerURL, err := url.Parse(s.cfg.BrokerURL)
	if err != nil {
		return "", fmt.Errorf("source: mqtt broker url: %w", err)
	}

	raw := channel.NewSingle[[]byte]("mqtt-" + id)
	ctx, cancel := context.WithCancel(context.Background())

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       30,
		ConnectUsername: s.cfg.Username,
		ConnectPassword: []byte(s.cfg.Password),
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			if _, err := cm.Subscribe(ctx, &paho.Subscribe{
				Subscriptions: []paho.SubscribeOptions{{Topic: s.cfg.Topic, QoS: 1}},
			}); err != nil {
				log.Errorf("source: mqtt subscribe to '%s' on stop %s: %v", s.cfg.Topic, id, err)
			}
		},
		OnConnectError: func(err error) {
			log.Errorf("source: mqtt connect error on stop %s: %v", id, err)
		},
		ClientConfig: paho.ClientConfig{ClientID: s.cfg.ClientID},
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		cancel()
		return "", fmt.Errorf("source: mqtt connect: %w", err)
	}
	cm.AddOnPublishReceived(func(pr autopaho.PublishReceived) (bool, error) {
		raw.Send(pr.Packet.Payload)
		return true, nil
	})

	workerID := "mqtt-source-" + id
	pool.ExecuteAsync(workerID, func(meta *workerpool.Meta) {
		defer cancel()
		drainRawInto(meta, raw, s.cfg.Decoder, fanout)
	}, nil)
	return workerID, nil
}

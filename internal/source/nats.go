// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package source

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/log"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// NATSConfig configures a NATSSource, mirroring the teacher's
// pkg/nats.NatsConfig shape (address plus optional username/password).
type NATSConfig struct {
	URL      string
	Subject  string
	Username string
	Password string
	Decoder  Decoder
}

// NATSSource subscribes to a NATS subject and decodes every message
// into a Train, grounded on the teacher's pkg/nats.Client.Subscribe.
type NATSSource struct {
	cfg  NATSConfig
	conn *nats.Conn
}

func NewNATSSource(cfg NATSConfig) *NATSSource {
	if cfg.Decoder == nil {
		cfg.Decoder = DecodeLineProtocol
	}
	return &NATSSource{cfg: cfg}
}

func (s *NATSSource) Type() string { return "nats" }

func (s *NATSSource) Configs() map[string]plan.Config {
	return map[string]plan.Config{
		"url":     {Required: true, Kind: value.KindText},
		"subject": {Required: true, Kind: value.KindText},
	}
}

func (s *NATSSource) Operate(id string, fanout plan.MultiSender, pool *workerpool.Pool) (string, error) {
	var opts []nats.Option
	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts, nats.UserInfo(s.cfg.Username, s.cfg.Password))
	}
	opts = append(opts, nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
		if err != nil {
			log.Errorf("source: nats error on stop %s: %v", id, err)
		}
	}))

	conn, err := nats.Connect(s.cfg.URL, opts...)
	if err != nil {
		return "", fmt.Errorf("source: nats connect: %w", err)
	}
	s.conn = conn

	raw := channel.NewSingle[[]byte]("nats-" + id)
	sub, err := conn.Subscribe(s.cfg.Subject, func(msg *nats.Msg) {
		raw.Send(msg.Data)
	})
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("source: nats subscribe to '%s': %w", s.cfg.Subject, err)
	}

	workerID := "nats-source-" + id
	pool.ExecuteAsync(workerID, func(meta *workerpool.Meta) {
		defer func() {
			sub.Unsubscribe()
			conn.Close()
		}()
		drainRawInto(meta, raw, s.cfg.Decoder, fanout)
	}, nil)
	return workerID, nil
}

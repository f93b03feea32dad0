// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package source

import (
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/log"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// WebSocketConfig configures a WebSocketSource: one HTTP server
// accepting upgrades on Path, every inbound frame decoded into a Train.
type WebSocketConfig struct {
	Addr    string
	Path    string
	Decoder Decoder
}

// WebSocketSource accepts WebSocket connections and decodes every text
// or binary frame into a Train. Any number of clients may connect
// concurrently; every frame from every connection feeds the same
// fan-out.
type WebSocketSource struct {
	cfg      WebSocketConfig
	upgrader websocket.Upgrader
}

func NewWebSocketSource(cfg WebSocketConfig) *WebSocketSource {
	if cfg.Decoder == nil {
		cfg.Decoder = DecodeLineProtocol
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &WebSocketSource{
		cfg:      cfg,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

func (s *WebSocketSource) Type() string { return "websocket" }

func (s *WebSocketSource) Configs() map[string]plan.Config {
	return map[string]plan.Config{
		"addr": {Required: true, Kind: value.KindText},
		"path": {Required: false, Kind: value.KindText, Default: "/"},
	}
}

func (s *WebSocketSource) Operate(id string, fanout plan.MultiSender, pool *workerpool.Pool) (string, error) {
	raw := channel.NewSingle[[]byte]("ws-" + id)

	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Errorf("source: websocket upgrade failed on stop %s: %v", id, err)
			return
		}
		defer conn.Close()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			raw.Send(payload)
		}
	})

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return "", fmt.Errorf("source: websocket listen: %w", err)
	}
	httpServer := &http.Server{Handler: mux}

	workerID := "websocket-source-" + id
	pool.ExecuteAsync(workerID, func(meta *workerpool.Meta) {
		go func() {
			if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
				log.Errorf("source: websocket server on stop %s: %v", id, err)
			}
		}()
		drainRawInto(meta, raw, s.cfg.Decoder, fanout)
		httpServer.Close()
	}, nil)
	return workerID, nil
}

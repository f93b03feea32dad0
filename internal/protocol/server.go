// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"bytes"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/pkg/log"
)

// API is implemented by whatever owns the running plans; Server
// dispatches every management message to it (§4.10's "dispatch to the
// handler").
type API interface {
	GetPlans() ([]string, error)
	CreatePlan(name, text string) (string, error)
	DeletePlan(name string) error
	StartPlan(name string) error
	StopPlan(name string) error
	// Bind resolves stopID to the fanout a source connection's Train
	// messages should be pushed into.
	Bind(stopID int) (plan.MultiSender, bool)
}

// Server accepts control-protocol connections (§4.10).
type Server struct {
	api    API
	issuer *TokenIssuer

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer builds a Server dispatching to api, issuing and verifying
// registration tokens with issuer.
func NewServer(api API, issuer *TokenIssuer) *Server {
	return &Server{api: api, issuer: issuer}
}

// Serve accepts connections on addr until stop is closed or Accept
// fails. It blocks until the accept loop exits.
func (s *Server) Serve(addr string, stop <-chan struct{}) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-stop
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.wg.Wait()
			select {
			case <-stop:
				return nil
			default:
				return err
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Addr returns the bound listener address, useful for tests that bind
// to ":0".
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// handleConn serves one connection until it disconnects or a
// malformed/short read is seen (§4.10: both close the connection).
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connID := uuid.NewString()
	registered := false

	for {
		payload, err := ReadFrame(conn)
		if err != nil {
			return
		}
		msg, err := Decode(bytes.NewReader(payload))
		if err != nil {
			return
		}

		if !registered {
			reg, ok := msg.(RegisterRequest)
			if !ok {
				return
			}
			if s.issuer != nil {
				if _, err := s.issuer.Verify(reg.Token); err != nil {
					s.reply(conn, RegisterResponse{Status: Err(1, err.Error())})
					return
				}
			}
			token := reg.Token
			if s.issuer != nil {
				if signed, err := s.issuer.Issue(connID); err == nil {
					token = signed
				}
			}
			registered = true
			if err := s.reply(conn, RegisterResponse{Status: Ok(), ConnectionID: connID, Token: token}); err != nil {
				return
			}
			continue
		}

		reply, keepGoing := s.dispatch(msg)
		if reply != nil {
			if err := s.reply(conn, reply); err != nil {
				return
			}
		}
		if !keepGoing {
			return
		}
	}
}

func (s *Server) reply(conn net.Conn, msg Message) error {
	payload, err := EncodeToBytes(msg)
	if err != nil {
		return err
	}
	return WriteFrame(conn, payload)
}

// dispatch handles one already-authenticated message, returning the
// response to send (nil for messages with no reply) and whether the
// connection should stay open.
func (s *Server) dispatch(msg Message) (Message, bool) {
	switch m := msg.(type) {
	case BindRequest:
		if _, ok := s.api.Bind(m.StopID); !ok {
			return BindResponse{Status: Err(2, "unknown stop id")}, true
		}
		return BindResponse{Status: Ok()}, true
	case GetPlansRequest:
		plans, err := s.api.GetPlans()
		if err != nil {
			return GetPlansResponse{Status: Err(3, err.Error())}, true
		}
		return GetPlansResponse{Status: Ok(), Plans: plans}, true
	case CreatePlanRequest:
		name, err := s.api.CreatePlan(m.Name, m.Text)
		if err != nil {
			return CreatePlanResponse{Status: Err(4, err.Error())}, true
		}
		return CreatePlanResponse{Status: Ok(), Name: name}, true
	case DeletePlanRequest:
		if err := s.api.DeletePlan(m.Name); err != nil {
			return DeletePlanResponse{Status: Err(5, err.Error())}, true
		}
		return DeletePlanResponse{Status: Ok()}, true
	case StartPlanRequest:
		if err := s.api.StartPlan(m.Name); err != nil {
			return StartPlanResponse{Status: Err(6, err.Error())}, true
		}
		return StartPlanResponse{Status: Ok()}, true
	case StopPlanRequest:
		if err := s.api.StopPlan(m.Name); err != nil {
			return StopPlanResponse{Status: Err(7, err.Error())}, true
		}
		return StopPlanResponse{Status: Ok()}, true
	case Train:
		fanout, ok := s.api.Bind(m.StopID)
		if !ok {
			log.Errorf("protocol: train for unbound stop %d dropped", m.StopID)
			return nil, true
		}
		fanout.Send(m.Train)
		return nil, true
	case Disconnect:
		return nil, false
	default:
		return nil, false
	}
}

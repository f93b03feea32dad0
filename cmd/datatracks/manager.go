// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/pkg/log"
	"github.com/railwire/datatracks/pkg/workerpool"
)

const planFileExt = ".plan"

// namedPlan is one CreatePlan's persisted text plus its live
// Deployment, once StartPlan has bound and launched it.
type namedPlan struct {
	text string
	dep  *plan.Deployment
}

// Manager owns every plan this process knows about and implements
// protocol.API, the way original_source's management::Storage holds a
// Ledger per plan id — generalized here to names, since the control
// protocol's CreatePlan/DeletePlan/StartPlan/StopPlan all address a
// plan by name rather than a numeric id.
type Manager struct {
	dir  string
	reg  plan.Registry
	pool *workerpool.Pool

	mu    sync.Mutex
	plans map[string]*namedPlan
}

// NewManager returns a Manager persisting plan text under dir.
func NewManager(dir string, reg plan.Registry, pool *workerpool.Pool) *Manager {
	return &Manager{dir: dir, reg: reg, pool: pool, plans: map[string]*namedPlan{}}
}

// Load reads every already-persisted plan file in dir. Plans are
// loaded but not started; a restart does not resume running plans.
func (m *Manager) Load() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("manager: read plan dir: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != planFileExt {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(m.dir, e.Name()))
		if err != nil {
			log.Errorf("manager: read %s: %v", e.Name(), err)
			continue
		}
		name := e.Name()[:len(e.Name())-len(planFileExt)]
		m.plans[name] = &namedPlan{text: string(raw)}
	}
	return nil
}

func (m *Manager) GetPlans() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.plans))
	for name := range m.plans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Manager) CreatePlan(name, text string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("manager: plan name must not be empty")
	}
	if _, err := plan.ParsePlan(text); err != nil {
		return "", fmt.Errorf("manager: parse plan: %w", err)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("manager: create plan dir: %w", err)
	}
	path := filepath.Join(m.dir, name+planFileExt)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("manager: write plan: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[name] = &namedPlan{text: text}
	return name, nil
}

func (m *Manager) DeletePlan(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	np, ok := m.plans[name]
	if !ok {
		return fmt.Errorf("manager: no plan named %q", name)
	}
	if np.dep != nil {
		if err := np.dep.Stop(); err != nil {
			log.Errorf("manager: stop %q during delete: %v", name, err)
		}
	}
	delete(m.plans, name)
	return os.Remove(filepath.Join(m.dir, name+planFileExt))
}

func (m *Manager) StartPlan(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	np, ok := m.plans[name]
	if !ok {
		return fmt.Errorf("manager: no plan named %q", name)
	}
	if np.dep != nil {
		return fmt.Errorf("manager: plan %q already running", name)
	}

	p, err := plan.ParsePlan(np.text)
	if err != nil {
		return fmt.Errorf("manager: parse plan %q: %w", name, err)
	}
	dep := plan.Deploy(p, m.pool)
	if err := dep.Bind(m.reg); err != nil {
		return fmt.Errorf("manager: bind plan %q: %w", name, err)
	}
	if err := dep.Start(); err != nil {
		return fmt.Errorf("manager: start plan %q: %w", name, err)
	}
	np.dep = dep
	return nil
}

func (m *Manager) StopPlan(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	np, ok := m.plans[name]
	if !ok {
		return fmt.Errorf("manager: no plan named %q", name)
	}
	if np.dep == nil {
		return fmt.Errorf("manager: plan %q is not running", name)
	}
	err := np.dep.Stop()
	np.dep = nil
	return err
}

// Bind satisfies protocol.API: it resolves stopID against every
// currently running plan's bound In-line fanouts.
func (m *Manager) Bind(stopID int) (plan.MultiSender, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, np := range m.plans {
		if np.dep == nil {
			continue
		}
		if fanout, ok := np.dep.Bound(stopID); ok {
			return fanout, true
		}
	}
	return nil, false
}

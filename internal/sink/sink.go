// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sink implements the concrete output drivers bound to a
// plan's `Out` stops (§6's Destination contract): S3, MongoDB, and an
// in-memory driver used in tests. Every driver shares one
// write-with-retry loop so a transient backend error doesn't drop a
// Train outright.
package sink

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/log"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// RetryPolicy bounds how a destination retries a failed write: a rate
// limiter paces retry attempts (so a persistently down backend doesn't
// spin), MaxAttempts caps the total tries before the Train is dropped.
type RetryPolicy struct {
	Limiter     *rate.Limiter
	MaxAttempts int
}

// DefaultRetryPolicy allows one write per 100ms, up to 5 attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1), MaxAttempts: 5}
}

// drainToDestination runs until meta.ShouldStop(), writing every Train
// from in via write, retrying per policy, logging and dropping a Train
// that exhausts its attempts.
func drainToDestination(meta *workerpool.Meta, in *channel.Single[*value.Train], name string, write func(*value.Train) error, policy RetryPolicy) {
	for {
		if meta.ShouldStop() {
			return
		}
		tr, ok := in.TryRecv()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		if err := writeWithRetry(tr, write, policy); err != nil {
			log.Errorf("sink: %s dropped a train after %d attempts: %v", name, policy.MaxAttempts, err)
		}
	}
}

func writeWithRetry(tr *value.Train, write func(*value.Train) error, policy RetryPolicy) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 && policy.Limiter != nil {
			policy.Limiter.Wait(context.Background())
		}
		if err = write(tr); err == nil {
			return nil
		}
	}
	return err
}

// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sink

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/railwire/datatracks/pkg/value"
)

func TestWriteWithRetrySucceedsEventually(t *testing.T) {
	attempts := 0
	write := func(tr *value.Train) error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	}
	policy := RetryPolicy{Limiter: rate.NewLimiter(rate.Inf, 1), MaxAttempts: 5}

	err := writeWithRetry(&value.Train{}, write, policy)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWriteWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	write := func(tr *value.Train) error {
		attempts++
		return fmt.Errorf("permanent")
	}
	policy := RetryPolicy{Limiter: rate.NewLimiter(rate.Inf, 1), MaxAttempts: 3}

	err := writeWithRetry(&value.Train{}, write, policy)
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWriteWithRetryZeroAttemptsStillTriesOnce(t *testing.T) {
	attempts := 0
	write := func(tr *value.Train) error {
		attempts++
		return nil
	}

	err := writeWithRetry(&value.Train{}, write, RetryPolicy{})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDefaultRetryPolicyAllowsFiveAttempts(t *testing.T) {
	assert.Equal(t, 5, DefaultRetryPolicy().MaxAttempts)
}

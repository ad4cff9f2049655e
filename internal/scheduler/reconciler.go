/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"marketplace-wallet-go/internal/api"
	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/wallet"

	"go.uber.org/zap"
)

// Target is the slice of the wallet service the reconciler drives.
type Target interface {
	ReconcileAll(ctx context.Context) (*api.ReconcileSummary, error)
	GetMonthlyPoolSnapshot(ctx context.Context) (*models.PoolSnapshot, error)
	Window() wallet.Window
}

// ReconcilerConfig contains configuration for Reconciler
type ReconcilerConfig struct {
	Target   Target
	Clock    clock.Clock
	Interval time.Duration
}

// Reconciler periodically settles cashback for every paid account and reports
// the month's withdrawal pool.
type Reconciler struct {
	target   Target
	clock    clock.Clock
	interval time.Duration
	passes   atomic.Int64

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &Reconciler{
		target:   cfg.Target,
		clock:    cfg.Clock,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start runs one pass immediately and then one per interval until Stop is
// called or ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	zap.L().Info("Starting cashback reconciler", zap.Duration("interval", r.interval))
	go r.loop(ctx)
}

// Stop gracefully stops the reconciler
func (r *Reconciler) Stop() {
	zap.L().Info("Stopping cashback reconciler")
	close(r.stopChan)
	<-r.doneChan
	zap.L().Info("Cashback reconciler stopped", zap.Int64("passes", r.passes.Load()))
}

// Passes returns the number of completed passes.
func (r *Reconciler) Passes() int64 { return r.passes.Load() }

func (r *Reconciler) loop(ctx context.Context) {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ANSI color helpers for console output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// RunOnce performs a single reconciliation pass.
func (r *Reconciler) RunOnce(ctx context.Context) {
	defer r.passes.Add(1)
	now := r.clock.Now()

	fmt.Printf("\n%s[%s] Reconciling cashback%s\n", colorCyan, now.Format("15:04:05"), colorReset)

	summary, err := r.target.ReconcileAll(ctx)
	if err != nil {
		fmt.Printf("  %s✗ reconciliation aborted: %s%s\n", colorRed, err, colorReset)
		zap.L().Error("Reconciliation pass failed", zap.Error(err))
		return
	}
	color := colorGreen
	if summary.Failed > 0 {
		color = colorYellow
	}
	fmt.Printf("  %s✓ %d accounts, %d reconciled, %d failed%s\n",
		color, summary.Accounts, summary.Reconciled, summary.Failed, colorReset)

	pool, err := r.target.GetMonthlyPoolSnapshot(ctx)
	if err != nil {
		zap.L().Warn("Pool snapshot failed", zap.Error(err))
		return
	}

	window := r.target.Window()
	state := "closed, next " + window.NextOpen(now).Format("2006-01-02")
	if window.Open(now) {
		state = "open"
	}
	fmt.Printf("  pool %s: %d total, %d withdrawn, %d remaining (window %s)\n",
		pool.Month, pool.TotalPool, pool.Withdrawn, pool.Remaining, state)

	zap.L().Info("Monthly pool",
		zap.String("month", pool.Month),
		zap.Int64("total_pool", pool.TotalPool),
		zap.Int64("withdrawn", pool.Withdrawn),
		zap.Int64("remaining", pool.Remaining),
		zap.Int("eligible_users", pool.EligibleUserCount),
		zap.Bool("window_open", window.Open(now)))
}

// Copyright ©2019 The Gonum Authors. All rights reserved.
// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package blockbench measures matrix-product throughput across cache
// blocking sizes.
//
// A run generates a list of trials, one per problem size and blocking,
// repeated a few times. The Scheduler measures them in shuffled order with
// the AdaptiveTimer, which doubles the batch length until a batch takes long
// enough to time reliably, while a ClockProbe re-measures a small
// cache-resident product every minute. Trials measured while the clock
// speed was off are discarded and measured again. Reduce then keeps the best
// sample of every configuration.
//
// Problem and block sizes are powers of two and are identified by a SizeKey,
// a 12-bit packing of their base-2 logarithms whose integer order matches
// the lexicographic order of the sizes.
//
// The kernel under test is anything implementing Kernel; the compute
// sub-package provides a blocked SGEMM built on the gonum BLAS.
package blockbench

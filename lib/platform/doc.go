// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package platform is the root object agent containers run on. A
// Platform pairs one [engine.Engine] (real-time or simulated) with an
// ordered registry of containers, and carries the network identity
// (hostname, port, bound interface) that transport layers advertise.
//
// Typical lifecycle:
//
//	p, err := platform.New(platform.Config{
//	    Engine: engine.NewRealtime(engine.RealtimeConfig{Logger: logger}),
//	    Logger: logger,
//	})
//	p.AddContainer(agents)
//	p.AddContainer(gateway)
//	if err := p.Start(ctx); err != nil {
//	    // one or more containers failed; the rest were still started
//	}
//	...
//	p.Shutdown(ctx)
//
// Bulk operations visit containers in registration order and never
// stop at the first failure. Their errors are joined
// [*ContainerError] values; [ContainerErrors] extracts them.
//
// The platform holds non-owning references: it drives Start, Shutdown
// and IsRunning and nothing else.
package platform

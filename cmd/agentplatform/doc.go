// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// agentplatform runs an agent platform from a configuration file.
//
// Commands:
//
//	run        start the configured platform until signalled or until
//	           engine.duration elapses
//	simulate   run the configuration on the simulated engine and print
//	           the dispatch trace digest
//	trace      verify or dump recorded dispatch traces
//	hostname   print the address the platform would advertise
//	version    print build metadata
//
// The configured containers are heartbeat containers: each reschedules
// one task per period on the platform's engine, which makes a
// simulated run's dispatch order easy to reason about and compare.
package main

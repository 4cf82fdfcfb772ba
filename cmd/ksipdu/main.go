/*
 * Copyright 2020 Guardtime, Inc.
 *
 * This file is part of the Guardtime client SDK.
 *
 * Licensed under the Apache License, Version 2.0 (the "License").
 * You may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *     http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES, CONDITIONS, OR OTHER LICENSES OF ANY KIND, either
 * express or implied. See the License for the specific language governing
 * permissions and limitations under the License.
 * "Guardtime" and "KSI" are trademarks or registered trademarks of
 * Guardtime, Inc., and no license to trademarks is granted; Guardtime
 * reserves and retains all trademark rights.
 */

// Command ksipdu builds and reads KSI aggregation and extension PDUs and exchanges them with live KSI services.
//
// Usage:
//
//	ksipdu aggr-req --hash SHA-256:<hex> [--level N]
//	ksipdu ext-req --aggr-time UNIX [--pub-time UNIX]
//	ksipdu read-aggr|read-ext [--request-id N] FILE
//	ksipdu sign --hash SHA-256:<hex>
//	ksipdu extend --aggr-time UNIX [--pub-time UNIX]
//	ksipdu config aggr|ext
//
// The service endpoints and credentials are read from the TOML file given by --config, see package config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	err := a.root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

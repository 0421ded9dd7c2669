// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package defaults

import "time"

// Pipeline step timeouts.
const (
	// ResolveTimeout bounds dependency resolution, including registry pulls.
	ResolveTimeout = 5 * time.Minute

	// ImportTimeout bounds staging headers into the resource folder.
	ImportTimeout = 2 * time.Minute

	// BuildTimeout bounds the external native build invocation.
	BuildTimeout = 30 * time.Minute

	// PublishTimeout bounds packaging and pushing the OCI artifact.
	PublishTimeout = 5 * time.Minute
)

// Import limits.
const (
	// ImportConcurrency is the default number of concurrent file copies.
	ImportConcurrency = 8

	// MaxImportConcurrency caps user-provided concurrency.
	MaxImportConcurrency = 64
)

// HTTP client timeouts for registry requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 60 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 10 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 30 * time.Second
)

// Copyright 2025 CostPilot
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

/*
Package logger provides structured JSON logging with per-account context.

Each entry is a single JSON line on stdout carrying a timestamp, level,
component name, instance and container identifiers, the tenant account id,
an optional request id, and free-form fields, so log aggregation can slice
by tenant without parsing messages.

Create a logger per component and pass the account and request ids on each
call:

	log := logger.New("report")
	log.Info("111122223333", "req-456", "batch dispatched", map[string]interface{}{
	    "batch_id": batchID,
	})

The INSTANCE_ID environment variable names the deployment instance; the
container name is taken from the hostname. Logger instances are safe for
concurrent use.
*/
package logger

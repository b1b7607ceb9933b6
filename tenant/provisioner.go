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

package tenant

import "context"

// Provisioner pairs directory resolution with database provisioning so the
// signup flow can go from an email straight to a ready tenant database.
type Provisioner struct {
	*Resolver
	store *Store
}

// NewProvisioner creates a provisioner over a resolver and a store
func NewProvisioner(resolver *Resolver, store *Store) *Provisioner {
	return &Provisioner{Resolver: resolver, store: store}
}

// Provision creates and migrates the account's summary database
func (p *Provisioner) Provision(ctx context.Context, accountID string) error {
	return p.store.Provision(ctx, accountID)
}

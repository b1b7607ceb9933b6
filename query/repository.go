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

package query

import "context"

// Repository defines the interface for template persistence
type Repository interface {
	Create(ctx context.Context, tmpl *Template) error
	CreateMany(ctx context.Context, tmpls []*Template) error
	Update(ctx context.Context, tmpl *Template) error
	Get(ctx context.Context, id int) (*Template, error)
	GetByIDs(ctx context.Context, ids []int) ([]Template, error)
	GetByCategory(ctx context.Context, category string) ([]Template, error)
	GetAll(ctx context.Context) ([]Template, error)
	List(ctx context.Context, opts ListOptions) ([]Template, int, error)
	Delete(ctx context.Context, id int) error
}

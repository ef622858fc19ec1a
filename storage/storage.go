/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package storage persists libraries by namespace.
package storage

import (
	"context"
	"errors"

	"github.com/Comcast/estructura/core"
	"github.com/Comcast/estructura/library"
)

// NotFound is returned by Get for a library that isn't there.
var NotFound = errors.New("library not found")

// Storage is a persistence interface for libraries.
//
// Libraries are grouped by the name of the namespace they're for
// (see library.Library.Namespace).
type Storage interface {
	Put(ctx context.Context, lib *library.Library) error

	Get(ctx context.Context, ns, name string) (*library.Library, error)

	// List returns the libraries for the namespace ordered by
	// name.
	List(ctx context.Context, ns string) ([]*library.Library, error)

	Delete(ctx context.Context, ns, name string) error
}

// Load compiles the namespace's stored libraries and applies them to
// the namespace from nss.  Libraries are applied in name order.
func Load(ctx context.Context, s Storage, nss *core.Namespaces, ns string, interpreters core.InterpretersMap) (*core.Namespace, error) {
	libs, err := s.List(ctx, ns)
	if err != nil {
		return nil, err
	}
	target := nss.Get(ns)
	for _, lib := range libs {
		c, err := lib.Compile(ctx, interpreters)
		if err != nil {
			return nil, err
		}
		c.Apply(target)
	}
	return target, nil
}

/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package inventory

import "context"

//go:generate mockgen -destination=mock_inventory.go -package=inventory github.com/carverauto/airwave/pkg/inventory ReverseResolver

// ReverseResolver maps an IP address back to a host name (PTR lookup). Any
// error is treated by the indexer as "no PTR record".
type ReverseResolver interface {
	LookupPTR(ctx context.Context, ip string) (string, error)
}

// ResolverFunc adapts a function to ReverseResolver.
type ResolverFunc func(ctx context.Context, ip string) (string, error)

func (f ResolverFunc) LookupPTR(ctx context.Context, ip string) (string, error) {
	return f(ctx, ip)
}

// noPTR is used when the indexer is built without a resolver.
var noPTR = ResolverFunc(func(context.Context, string) (string, error) {
	return "", nil
})

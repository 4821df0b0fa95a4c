// Copyright 2025 The geosurf Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package surf

import "errors"

// Every failure of a boolean operation wraps one of these sentinels.
// Use errors.Is to classify.
var (
	// ErrEqualCaptPoints is returned when sanitizing could not separate
	// coincident capture candidates on the two inputs.
	ErrEqualCaptPoints = errors.New("surf: cannot separate equal capture points")

	// ErrContactFailed is returned on an internal failure of the
	// intersection engine.
	ErrContactFailed = errors.New("surf: contact failed")

	// ErrNoContact is returned when the contact curve is empty, either
	// initially or after degenerate strips have been discarded.
	ErrNoContact = errors.New("surf: no contact")

	// ErrLineEndDegree1 is returned when a contact point has a single
	// neighbor. The surfaces touch without crossing.
	ErrLineEndDegree1 = errors.New("surf: contact line-end with one neighbor")

	// ErrCollapsedCutPoints is returned when two distinct contact points
	// on the same face snap to the same coordinate.
	ErrCollapsedCutPoints = errors.New("surf: collapsed cut points")

	// ErrStripsCross is returned when the assembled strips of a face
	// intersect each other in the face plane.
	ErrStripsCross = errors.New("surf: strips cross")

	// ErrBranchedOnBothEnds is returned when a strip is branched at both
	// endpoints.
	ErrBranchedOnBothEnds = errors.New("surf: strip branched on both ends")

	// ErrCutFailed is returned when a face cannot be decomposed along its
	// strips, usually because a hole cannot be spliced in.
	ErrCutFailed = errors.New("surf: cut failed")

	// ErrRegionClassifyFailed is returned when a contact segment cannot
	// locate its two supporting faces on both surfaces.
	ErrRegionClassifyFailed = errors.New("surf: region classification failed")
)

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

// Package surf computes boolean set operations between pairs of closed,
// oriented polygonal surfaces: union, intersection and the two
// asymmetric differences, together with the curve where the surfaces
// cross.
//
// The surfaces are cut along their intersection curve, every connected
// component of the cut surfaces is classified against the other surface,
// and the components selected by the operation are assembled into the
// result. The computation runs in standard floating point under fixed
// tolerances; inputs must be two-manifold and free of
// self-intersections.
package surf

import "fmt"

// OpMode selects the boolean combination.
type OpMode int

const (
	// OpUnion keeps everything outside the other surface.
	OpUnion OpMode = iota
	// OpIntersection keeps everything inside the other surface.
	OpIntersection
	// OpDifference computes A minus B: the parts of A outside B, closed
	// by the parts of B inside A with their orientation reversed.
	OpDifference
	// OpDifference2 computes B minus A: the parts of B outside A, closed
	// by the parts of A inside B with their orientation reversed.
	OpDifference2
	// OpNone cuts both surfaces but combines nothing.
	OpNone
)

// Result holds the output of a boolean operation.
type Result struct {
	// Mesh is the combined surface. It carries OrigCellIdsA and
	// OrigCellIdsB and the per-face user data of the inputs. Nil when
	// the operation mode is OpNone.
	Mesh *Mesh

	// MeshA and MeshB are the two cut surfaces. Set only for OpNone.
	MeshA, MeshB *Mesh

	// Contact is the intersection curve between the inputs.
	Contact *ContactCurve
}

// BooleanOperation combines two surfaces. The zero value computes a
// union.
type BooleanOperation struct {
	Mode OpMode
}

// NewBooleanOperation creates an operation with the given mode.
func NewBooleanOperation(mode OpMode) *BooleanOperation {
	return &BooleanOperation{Mode: mode}
}

// Boolean computes the boolean combination of two surfaces. It is
// shorthand for NewBooleanOperation(mode).Execute(pdA, pdB).
func Boolean(pdA, pdB *Mesh, mode OpMode) (*Result, error) {
	return NewBooleanOperation(mode).Execute(pdA, pdB)
}

// Execute runs the pipeline on the two input surfaces. The inputs are
// not mutated. On failure nothing is returned besides the error.
func (op *BooleanOperation) Execute(pdA, pdB *Mesh) (*Result, error) {
	modA := clean(pdA)
	modB := clean(pdB)

	if err := preventEqualCaptPoints(modA, modB); err != nil {
		return nil, err
	}

	curve, err := contact(modA, modB)
	if err != nil {
		return nil, err
	}

	psA, err := getPolyStrips(modA, curve, true)
	if err != nil {
		return nil, err
	}
	psB, err := getPolyStrips(modB, curve, false)
	if err != nil {
		return nil, err
	}

	if err := cleanStrips(curve, psA, psB); err != nil {
		return nil, err
	}

	if err := cutCells(modA, psA); err != nil {
		return nil, err
	}
	if err := cutCells(modB, psB); err != nil {
		return nil, err
	}

	restoreOrigPoints(modA, psA)
	restoreOrigPoints(modB, psB)

	resolveOverlaps(modA, curve, psA)
	resolveOverlaps(modB, curve, psB)

	addAdjacentPoints(modA, curve, curve.FaceA, psA)
	addAdjacentPoints(modB, curve, curve.FaceB, psB)

	disjoinPolys(modA, psA)
	disjoinPolys(modB, psB)

	mergePoints(modA, curve, psA)
	mergePoints(modB, curve, psB)

	resMesh, resB, err := combineRegions(modA, modB, pdA, pdB, curve, op.Mode)
	if err != nil {
		return nil, fmt.Errorf("combine %v: %w", op.Mode, err)
	}

	curve.removeDeletedSegments()

	if op.Mode == OpNone {
		return &Result{MeshA: resMesh, MeshB: resB, Contact: curve}, nil
	}
	return &Result{Mesh: resMesh, Contact: curve}, nil
}

// String implements fmt.Stringer for error context.
func (m OpMode) String() string {
	switch m {
	case OpUnion:
		return "union"
	case OpIntersection:
		return "intersection"
	case OpDifference:
		return "difference"
	case OpDifference2:
		return "difference2"
	case OpNone:
		return "none"
	}
	return fmt.Sprintf("OpMode(%d)", int(m))
}

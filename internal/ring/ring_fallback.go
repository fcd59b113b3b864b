// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

//go:build !linux

package ring

// allocateMirror falls back to a plain capacity-length slice on
// platforms without a cheap double-mapping primitive, per spec §9's
// portability fallback note. Buffer.Write/Read index modulo capacity,
// and copyIn/copyOut in ring.go split wrap-straddling accesses into two
// copies, so no mirror mapping is needed here.
func allocateMirror(capacity uint64) ([]byte, error) {
	return make([]byte, capacity), nil
}

// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

//go:build linux

package ring

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// allocateMirror implements spec §4.9's POSIX recipe: create an
// anonymous memory file sized to capacity, reserve a 2*capacity address
// range, then map the same file twice into that range (MAP_FIXED) so
// the upper half aliases the lower half. A write that straddles the
// wrap point then lands correctly without the caller ever splitting it.
func allocateMirror(capacity uint64) ([]byte, error) {
	fd, err := unix.MemfdCreate("audiocore-ring", 0)
	if err != nil {
		return nil, fmt.Errorf("ring: memfd_create: %w", err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(capacity)); err != nil {
		return nil, fmt.Errorf("ring: ftruncate: %w", err)
	}

	base, err := unix.Mmap(-1, 0, int(2*capacity), unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("ring: reserve address space: %w", err)
	}
	baseAddr := uintptr(unsafe.Pointer(&base[0]))

	if err := mmapFixedAt(fd, baseAddr, capacity); err != nil {
		_ = unix.Munmap(base)
		return nil, err
	}
	if err := mmapFixedAt(fd, baseAddr+uintptr(capacity), capacity); err != nil {
		_ = unix.Munmap(base)
		return nil, err
	}

	return base, nil
}

// mmapFixedAt maps fd's first n bytes at the exact virtual address addr,
// overwriting the PROT_NONE placeholder reserved there. golang.org/x/sys/
// unix's Mmap wrapper always lets the kernel choose the address, so this
// goes through the raw mmap(2) syscall directly, the same way the
// original's POSIX mmap(addr, ..., MAP_FIXED, ...) call works.
func mmapFixedAt(fd int, addr uintptr, n uint64) error {
	_, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		addr,
		uintptr(n),
		uintptr(unix.PROT_READ|unix.PROT_WRITE),
		uintptr(unix.MAP_SHARED|unix.MAP_FIXED),
		uintptr(fd),
		0,
	)
	if errno != 0 {
		return fmt.Errorf("ring: mmap fixed at %#x: %w", addr, errno)
	}
	return nil
}

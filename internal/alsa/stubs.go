// ABOUTME: Stub implementations for every libasound entry point
// ABOUTME: Installed before Load and whenever binding fails, so no pointer is ever nil

//go:build linux

package alsa

import "unsafe"

// Library-not-loaded stubs. Each fails with -ENODEV so callers see an
// ordinary open/write failure instead of a crash.

func stubOpen(h *uintptr, name string, stream, mode int32) int32 {
	return -int32(ENODEV)
}

func stubSetParams(h uintptr, format, access int32, channels, rate uint32, soft int32, latencyUs uint32) int32 {
	return -int32(ENODEV)
}

func stubGetParams(h uintptr, bufferFrames, periodFrames *uint64) int32 {
	return -int32(ENODEV)
}

func stubWritei(h uintptr, buf unsafe.Pointer, frames uint64) int64 {
	return -int64(ENODEV)
}

func stubDelay(h uintptr, frames *int64) int32 {
	return -int32(ENODEV)
}

func stubAvailUpdate(h uintptr) int64 {
	return -int64(ENODEV)
}

func stubRecover(h uintptr, errno, silent int32) int32 {
	return -int32(ENODEV)
}

func stubPcmOp(h uintptr) int32 {
	return -int32(ENODEV)
}

func stubStrerror(code int32) string {
	return "ALSA library not loaded"
}

// Reduced-functionality fallbacks, installed when the library loaded but an
// optional symbol is missing.

// zeroGetParams reports the capability as unimplemented; the stream layer
// then falls back to the requested size.
func zeroGetParams(h uintptr, bufferFrames, periodFrames *uint64) int32 {
	return -int32(ENOSYS)
}

// zeroDelay reads as zero queued frames.
func zeroDelay(h uintptr, frames *int64) int32 {
	*frames = 0
	return 0
}

// zeroAvailUpdate reads as zero free space, which schedules no writes.
func zeroAvailUpdate(h uintptr) int64 {
	return 0
}

// zeroRecover hands the original error back unrecovered.
func zeroRecover(h uintptr, errno, silent int32) int32 {
	return errno
}

// zeroPcmOp succeeds without doing anything.
func zeroPcmOp(h uintptr) int32 {
	return 0
}

func zeroStrerror(code int32) string {
	return "ALSA error"
}

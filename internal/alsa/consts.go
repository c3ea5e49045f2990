// ABOUTME: ALSA constants and errno values used by the binding
// ABOUTME: Values mirror the SNDRV_PCM_* kernel headers

//go:build linux

package alsa

// Sample formats (SNDRV_PCM_FORMAT_*).
const (
	FormatS16LE int32 = 2
)

// Access modes (SNDRV_PCM_ACCESS_*).
const (
	AccessRWInterleaved int32 = 3
)

// snd_pcm_stream_t
const (
	streamPlayback int32 = 0
)

// Errno is a negative libasound return code, stored positive.
type Errno int32

// Linux errno values surfaced by libasound.
const (
	ENOENT   Errno = 2  // no such device name
	EAGAIN   Errno = 11 // device busy, try again
	ENODEV   Errno = 19 // no device / library not loaded
	EPIPE    Errno = 32 // underrun
	ENOSYS   Errno = 38 // entry point unavailable
	EBADFD   Errno = 77 // stream in wrong state
	ESTRPIPE Errno = 86 // hardware suspended
)

func (e Errno) Error() string {
	return Strerror(e)
}

// IsUnderrun reports whether the code is the underrun indication.
func (e Errno) IsUnderrun() bool {
	return e == EPIPE
}

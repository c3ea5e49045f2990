// ABOUTME: ALSA opener placeholder for non-Linux platforms
// ABOUTME: Reports the device as unavailable so callers take the fallback path

//go:build !linux

package device

// OpenALSA always fails off Linux; callers fall back to the oto backend or
// run without audio.
func OpenALSA(req Request) (Device, error) {
	return nil, ErrUnavailable
}

// ABOUTME: Runtime libasound binding resolved with purego
// ABOUTME: Every entry point defaults to a safe stub when the library is absent

//go:build linux

package alsa

import (
	"log"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Handle is an opaque snd_pcm_t pointer.
type Handle uintptr

// Function table. Every variable is initialized to a stub so callers never
// observe a nil function, only stub-or-real.
var (
	sndPcmOpen        = stubOpen
	sndPcmSetParams   = stubSetParams
	sndPcmGetParams   = stubGetParams
	sndPcmWritei      = stubWritei
	sndPcmDelay       = stubDelay
	sndPcmAvailUpdate = stubAvailUpdate
	sndPcmRecover     = stubRecover
	sndPcmPrepare     = stubPcmOp
	sndPcmStart       = stubPcmOp
	sndPcmDrop        = stubPcmOp
	sndPcmClose       = stubPcmOp
	sndStrerror       = stubStrerror
)

var (
	loadOnce sync.Once
	loaded   bool
)

// candidate shared object names, tried in order
var libNames = []string{"libasound.so.2", "libasound.so"}

// Load resolves the libasound entry points. It is safe to call more than
// once; only the first call does work. Callers detect availability through a
// later open failure, not by inspecting the binding.
func Load() {
	loadOnce.Do(load)
}

// Loaded reports whether the real library is bound. Informational only;
// callers must still handle open failure.
func Loaded() bool {
	return loaded
}

func load() {
	var lib uintptr
	var err error
	for _, name := range libNames {
		lib, err = purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			break
		}
		lib = 0
	}
	if lib == 0 {
		log.Printf("ALSA unavailable: %v (audio disabled)", err)
		return
	}

	// Critical subset. If any of these is missing the binding is useless,
	// so leave every entry as a stub rather than expose a partial table.
	critical := []bool{
		register(lib, "snd_pcm_open", &sndPcmOpen),
		register(lib, "snd_pcm_set_params", &sndPcmSetParams),
		register(lib, "snd_pcm_writei", &sndPcmWritei),
	}
	for _, ok := range critical {
		if !ok {
			log.Printf("ALSA binding incomplete, reverting to stubs")
			unbind()
			return
		}
	}

	// Optional entry points. A miss degrades one capability, not the whole
	// subsystem: a missing delay query reads as zero queued frames.
	if !register(lib, "snd_pcm_get_params", &sndPcmGetParams) {
		log.Printf("ALSA: snd_pcm_get_params missing, assuming requested buffer size")
		sndPcmGetParams = zeroGetParams
	}
	if !register(lib, "snd_pcm_delay", &sndPcmDelay) {
		log.Printf("ALSA: snd_pcm_delay missing, assuming zero queued delay")
		sndPcmDelay = zeroDelay
	}
	if !register(lib, "snd_pcm_avail_update", &sndPcmAvailUpdate) {
		log.Printf("ALSA: snd_pcm_avail_update missing, assuming zero free space")
		sndPcmAvailUpdate = zeroAvailUpdate
	}
	if !register(lib, "snd_pcm_recover", &sndPcmRecover) {
		log.Printf("ALSA: snd_pcm_recover missing, recovery disabled")
		sndPcmRecover = zeroRecover
	}
	if !register(lib, "snd_pcm_prepare", &sndPcmPrepare) {
		sndPcmPrepare = zeroPcmOp
	}
	if !register(lib, "snd_pcm_start", &sndPcmStart) {
		sndPcmStart = zeroPcmOp
	}
	if !register(lib, "snd_pcm_drop", &sndPcmDrop) {
		sndPcmDrop = zeroPcmOp
	}
	if !register(lib, "snd_pcm_close", &sndPcmClose) {
		sndPcmClose = zeroPcmOp
	}
	if !register(lib, "snd_strerror", &sndStrerror) {
		sndStrerror = zeroStrerror
	}

	loaded = true
	log.Printf("ALSA bound")
}

// register resolves one symbol into fn. fn keeps its previous (stub) value
// when the symbol is missing.
func register[T any](lib uintptr, name string, fn *T) bool {
	sym, err := purego.Dlsym(lib, name)
	if err != nil || sym == 0 {
		return false
	}
	purego.RegisterFunc(fn, sym)
	return true
}

// unbind resets the whole table to the library-not-loaded stubs.
func unbind() {
	sndPcmOpen = stubOpen
	sndPcmSetParams = stubSetParams
	sndPcmGetParams = stubGetParams
	sndPcmWritei = stubWritei
	sndPcmDelay = stubDelay
	sndPcmAvailUpdate = stubAvailUpdate
	sndPcmRecover = stubRecover
	sndPcmPrepare = stubPcmOp
	sndPcmStart = stubPcmOp
	sndPcmDrop = stubPcmOp
	sndPcmClose = stubPcmOp
	sndStrerror = stubStrerror
	loaded = false
}

// Open opens a playback PCM by name ("default", "plughw:0,0", ...).
func Open(name string) (Handle, error) {
	var h uintptr
	if rc := sndPcmOpen(&h, name, streamPlayback, 0); rc < 0 {
		return 0, Errno(-rc)
	}
	return Handle(h), nil
}

// SetParams configures format, access, channels, rate, soft resampling and
// the requested latency in microseconds, in one call.
func SetParams(h Handle, format, access int32, channels, rate uint32, softResample bool, latencyUs uint32) error {
	var soft int32
	if softResample {
		soft = 1
	}
	if rc := sndPcmSetParams(uintptr(h), format, access, channels, rate, soft, latencyUs); rc < 0 {
		return Errno(-rc)
	}
	return nil
}

// GetParams reads back the buffer and period sizes the device actually
// granted. The device is free to grant less than requested.
func GetParams(h Handle) (bufferFrames, periodFrames int, err error) {
	var buf, period uint64
	if rc := sndPcmGetParams(uintptr(h), &buf, &period); rc < 0 {
		return 0, 0, Errno(-rc)
	}
	return int(buf), int(period), nil
}

// WriteInterleaved hands frames of interleaved samples to the device and
// returns the number of frames it accepted. Partial writes are normal.
func WriteInterleaved(h Handle, buf []byte, frames int) (int, error) {
	if frames == 0 {
		return 0, nil
	}
	n := sndPcmWritei(uintptr(h), unsafe.Pointer(&buf[0]), uint64(frames))
	if n < 0 {
		return 0, Errno(-n)
	}
	return int(n), nil
}

// Delay returns the number of frames queued in the device ahead of the
// playback position.
func Delay(h Handle) (int, error) {
	var frames int64
	if rc := sndPcmDelay(uintptr(h), &frames); rc < 0 {
		return 0, Errno(-rc)
	}
	if frames < 0 {
		frames = 0
	}
	return int(frames), nil
}

// AvailUpdate returns the number of frames of free space in the device
// buffer.
func AvailUpdate(h Handle) (int, error) {
	n := sndPcmAvailUpdate(uintptr(h))
	if n < 0 {
		return 0, Errno(-n)
	}
	return int(n), nil
}

// Recover attempts device-level recovery from the given error.
func Recover(h Handle, errno Errno) error {
	if rc := sndPcmRecover(uintptr(h), -int32(errno), 1); rc < 0 {
		return Errno(-rc)
	}
	return nil
}

// Prepare resets the device into a writable state.
func Prepare(h Handle) error {
	if rc := sndPcmPrepare(uintptr(h)); rc < 0 {
		return Errno(-rc)
	}
	return nil
}

// Start begins playback of queued frames.
func Start(h Handle) error {
	if rc := sndPcmStart(uintptr(h)); rc < 0 {
		return Errno(-rc)
	}
	return nil
}

// Drop discards queued frames without playing them.
func Drop(h Handle) error {
	if rc := sndPcmDrop(uintptr(h)); rc < 0 {
		return Errno(-rc)
	}
	return nil
}

// Close releases the device handle.
func Close(h Handle) error {
	if rc := sndPcmClose(uintptr(h)); rc < 0 {
		return Errno(-rc)
	}
	return nil
}

// Strerror returns libasound's message for an Errno.
func Strerror(e Errno) string {
	return sndStrerror(-int32(e))
}

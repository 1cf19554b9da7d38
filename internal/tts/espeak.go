package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

static int
espeak_init(void)
{
	return espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0);
}

static int
espeak_say(const char *text, const char *lang, int rate, int volume)
{
	if (!text || !lang)
	{ return -1; }

	espeak_VOICE specs = { .languages = lang };
	if (espeak_SetVoiceByProperties(&specs) != EE_OK)
	{ return -2; }

	espeak_SetParameter(espeakRATE, rate, 0);
	espeak_SetParameter(espeakVOLUME, volume, 0);

	if (espeak_Synth(text, 0, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL) != EE_OK)
	{ return -3; }
	espeak_Synchronize();

	return 0;
}

static void
espeak_stop(void)
{
	espeak_Cancel();
}

static void
espeak_close(void)
{
	espeak_Terminate();
}
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"jarvis/internal/jarvis"
)

// Espeak speaks through libespeak-ng. The library keeps global state, so
// only one Espeak should exist per process.
type Espeak struct {
	mu     sync.Mutex
	lang   string
	rate   int
	volume int
}

// NewEspeak takes the words-per-minute rate and a volume in [0,1].
func NewEspeak(lang string, rate int, volume float64) (*Espeak, error) {
	if rc := C.espeak_init(); rc < 0 {
		return nil, fmt.Errorf("espeak init failed: %d", int(rc))
	}
	if lang == "" {
		lang = "es"
	}
	return &Espeak{lang: lang, rate: rate, volume: int(volume * 100)}, nil
}

func (e *Espeak) Speak(ctx context.Context, r jarvis.Response) error {
	if r.Text == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ctext := C.CString(r.Text)
	defer C.free(unsafe.Pointer(ctext))
	clang := C.CString(e.lang)
	defer C.free(unsafe.Pointer(clang))

	stop := context.AfterFunc(ctx, func() { C.espeak_stop() })
	defer stop()

	rc := C.espeak_say(ctext, clang, C.int(e.rate), C.int(e.volume))
	if rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}
	return ctx.Err()
}

func (e *Espeak) Close() error {
	C.espeak_close()
	return nil
}

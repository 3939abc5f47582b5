package registry

import "github.com/odiadev/naijatts/internal/speech/engine"

// TTS is the process-wide TTS backend registry. Backends add themselves
// from init().
var TTS = New[engine.TTSEngine]()

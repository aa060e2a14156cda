package dashscope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/febilly/kikitan-translator/pkg/audio"
	"github.com/febilly/kikitan-translator/pkg/errorsx"
)

// Client event types understood by the realtime endpoint.
const (
	typeSessionUpdate = "session.update"
	typeAudioAppend   = "input_audio_buffer.append"
)

// Server event types the session reacts to. Everything else is logged at
// debug level and ignored.
const (
	typeTranscriptDelta     = "conversation.item.input_audio_transcription.delta"
	typeTranscriptCompleted = "conversation.item.input_audio_transcription.completed"
	typeServerError         = "error"
)

type sessionUpdateEvent struct {
	EventID string        `json:"event_id"`
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Modalities              []string            `json:"modalities"`
	InputAudioFormat        string              `json:"input_audio_format"`
	SampleRate              int                 `json:"sample_rate"`
	InputAudioTranscription transcriptionConfig `json:"input_audio_transcription"`

	// TurnDetection marshals as null when server-side VAD is disabled; the
	// endpoint treats a missing key differently from an explicit null.
	TurnDetection *turnDetection `json:"turn_detection"`
}

type transcriptionConfig struct {
	Language string `json:"language"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	SilenceDurationMS int     `json:"silence_duration_ms"`
}

type audioAppendEvent struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Audio   string `json:"audio"`
}

// serverEvent is the superset of the inbound payloads the session cares
// about; only the fields for the matching type are populated.
type serverEvent struct {
	Type       string          `json:"type"`
	Delta      string          `json:"delta"`
	Transcript string          `json:"transcript"`
	Error      json.RawMessage `json:"error"`
}

// newEventID returns a unique client event id. The service only uses it for
// correlation, so a timestamp plus a short random suffix is enough.
func newEventID() string {
	return fmt.Sprintf("evt_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// buildSessionUpdate renders the negotiation payload. Pass a nil vad to
// disable server-side turn detection.
func buildSessionUpdate(language string, sampleRate int, vad *turnDetection) ([]byte, error) {
	evt := sessionUpdateEvent{
		EventID: newEventID(),
		Type:    typeSessionUpdate,
		Session: sessionConfig{
			Modalities:              []string{"text"},
			InputAudioFormat:        "pcm",
			SampleRate:              sampleRate,
			InputAudioTranscription: transcriptionConfig{Language: language},
			TurnDetection:           vad,
		},
	}
	return json.Marshal(evt)
}

// buildAudioAppend converts one block of mono float32 samples into an audio
// append event carrying base64 PCM16.
func buildAudioAppend(samples []float32) ([]byte, error) {
	evt := audioAppendEvent{
		EventID: newEventID(),
		Type:    typeAudioAppend,
		Audio:   base64.StdEncoding.EncodeToString(audio.Float32ToPCM16(samples)),
	}
	return json.Marshal(evt)
}

func decodeServerEvent(data []byte) (serverEvent, error) {
	var evt serverEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return serverEvent{}, errorsx.Wrap(err, errorsx.ReasonDecode)
	}
	if evt.Type == "" {
		return serverEvent{}, errorsx.New(errorsx.ReasonDecode, "server event missing type")
	}
	return evt, nil
}

package video

import "fmt"

const (
	TrackTypeVideo = "video"
	TrackTypeAudio = "audio"

	// DefaultFallbackBitrate is used when a container reports no bitrate at
	// all (e.g. probing an HLS manifest, where per-segment bitrates aren't
	// representative of the whole).
	DefaultFallbackBitrate = 4_000_000
)

// InputVideo is the raw track layout produced by probing a source file.
type InputVideo struct {
	Format    string       `json:"format,omitempty"`
	Tracks    []InputTrack `json:"tracks,omitempty"`
	Duration  float64      `json:"duration,omitempty"`
	SizeBytes int64        `json:"size,omitempty"`
}

func (i InputVideo) GetTrack(trackType string) (InputTrack, error) {
	if trackType != TrackTypeVideo && trackType != TrackTypeAudio {
		return InputTrack{}, fmt.Errorf("invalid track type - must be '%s' or '%s'", TrackTypeVideo, TrackTypeAudio)
	}
	for _, t := range i.Tracks {
		if t.Type == trackType {
			return t, nil
		}
	}
	return InputTrack{}, fmt.Errorf("no '%s' tracks found", trackType)
}

func (i InputVideo) HasAudio() bool {
	_, err := i.GetTrack(TrackTypeAudio)
	return err == nil
}

type VideoTrack struct {
	Width              int64   `json:"width,omitempty"`
	Height             int64   `json:"height,omitempty"`
	PixelFormat        string  `json:"pixel_format,omitempty"`
	FPS                float64 `json:"fps,omitempty"`
	Rotation           int64   `json:"rotation,omitempty"`
	DisplayAspectRatio string  `json:"display_aspect_ratio,omitempty"`
}

type AudioTrack struct {
	Channels   int `json:"channels,omitempty"`
	SampleRate int `json:"sample_rate,omitempty"`
	SampleBits int `json:"sample_bits,omitempty"`
	BitDepth   int `json:"bit_depth,omitempty"`
}

type InputTrack struct {
	Type    string `json:"type"`
	Codec   string `json:"codec"`
	Bitrate int64  `json:"bitrate"`

	VideoTrack
	AudioTrack
}

// Info is the data model's VideoInfo (§3): the flattened, read-only view of
// a probed file that the rest of the pipeline actually consumes.
type Info struct {
	Width     int64   `json:"width"`
	Height    int64   `json:"height"`
	FPS       float64 `json:"fps"`
	DurationS float64 `json:"duration_s"`
	Bitrate   int64   `json:"bitrate"`
	HasAudio  bool    `json:"has_audio"`
	Codec     string  `json:"codec"`
	Aspect    float64 `json:"aspect"`
}

// NewInfo flattens a probed InputVideo into the VideoInfo the rest of the
// pipeline consumes. Tolerates absent fields with zeros per §4.2 "probe".
func NewInfo(iv InputVideo) Info {
	info := Info{
		DurationS: iv.Duration,
	}
	if vt, err := iv.GetTrack(TrackTypeVideo); err == nil {
		info.Width = vt.Width
		info.Height = vt.Height
		info.FPS = vt.FPS
		info.Bitrate = vt.Bitrate
		info.Codec = vt.Codec
		if vt.Height != 0 {
			info.Aspect = float64(vt.Width) / float64(vt.Height)
		}
	}
	info.HasAudio = iv.HasAudio()
	return info
}

package video

import "fmt"

// QualityProfile is an encoding preset named in the §6 quality catalog.
// CRF/preset/dimensions/bitrates are static per profile; a Job may override
// Bitrate via TransformOptions.CustomBitrate.
type QualityProfile struct {
	Name         string
	CRF          int
	Preset       string
	Width        int64
	Height       int64
	Bitrate      int64 // bps
	MaxBitrate   int64 // bps
	BufSize      int64 // bits
	AudioBitrate int64 // bps
}

// Quality name constants, validated by job.Manager.Submit per §4.1.
const (
	QualityLow       = "low"
	QualityMedium    = "medium"
	QualityHigh      = "high"
	QualityUltra     = "ultra"
	QualityTikTok    = "tiktok"
	QualityInstagram = "instagram"
	QualityYouTube   = "youtube"
)

// Platform name constants, validated by job.Manager.Submit per §4.1.
const (
	PlatformGeneral   = "general"
	PlatformTikTok    = "tiktok"
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
	PlatformYouTube   = "youtube"
)

// QualityCatalog is the static table from spec.md §6: CRF, preset, target
// WxH, target/max bitrate, bufsize, audio bitrate (k values are *1000 bps).
var QualityCatalog = map[string]QualityProfile{
	QualityLow: {
		Name: QualityLow, CRF: 28, Preset: "fast",
		Width: 720, Height: 1280,
		Bitrate: 1200_000, MaxBitrate: 1800_000, BufSize: 2400_000, AudioBitrate: 96_000,
	},
	QualityMedium: {
		Name: QualityMedium, CRF: 23, Preset: "medium",
		Width: 1080, Height: 1920,
		Bitrate: 2800_000, MaxBitrate: 4200_000, BufSize: 5600_000, AudioBitrate: 128_000,
	},
	QualityHigh: {
		Name: QualityHigh, CRF: 20, Preset: "medium",
		Width: 1080, Height: 1920,
		Bitrate: 5000_000, MaxBitrate: 7500_000, BufSize: 10000_000, AudioBitrate: 192_000,
	},
	QualityUltra: {
		Name: QualityUltra, CRF: 16, Preset: "slow",
		Width: 1080, Height: 1920,
		Bitrate: 8000_000, MaxBitrate: 12000_000, BufSize: 16000_000, AudioBitrate: 256_000,
	},
	QualityTikTok: {
		Name: QualityTikTok, CRF: 22, Preset: "medium",
		Width: 1080, Height: 1920,
		Bitrate: 2500_000, MaxBitrate: 3500_000, BufSize: 5000_000, AudioBitrate: 128_000,
	},
	QualityInstagram: {
		Name: QualityInstagram, CRF: 21, Preset: "medium",
		Width: 1080, Height: 1920,
		Bitrate: 3200_000, MaxBitrate: 4800_000, BufSize: 6400_000, AudioBitrate: 160_000,
	},
	QualityYouTube: {
		Name: QualityYouTube, CRF: 20, Preset: "medium",
		Width: 1080, Height: 1920,
		Bitrate: 4000_000, MaxBitrate: 6000_000, BufSize: 8000_000, AudioBitrate: 192_000,
	},
}

func IsValidQuality(quality string) bool {
	_, ok := QualityCatalog[quality]
	return ok
}

func IsValidPlatform(platform string) bool {
	switch platform {
	case PlatformGeneral, PlatformTikTok, PlatformInstagram, PlatformFacebook, PlatformYouTube:
		return true
	default:
		return false
	}
}

// AdjustQualityForPlatform implements the §4.1 platform mapping:
// facebook -> instagram; tiktok/instagram/youtube -> themselves;
// general -> unchanged. Idempotent under a second application (§8).
func AdjustQualityForPlatform(quality, platform string) string {
	switch platform {
	case PlatformFacebook:
		return QualityInstagram
	case PlatformTikTok, PlatformInstagram, PlatformYouTube:
		return platform
	default:
		return quality
	}
}

func GetProfile(quality string) (QualityProfile, error) {
	p, ok := QualityCatalog[quality]
	if !ok {
		return QualityProfile{}, fmt.Errorf("unknown quality profile: %s", quality)
	}
	return p, nil
}

// WithCustomBitrate returns a copy of the profile with Bitrate/MaxBitrate
// overridden by a caller-supplied value, maxrate/bufsize scaled in the same
// proportion as the catalog's ratios so the encoder's rate-control window
// stays consistent.
func (p QualityProfile) WithCustomBitrate(bitrate int64) QualityProfile {
	if bitrate <= 0 {
		return p
	}
	ratio := float64(bitrate) / float64(p.Bitrate)
	p.Bitrate = bitrate
	p.MaxBitrate = int64(float64(p.MaxBitrate) * ratio)
	p.BufSize = int64(float64(p.BufSize) * ratio)
	return p
}

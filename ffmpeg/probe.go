package ffmpeg

import "github.com/reelify/clip-engine/video"

// Probe invokes the prober and flattens the result into the VideoInfo shape
// the rest of the pipeline consumes; a thin wrapper so callers outside the
// video package depend on this driver rather than reaching into video
// directly for every probe call.
func Probe(requestID, path string) (video.Info, error) {
	iv, err := video.Probe{}.ProbeFile(requestID, path)
	if err != nil {
		return video.Info{}, err
	}
	return video.NewInfo(iv), nil
}

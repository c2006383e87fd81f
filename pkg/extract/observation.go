package extract

// Region is a bounding box in frame coordinates.
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// FaceTrack is one tracked face within a clip: its embedding and the time
// span over which the track was observed, relative to the clip start.
type FaceTrack struct {
	TrackID   int       `json:"track_id"`
	Embedding []float32 `json:"embedding"`
	Region    Region    `json:"region"`
	Start     float64   `json:"start"`
	End       float64   `json:"end"`
}

// VoiceSegment is one diarized speech segment within a clip.
type VoiceSegment struct {
	SpeakerID int       `json:"speaker_id"`
	Embedding []float32 `json:"embedding"`
	Start     float64   `json:"start"`
	End       float64   `json:"end"`
}

// ClipObservation is the multimodal extraction result for one clip: face
// tracks, voice segments, and caption statements that refer to the people
// in the clip by placeholder tokens.
type ClipObservation struct {
	ClipID int     `json:"clip_id"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`

	Faces      []FaceTrack    `json:"faces,omitempty"`
	Voices     []VoiceSegment `json:"voices,omitempty"`
	Statements []string       `json:"statements,omitempty"`
}

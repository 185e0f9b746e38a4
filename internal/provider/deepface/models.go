package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img              string `json:"img"`               // data URI, base64 payload
	ModelName        string `json:"model_name"`        // "Facenet512", "VGG-Face", etc
	DetectorBackend  string `json:"detector_backend"`  // "retinaface", "mtcnn", etc
	EnforceDetection bool   `json:"enforce_detection"` // false returns the whole frame when no face is found
	Align            bool   `json:"align"`
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence *float64   `json:"face_confidence,omitempty"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// errorResponse is the body DeepFace sends with 4xx/5xx statuses.
type errorResponse struct {
	Error string `json:"error"`
}

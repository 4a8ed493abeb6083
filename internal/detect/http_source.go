package detect

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPSource pulls detections from the local inference sidecar (capture +
// model live there; this process only consumes typed results). One request
// corresponds to one freshly captured and scored frame.
type HTTPSource struct {
	endpoint string
	window   string
	client   *http.Client
}

func NewHTTPSource(endpoint, windowTitle string) *HTTPSource {
	return &HTTPSource{
		endpoint: endpoint,
		window:   windowTitle,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type wireDetection struct {
	Class      string  `json:"class"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}

type wireSnapshot struct {
	WindowWidth  int             `json:"windowWidth"`
	WindowHeight int             `json:"windowHeight"`
	Detections   []wireDetection `json:"detections"`
}

// Detect fetches and decodes one snapshot.
func (s *HTTPSource) Detect() (Snapshot, error) {
	u := fmt.Sprintf("%s/detections?window=%s", s.endpoint, url.QueryEscape(s.window))
	resp, err := s.client.Get(u)
	if err != nil {
		return Snapshot{}, fmt.Errorf("detection request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("detection service returned %d", resp.StatusCode)
	}

	var wire wireSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return Snapshot{}, fmt.Errorf("error decoding detections: %w", err)
	}

	snap := Snapshot{
		WindowW:    wire.WindowWidth,
		WindowH:    wire.WindowHeight,
		CapturedAt: time.Now(),
	}
	for _, d := range wire.Detections {
		snap.Detections = append(snap.Detections, Detection{
			Class:      Class(d.Class),
			Box:        Box{X: d.X, Y: d.Y, W: d.Width, H: d.Height},
			Confidence: d.Confidence,
		})
	}
	return snap, nil
}

package detection

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"zoneguard-worker-go/internal/models"
	"zoneguard-worker-go/internal/services/rpc"
)

// DetectMethod is the unary method served by the person detector. The request
// is a BytesValue holding a JPEG, the response a Struct of the form
// {"detections": [{"box": [x1, y1, x2, y2], "confidence": 0.87, "class_id": 0}]}.
const DetectMethod = "/zoneguard.vision.v1.PersonDetector/Detect"

// Encoder turns a raw frame into JPEG bytes for transport.
type Encoder interface {
	Encode(frame *models.Frame) ([]byte, error)
}

type Service struct {
	client        *rpc.Client
	encoder       Encoder
	minConfidence float64
	personClass   int
}

func NewService(client *rpc.Client, encoder Encoder, minConfidence float64, personClass int) *Service {
	log.Info().Str("service", client.Name()).Float64("min_confidence", minConfidence).Msg("Initializing person detection service")

	if err := client.Connect(); err != nil {
		log.Warn().Err(err).Msg("Person detection service not available, will retry later")
	}

	return &Service{
		client:        client,
		encoder:       encoder,
		minConfidence: minConfidence,
		personClass:   personClass,
	}
}

// Detect sends the frame to the detector and returns person detections at or
// above the confidence threshold.
func (s *Service) Detect(ctx context.Context, frame *models.Frame) ([]models.Detection, error) {
	jpeg, err := s.encoder.Encode(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	resp := &structpb.Struct{}
	if err := s.client.Invoke(ctx, DetectMethod, wrapperspb.Bytes(jpeg), resp); err != nil {
		return nil, fmt.Errorf("detection service unavailable: %w", err)
	}

	dets, err := ParseDetections(resp)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("raw", len(dets)).Int64("frame", frame.ID).Msg("Detection response")
	return FilterPeople(dets, s.personClass, s.minConfidence), nil
}

// HealthCheck proxies to the standard gRPC health service of the detector.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

// ParseDetections decodes the detector response.
func ParseDetections(resp *structpb.Struct) ([]models.Detection, error) {
	field, ok := resp.GetFields()["detections"]
	if !ok {
		return nil, nil
	}
	list := field.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("detections must be a list")
	}

	out := make([]models.Detection, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		obj := v.GetStructValue()
		if obj == nil {
			return nil, fmt.Errorf("detection %d is not an object", i)
		}
		fields := obj.GetFields()

		coords := fields["box"].GetListValue().GetValues()
		if len(coords) != 4 {
			return nil, fmt.Errorf("detection %d: box must have 4 coordinates, got %d", i, len(coords))
		}
		out = append(out, models.Detection{
			Box: models.Box{
				X1: coords[0].GetNumberValue(),
				Y1: coords[1].GetNumberValue(),
				X2: coords[2].GetNumberValue(),
				Y2: coords[3].GetNumberValue(),
			},
			Confidence: fields["confidence"].GetNumberValue(),
			ClassID:    int(fields["class_id"].GetNumberValue()),
		})
	}
	return out, nil
}

// FilterPeople keeps detections of the person class with confidence >= min.
func FilterPeople(dets []models.Detection, personClass int, min float64) []models.Detection {
	out := dets[:0:0]
	for _, d := range dets {
		if d.ClassID == personClass && d.Confidence >= min && !d.Box.Empty() {
			out = append(out, d)
		}
	}
	return out
}

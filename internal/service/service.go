package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rioastal/wastesense/internal/domain"
	"github.com/rioastal/wastesense/internal/repository"
)

// Alerter is notified when an ingested gas reading crosses the configured
// threshold. Failures are logged, never surfaced.
type Alerter interface {
	GasThresholdExceeded(ctx context.Context, value, threshold float64, when string) error
}

// Options carries the knobs the record service needs beyond the store.
type Options struct {
	Strict         bool
	TopicRain      string
	TopicGas       string
	Alerts         Alerter // nil disables alerting
	AlertThreshold float64
}

type Services struct {
	Records *RecordService
}

func New(store repository.Store, opts Options) *Services {
	return &Services{
		Records: &RecordService{store: store, opts: opts},
	}
}

// RecordService owns record validation and the MQTT ingest path. Store
// semantics (filtering, full-replace update) live below it.
type RecordService struct {
	store repository.Store
	opts  Options
}

func (s *RecordService) List(ctx context.Context, sensor domain.Sensor) ([]domain.Record, error) {
	return s.store.List(ctx, sensor)
}

func (s *RecordService) Create(ctx context.Context, f domain.Fields) (domain.Record, error) {
	if err := s.validate(f); err != nil {
		return domain.Record{}, err
	}
	return s.store.Create(ctx, f)
}

func (s *RecordService) UpdateByID(ctx context.Context, id string, f domain.Fields) (domain.Record, error) {
	return s.store.UpdateByID(ctx, id, f)
}

func (s *RecordService) DeleteByID(ctx context.Context, id string) (domain.Record, error) {
	return s.store.DeleteByID(ctx, id)
}

func (s *RecordService) DeleteAll(ctx context.Context, sensor domain.Sensor) (int64, error) {
	return s.store.DeleteAll(ctx, sensor)
}

// validate is deliberately permissive by default: a create is rejected only
// when both channel pairs are entirely absent. Partial pairs and
// mixed-channel records pass through unchanged. Strict mode requires exactly
// one complete pair with a parseable RFC 3339 timestamp.
func (s *RecordService) validate(f domain.Fields) error {
	rain, gas := f.HasRain(), f.HasGas()
	if !rain && !gas {
		return fmt.Errorf("%w: required sensor data missing", domain.ErrValidation)
	}
	if !s.opts.Strict {
		return nil
	}

	if rain && gas {
		return fmt.Errorf("%w: record must carry a single channel", domain.ErrValidation)
	}
	if rain && (f.Mvalue != nil || f.Mdate != nil) {
		return fmt.Errorf("%w: stray gas fields on a rainfall record", domain.ErrValidation)
	}
	if gas && (f.Gvalue != nil || f.Gdate != nil) {
		return fmt.Errorf("%w: stray rainfall fields on a gas record", domain.ErrValidation)
	}

	date := f.Gdate
	if gas {
		date = f.Mdate
	}
	if _, err := time.Parse(time.RFC3339, *date); err != nil {
		return fmt.Errorf("%w: timestamp is not RFC 3339", domain.ErrValidation)
	}
	return nil
}

// FromMQTT turns one broker message into one record. The payload is a bare
// decimal; the topic decides the channel; the timestamp is taken at
// processing time, not from the wire. Any error is terminal for this message
// only.
func (s *RecordService) FromMQTT(topic string, payload []byte) error {
	value, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return fmt.Errorf("non-numeric payload %q: %w", string(payload), err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	ctx := context.Background()

	switch topic {
	case s.opts.TopicRain:
		_, err = s.store.Create(ctx, domain.Fields{Gvalue: &value, Gdate: &now})
	case s.opts.TopicGas:
		_, err = s.store.Create(ctx, domain.Fields{Mvalue: &value, Mdate: &now})
		if err == nil {
			s.maybeAlert(ctx, value, now)
		}
	default:
		return fmt.Errorf("unknown topic %q", topic)
	}
	if err != nil {
		return fmt.Errorf("store reading from %s: %w", topic, err)
	}
	return nil
}

func (s *RecordService) maybeAlert(ctx context.Context, value float64, when string) {
	if s.opts.Alerts == nil || value <= s.opts.AlertThreshold {
		return
	}
	if err := s.opts.Alerts.GasThresholdExceeded(ctx, value, s.opts.AlertThreshold, when); err != nil {
		log.Error().Err(err).Float64("value", value).Msg("gas alert publish failed")
	}
}

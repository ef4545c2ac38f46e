package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rioastal/wastesense/internal/domain"
	"github.com/rioastal/wastesense/internal/repository"
)

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }

func newTestService(opts Options) (*RecordService, *repository.Memory) {
	store := repository.NewMemory()
	if opts.TopicRain == "" {
		opts.TopicRain = "Garbage"
	}
	if opts.TopicGas == "" {
		opts.TopicGas = "Methane"
	}
	return New(store, opts).Records, store
}

func TestCreateRejectsEmptyFields(t *testing.T) {
	svc, store := newTestService(Options{})

	_, err := svc.Create(context.Background(), domain.Fields{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	all, _ := store.List(context.Background(), "")
	if len(all) != 0 {
		t.Errorf("no record should be created, got %+v", all)
	}
}

func TestCreateRejectsLonelyValue(t *testing.T) {
	svc, _ := newTestService(Options{})

	// value without timestamp on both channels: neither pair is usable
	_, err := svc.Create(context.Background(), domain.Fields{Gvalue: fptr(5)})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestCreatePermissiveAllowsMixedChannels(t *testing.T) {
	svc, _ := newTestService(Options{})

	f := domain.Fields{
		Gvalue: fptr(1), Gdate: sptr("2024-01-01T00:00:00Z"),
		Mvalue: fptr(2), Mdate: sptr("2024-01-01T00:00:00Z"),
	}
	rec, err := svc.Create(context.Background(), f)
	if err != nil {
		t.Fatalf("mixed-channel create should pass by default: %v", err)
	}
	if rec.Gvalue == nil || rec.Mvalue == nil {
		t.Errorf("both channels should be stored, got %+v", rec)
	}
}

func TestCreatePermissiveAllowsOddTimestamp(t *testing.T) {
	svc, _ := newTestService(Options{})

	f := domain.Fields{Gvalue: fptr(1), Gdate: sptr("yesterday-ish")}
	if _, err := svc.Create(context.Background(), f); err != nil {
		t.Errorf("permissive mode should not inspect timestamps: %v", err)
	}
}

func TestCreateStrict(t *testing.T) {
	svc, _ := newTestService(Options{Strict: true})
	ctx := context.Background()

	good := domain.Fields{Gvalue: fptr(1), Gdate: sptr("2024-01-01T00:00:00Z")}
	if _, err := svc.Create(ctx, good); err != nil {
		t.Errorf("single complete pair should pass strict mode: %v", err)
	}

	mixed := domain.Fields{
		Gvalue: fptr(1), Gdate: sptr("2024-01-01T00:00:00Z"),
		Mvalue: fptr(2), Mdate: sptr("2024-01-01T00:00:00Z"),
	}
	if _, err := svc.Create(ctx, mixed); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("mixed channels should fail strict mode, got %v", err)
	}

	stray := domain.Fields{
		Gvalue: fptr(1), Gdate: sptr("2024-01-01T00:00:00Z"),
		Mvalue: fptr(2),
	}
	if _, err := svc.Create(ctx, stray); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("stray gas value should fail strict mode, got %v", err)
	}

	bad := domain.Fields{Gvalue: fptr(1), Gdate: sptr("yesterday-ish")}
	if _, err := svc.Create(ctx, bad); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unparseable timestamp should fail strict mode, got %v", err)
	}
}

func TestFromMQTTRainTopic(t *testing.T) {
	svc, store := newTestService(Options{})

	before := time.Now().UTC()
	if err := svc.FromMQTT("Garbage", []byte("7.2")); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	after := time.Now().UTC()

	all, _ := store.List(context.Background(), domain.SensorRain)
	if len(all) != 1 {
		t.Fatalf("expected one rain record, got %d", len(all))
	}
	rec := all[0]
	if rec.Gvalue == nil || *rec.Gvalue != 7.2 {
		t.Errorf("Gvalue = %v, want 7.2", rec.Gvalue)
	}
	if rec.Mvalue != nil || rec.Mdate != nil {
		t.Errorf("gas fields should be absent, got %+v", rec)
	}

	if rec.Gdate == nil {
		t.Fatal("expected ingestion timestamp")
	}
	ts, err := time.Parse(time.RFC3339, *rec.Gdate)
	if err != nil {
		t.Fatalf("timestamp not RFC 3339: %v", err)
	}
	if ts.Before(before.Truncate(time.Second)) || ts.After(after.Add(time.Second)) {
		t.Errorf("timestamp %v outside processing window [%v, %v]", ts, before, after)
	}
}

func TestFromMQTTGasTopic(t *testing.T) {
	svc, store := newTestService(Options{})

	if err := svc.FromMQTT("Methane", []byte("41.0")); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	all, _ := store.List(context.Background(), domain.SensorGas)
	if len(all) != 1 || all[0].Mvalue == nil || *all[0].Mvalue != 41.0 {
		t.Errorf("expected one gas record of 41.0, got %+v", all)
	}
}

func TestFromMQTTNonNumericPayload(t *testing.T) {
	svc, store := newTestService(Options{})

	if err := svc.FromMQTT("Garbage", []byte("not-a-number")); err == nil {
		t.Error("expected parse error")
	}

	all, _ := store.List(context.Background(), "")
	if len(all) != 0 {
		t.Errorf("non-numeric payload must not create records, got %+v", all)
	}
}

func TestFromMQTTUnknownTopic(t *testing.T) {
	svc, store := newTestService(Options{})

	if err := svc.FromMQTT("Humidity", []byte("1.0")); err == nil {
		t.Error("expected unknown topic error")
	}

	all, _ := store.List(context.Background(), "")
	if len(all) != 0 {
		t.Errorf("unknown topic must not create records, got %+v", all)
	}
}

type captureAlerter struct {
	calls int
	value float64
}

func (a *captureAlerter) GasThresholdExceeded(_ context.Context, value, _ float64, _ string) error {
	a.calls++
	a.value = value
	return nil
}

func TestGasAlertThreshold(t *testing.T) {
	alerts := &captureAlerter{}
	svc, _ := newTestService(Options{Alerts: alerts, AlertThreshold: 50})

	if err := svc.FromMQTT("Methane", []byte("49.9")); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if alerts.calls != 0 {
		t.Errorf("reading under threshold must not alert, got %d calls", alerts.calls)
	}

	if err := svc.FromMQTT("Methane", []byte("72.5")); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if alerts.calls != 1 || alerts.value != 72.5 {
		t.Errorf("expected one alert for 72.5, got %d calls (value %v)", alerts.calls, alerts.value)
	}

	// rain readings never alert
	if err := svc.FromMQTT("Garbage", []byte("99.9")); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if alerts.calls != 1 {
		t.Errorf("rain reading alerted, calls = %d", alerts.calls)
	}
}

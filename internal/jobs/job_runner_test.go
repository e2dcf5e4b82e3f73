package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentoo/internal/config"
	"rentoo/internal/domain"
	"rentoo/internal/metrics"
	"rentoo/internal/notify"
	"rentoo/internal/repository/memory"
	"rentoo/internal/service"
)

type stubRentals struct {
	service.RentalService
	started int
	err     error
	panics  bool
	day     time.Time
}

func (s *stubRentals) StartDue(_ context.Context, today time.Time) (int, error) {
	if s.panics {
		panic("boom")
	}
	s.day = today
	return s.started, s.err
}

func TestStartDueRentals_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		stub    *stubRentals
		wantErr bool
		outcome string
	}{
		{"success", &stubRentals{started: 2}, false, "success"},
		{"failure", &stubRentals{err: errors.New("db down")}, true, "failure"},
		{"panic", &stubRentals{panics: true}, true, "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.NewServer(prometheus.NewRegistry())
			jr := NewJobRunner(tt.stub, &config.Config{}, m)
			jr.now = func() time.Time { return time.Date(2024, 6, 1, 23, 30, 0, 0, time.FixedZone("CEST", 2*3600)) }

			err := jr.StartDueRentals()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, time.UTC, tt.stub.day.Location())
				assert.Equal(t, 1, tt.stub.day.Day())
			}
			assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues(startDueRentalsJob, tt.outcome)))
		})
	}
}

func TestStartDueRentals_MovesConfirmedRentals(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rentals := service.NewRentalService(store.Rentals, store.Items, store.Users, store.Notifications, notify.LogNotifier{}, nil)

	due := &domain.Rental{ItemID: "i1", OwnerID: "o", RenterID: "r", StartDate: "2024-06-01", EndDate: "2024-06-03", Status: domain.RentalStatusConfirmed}
	later := &domain.Rental{ItemID: "i1", OwnerID: "o", RenterID: "r", StartDate: "2024-06-05", EndDate: "2024-06-06", Status: domain.RentalStatusConfirmed}
	pending := &domain.Rental{ItemID: "i2", OwnerID: "o", RenterID: "r", StartDate: "2024-05-30", EndDate: "2024-06-02", Status: domain.RentalStatusPending}
	for _, r := range []*domain.Rental{due, later, pending} {
		require.NoError(t, store.Rentals.Create(ctx, r))
	}

	jr := NewJobRunner(rentals, &config.Config{}, nil)
	jr.now = func() time.Time { return time.Date(2024, 6, 1, 0, 15, 0, 0, time.UTC) }
	require.NoError(t, jr.RunAll())

	for id, want := range map[string]domain.RentalStatus{
		due.ID:     domain.RentalStatusInProgress,
		later.ID:   domain.RentalStatusConfirmed,
		pending.ID: domain.RentalStatusPending,
	} {
		got, err := store.Rentals.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, id)
	}
}

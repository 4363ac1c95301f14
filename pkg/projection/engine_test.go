package projection_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/eventstore"
	"github.com/coreidentity/authcore/pkg/eventstore/mockstore"
	"github.com/coreidentity/authcore/pkg/projection"
)

func newEngineTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&projection.Bookmark{}, &projection.FailedEvent{}))
	return db
}

type stubHandler struct {
	name    string
	applied int
}

func (h *stubHandler) Name() string              { return h.name }
func (h *stubHandler) AggregateTypes() []string   { return []string{"user"} }
func (h *stubHandler) EventTypes() []string       { return []string{"user.created"} }
func (h *stubHandler) Apply(ctx context.Context, tx *gorm.DB, event eventstore.Event) error {
	h.applied++
	return nil
}

// TestEngine_RunStopsCleanlyWhenStoreCannotEnumerateInstances exercises
// the poll loop's tolerance of a transient store failure: Run must not
// propagate the error from DistinctInstanceIDs, only log it and keep
// polling until ctx is canceled.
func TestEngine_RunStopsCleanlyWhenStoreCannotEnumerateInstances(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockstore.NewMockEventStore(ctrl)
	store.EXPECT().DistinctInstanceIDs(gomock.Any()).Return(nil, eventstore.ErrUnavailable).AnyTimes()

	db := newEngineTestDB(t)
	h := &stubHandler{name: "stub"}
	log := noopEngineLogger{}

	eng := projection.New(store, db, nil, log, []projection.Handler{h}, projection.WithPollInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()
	cancel()

	err := <-done
	require.NoError(t, err)
	require.Zero(t, h.applied)
}

// TestEngine_RunToleratesEventsAfterPositionError confirms a read
// failure from the store during a partition poll is logged and
// tolerated rather than crashing the handler's loop, so a later
// successful poll can still make progress.
func TestEngine_RunToleratesEventsAfterPositionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockstore.NewMockEventStore(ctrl)
	store.EXPECT().DistinctInstanceIDs(gomock.Any()).Return([]string{"instance-1"}, nil).AnyTimes()
	store.EXPECT().
		EventsAfterPosition(gomock.Any(), int64(0), gomock.Any(), gomock.Any()).
		Return(nil, eventstore.ErrUnavailable).AnyTimes()

	db := newEngineTestDB(t)
	h := &stubHandler{name: "stub"}
	log := noopEngineLogger{}

	eng := projection.New(store, db, nil, log, []projection.Handler{h}, projection.WithPollInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()
	cancel()

	err := <-done
	require.NoError(t, err)
	require.Zero(t, h.applied)
}

type noopEngineLogger struct{}

func (noopEngineLogger) Debug(string, ...interface{})  {}
func (noopEngineLogger) Info(string, ...interface{})   {}
func (noopEngineLogger) Warn(string, ...interface{})   {}
func (noopEngineLogger) Error(string, ...interface{})  {}
func (noopEngineLogger) Fatal(string, ...interface{})  {}
func (noopEngineLogger) Debugf(string, ...interface{}) {}
func (noopEngineLogger) Infof(string, ...interface{})  {}
func (noopEngineLogger) Warnf(string, ...interface{})  {}
func (noopEngineLogger) Errorf(string, ...interface{}) {}
func (noopEngineLogger) Fatalf(string, ...interface{}) {}

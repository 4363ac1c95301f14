// Package mockstore is a hand-written gomock double for
// eventstore.EventStore, in the shape mockgen would generate, for
// tests that need to control or assert on EventStore calls without a
// real backing database.
package mockstore

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/coreidentity/authcore/pkg/eventstore"
)

// MockEventStore is a mock of the eventstore.EventStore interface.
type MockEventStore struct {
	ctrl     *gomock.Controller
	recorder *MockEventStoreRecorder
}

// MockEventStoreRecorder is the mock recorder for MockEventStore.
type MockEventStoreRecorder struct {
	mock *MockEventStore
}

// NewMockEventStore builds a new mock.
func NewMockEventStore(ctrl *gomock.Controller) *MockEventStore {
	m := &MockEventStore{ctrl: ctrl}
	m.recorder = &MockEventStoreRecorder{m}
	return m
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockEventStore) EXPECT() *MockEventStoreRecorder {
	return m.recorder
}

func (m *MockEventStore) Append(ctx context.Context, aggregateType, aggregateID string, expectedSequence int, events ...eventstore.Event) ([]eventstore.Event, error) {
	m.ctrl.T.Helper()
	varargs := []interface{}{ctx, aggregateType, aggregateID, expectedSequence}
	for _, e := range events {
		varargs = append(varargs, e)
	}
	ret := m.ctrl.Call(m, "Append", varargs...)
	ret0, _ := ret[0].([]eventstore.Event)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockEventStoreRecorder) Append(ctx, aggregateType, aggregateID, expectedSequence interface{}, events ...interface{}) *gomock.Call {
	varargs := append([]interface{}{ctx, aggregateType, aggregateID, expectedSequence}, events...)
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Append", reflect.TypeOf((*MockEventStore)(nil).Append), varargs...)
}

func (m *MockEventStore) Query(ctx context.Context, filter eventstore.Filter) ([]eventstore.Event, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Query", ctx, filter)
	ret0, _ := ret[0].([]eventstore.Event)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockEventStoreRecorder) Query(ctx, filter interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Query", reflect.TypeOf((*MockEventStore)(nil).Query), ctx, filter)
}

func (m *MockEventStore) LatestPosition(ctx context.Context, filter eventstore.Filter) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LatestPosition", ctx, filter)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockEventStoreRecorder) LatestPosition(ctx, filter interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LatestPosition", reflect.TypeOf((*MockEventStore)(nil).LatestPosition), ctx, filter)
}

func (m *MockEventStore) LatestEvent(ctx context.Context, instanceID, aggregateType, aggregateID string) (eventstore.Event, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LatestEvent", ctx, instanceID, aggregateType, aggregateID)
	ret0, _ := ret[0].(eventstore.Event)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockEventStoreRecorder) LatestEvent(ctx, instanceID, aggregateType, aggregateID interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LatestEvent", reflect.TypeOf((*MockEventStore)(nil).LatestEvent), ctx, instanceID, aggregateType, aggregateID)
}

func (m *MockEventStore) Count(ctx context.Context, filter eventstore.Filter) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Count", ctx, filter)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockEventStoreRecorder) Count(ctx, filter interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Count", reflect.TypeOf((*MockEventStore)(nil).Count), ctx, filter)
}

func (m *MockEventStore) EventsAfterPosition(ctx context.Context, position int64, limit int, filter eventstore.Filter) ([]eventstore.Event, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "EventsAfterPosition", ctx, position, limit, filter)
	ret0, _ := ret[0].([]eventstore.Event)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockEventStoreRecorder) EventsAfterPosition(ctx, position, limit, filter interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EventsAfterPosition", reflect.TypeOf((*MockEventStore)(nil).EventsAfterPosition), ctx, position, limit, filter)
}

func (m *MockEventStore) DistinctInstanceIDs(ctx context.Context) ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DistinctInstanceIDs", ctx)
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockEventStoreRecorder) DistinctInstanceIDs(ctx interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DistinctInstanceIDs", reflect.TypeOf((*MockEventStore)(nil).DistinctInstanceIDs), ctx)
}

func (m *MockEventStore) Close() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Close")
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockEventStoreRecorder) Close() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Close", reflect.TypeOf((*MockEventStore)(nil).Close))
}

package infrastructure

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/coreidentity/authcore/pkg/domain"
)

// watermillLoggerAdapter bridges domain.Logger to watermill.LoggerAdapter,
// the same adapter shape pkg/infrastructure/eventdispatcher.go used
// around its own logger interface in the source this module was built from.
type watermillLoggerAdapter struct {
	log domain.Logger
}

func (a watermillLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, "error", err, "fields", fields)
}
func (a watermillLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, "fields", fields)
}
func (a watermillLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, "fields", fields)
}
func (a watermillLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, "fields", fields)
}
func (a watermillLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return a
}

// NewEventBus builds the gochannel pub/sub used to notify the
// projection engine's progress (publishes a best-effort
// notification after each batch, per pkg/infrastructure/eventdispatcher.go's
// watermill wiring.
func NewEventBus(log domain.Logger) (*gochannel.GoChannel, error) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            64,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		watermillLoggerAdapter{log: log},
	)
	return pubSub, nil
}

// AsPublisher narrows a *gochannel.GoChannel to the message.Publisher
// interface the projection engine depends on.
func AsPublisher(bus *gochannel.GoChannel) message.Publisher {
	return bus
}
